// Package metadata turns a queued source URL into the directory key its media
// is staged and archived under.
//
// Resolver asks the fetch engine for a single metadata field, retrying once
// against the second playlist item before falling back to the configured
// default (or skipping the entry). Normalizer then shapes the key into a
// single path segment.
package metadata

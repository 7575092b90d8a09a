// Package services defines shared utilities consumed by the pipeline stages
// and the external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, queue entry line numbers, and stage
//     names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into process exit codes (setup failure vs missing tool).
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services

// Package preflight validates the host environment before a batch run.
//
// These checks run in two contexts:
//   - The workflow runner calls Validator.Run after taking the lock. The first
//     failing check aborts the run with the exit code carried by its Failure.
//   - The CLI "tubesync check" command renders every Result as a table
//     without touching the queue.
//
// Checks run in a fixed order so a missing directory is reported before a
// missing tool and a missing tool before an unreachable remote.
package preflight

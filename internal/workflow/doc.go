// Package workflow drives a single batch run.
//
// Runner.Run takes the instance lock, validates the environment, and streams
// the queue, pushing each entry through metadata resolution, key
// normalization, download, and relocation before reading the next. The lock
// is released by a deferred call so every return path, including an
// interrupt, leaves no marker behind.
//
// Per-entry engine failures are logged at debug level and never stop the
// run. Only setup failures (lock, preflight, unreadable queue) produce an
// error, and that error carries the process exit code.
package workflow

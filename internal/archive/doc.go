// Package archive drives one queue entry through download, relocation, and
// staging cleanup.
//
// yt-dlp relocates each finished file itself through its --exec hook. Once it
// returns, whatever is left in the staging directory (partial sidecars, files
// whose hook failed) is swept to the remote with a single directory-level
// rclone call, and the directory is pruned when empty. Engine failures are
// recorded in the Outcome and never retried; the ledger makes the next run
// pick up where this one stopped.
package archive

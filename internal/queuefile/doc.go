// Package queuefile streams entries from the flat text queue.
//
// The queue is one source URL per line. Blank lines and lines whose first
// non-space character is '#' are ignored. The file is only ever read.
package queuefile

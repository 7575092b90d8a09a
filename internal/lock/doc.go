// Package lock guards a run against concurrent instances.
//
// The guard is a marker file whose existence alone means an instance is
// running. The holder also keeps an advisory flock on the marker so tooling
// can tell a live marker from one left behind by a crashed run.
package lock

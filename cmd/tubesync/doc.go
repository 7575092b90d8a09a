// Package main hosts the tubesync CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the batch pipeline, validates the
// environment without touching the queue, lists pending queue entries,
// reports the lock state, and scaffolds configuration. It centralizes
// configuration resolution and logger setup so subcommands can focus on
// presentation.
//
// Keep this package lean: add behaviour to the internal packages first, then
// surface it here.
package main

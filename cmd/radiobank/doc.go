// Package main hosts the radiobank CLI entrypoint and command graph.
//
// The Cobra-based command tree covers filling a target directory with
// station banks, inspecting the configured catalog, reading the run report
// database, and configuration scaffolding. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

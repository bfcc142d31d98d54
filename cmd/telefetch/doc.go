// Package main hosts the telefetch CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon's admin API, usage reporting, scratch inspection,
// and configuration scaffolding. It centralizes configuration resolution and
// API address discovery so subcommands can focus on output formatting.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

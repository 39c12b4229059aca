// Package main hosts the tubeharvest CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration lazily, wires the feed,
// ledger, pipeline and archive collaborators for a run, and renders status,
// ledger and configuration views. Behaviour lives in the internal packages;
// commands here only translate flags into calls and format the results.
package main

// Package chartscout provides the command-line interface for the chartscout
// tool. It configures subcommands (scan, patterns, baseline, history, etc.),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/chartscout/chartscout/cmd/chartscout"
//	func main() { chartscout.Execute() }
package chartscout

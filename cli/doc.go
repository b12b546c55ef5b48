// Package cli contains the command line interface for ipml.
//
// # Usage
//
//	ipml [flags] [run] [<source> ...]
//	ipml fmt tokens|json|yaml [<source> ...]
//	ipml init [--force]
//	ipml repl [<source> ...]
//
// The run command is the default: it executes the sources in a fresh root
// scope with the built-in functors bound and prints the resulting scope.
// A source of "-" reads standard input.
//
// # Configuration
//
// Flag defaults are read from two optional files in the user configuration
// directory: config.json, and config, an IPML source whose [config] scope
// binds flag names with underscores in place of hyphens:
//
//	[config] = (
//	  log_level = "debug"
//	  max_depth = 64
//	)
//
// ipml init writes the second file from the current flag values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// At trace level the evaluator logs every statement and call.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o ipml .
//
// Then --pprof-mode selects a profile (allocs, block, clock, cpu, goroutine,
// heap, mem, mutex, thread, trace) and --pprof-dir its output directory.
package cli

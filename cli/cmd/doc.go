// Package cmd implements the ipml subcommands: run, fmt, init and repl.
//
// Commands read their sources, parser options and output writer from the
// context built by the cli package.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)

// ConfigScope is the scope of the configuration file whose values resolve
// command-line flags.
const ConfigScope = "config"

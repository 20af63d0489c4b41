// Package config builds the explicit configuration value for notesync.
//
// Settings are layered: built-in defaults, then an optional YAML or JSONC
// file, then environment variables. The environment lookup is injected as
// a function so that nothing below the CLI reads process globals.
package config

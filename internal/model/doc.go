// Package model defines the domain types and value objects for the
// notesync CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (Comment, Order, NoteBlock, etc.) are transient: they are
// fetched or built fresh for a single sync run and discarded afterwards.
// There is no persistent state.
//
// The package also defines the error taxonomy (ConfigError, TransportError,
// NotFoundError, ErrEmptyContent), the exit codes each maps to (ExitCode),
// and a CLIError type for usage errors raised by the CLI layer.
package model

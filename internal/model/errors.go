package model

import (
	"errors"
	"fmt"
	"strings"
)

// ExitCode defines the process exit codes of the notesync CLI.
// Scripts can use them to tell which stage of a sync failed.
type ExitCode int

const (
	// ExitSuccess indicates the sync (or dry-run preview) completed.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unclassified error, including usage errors.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates required configuration is missing or invalid.
	ExitConfigError ExitCode = 2

	// ExitTransportError indicates an external API call failed.
	ExitTransportError ExitCode = 3

	// ExitNotFound indicates a pipeline stage found nothing to work with:
	// no internal comment, no order reference, or no matching order.
	ExitNotFound ExitCode = 4

	// ExitEmptyContent indicates the selected internal comment had no text.
	ExitEmptyContent ExitCode = 5
)

// ConfigError reports required settings that are absent. It is raised at
// startup, before any external call is made.
type ConfigError struct {
	// Missing lists the environment variable names of the absent settings,
	// in a fixed order.
	Missing []string

	// Err is an underlying parse or read error, if any.
	Err error
}

func (e *ConfigError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return "missing required configuration: " + strings.Join(e.Missing, ", ")
	case e.Err != nil:
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	default:
		return "invalid configuration"
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed call to an external system: either a
// non-success HTTP status (StatusCode and Body set) or a network-level
// failure (Err set, StatusCode zero).
type TransportError struct {
	// System names the remote system, e.g. "Zendesk" or "Shopify".
	System string

	// Method is the HTTP method of the failed request.
	Method string

	// Path is the request path relative to the API base URL.
	Path string

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int

	// Body is the response body, kept for diagnostics.
	Body string

	// Err is the network error when no response was received.
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API %s %s failed: %v", e.System, e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s API %s %s failed: %d %s", e.System, e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFoundStage names the pipeline stage that came up empty.
type NotFoundStage string

const (
	// StageInternalComment means the ticket has no internal comment.
	StageInternalComment NotFoundStage = "internal-comment"

	// StageOrderReference means the comment text has no order reference.
	StageOrderReference NotFoundStage = "order-reference"

	// StageOrder means no order matches the extracted reference.
	StageOrder NotFoundStage = "order"
)

// String returns the string representation of NotFoundStage.
func (s NotFoundStage) String() string {
	return string(s)
}

// NotFoundError reports that a pipeline stage found nothing to continue with.
type NotFoundError struct {
	Stage NotFoundStage

	// Subject is the value that was searched: the ticket ID for
	// StageInternalComment, the order reference for StageOrder.
	Subject string
}

func (e *NotFoundError) Error() string {
	switch e.Stage {
	case StageInternalComment:
		return fmt.Sprintf("no private comments found for ticket %s", e.Subject)
	case StageOrderReference:
		return "could not find an order name like 'A123456' in the private note"
	case StageOrder:
		return fmt.Sprintf("order with name %s not found", e.Subject)
	default:
		return fmt.Sprintf("%s not found", e.Stage)
	}
}

// ErrEmptyContent is returned when the latest internal comment has an empty
// or whitespace-only body.
var ErrEmptyContent = errors.New("latest private comment has empty body")

// IsNotFound reports whether err is a NotFoundError for the given stage.
// An empty stage matches any NotFoundError.
func IsNotFound(err error, stage NotFoundStage) bool {
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	return stage == "" || nf.Stage == stage
}

// ExitCodeFor classifies err into a process exit code.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	var cfgErr *ConfigError
	var transportErr *TransportError
	var nfErr *NotFoundError
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &transportErr):
		return ExitTransportError
	case errors.As(err, &nfErr):
		return ExitNotFound
	case errors.Is(err, ErrEmptyContent):
		return ExitEmptyContent
	default:
		return ExitGeneralError
	}
}

// CLIError is a custom error type that carries an exit code.
// The CLI layer uses it for usage errors that are not part of the
// sync pipeline's own taxonomy.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

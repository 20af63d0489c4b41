// Package cli implements the cobra-based command line for notesync.
//
// The root command performs the sync itself (notesync <ticket-id>); the
// config subcommand lives in its own file. This file wires global flags,
// logging setup, and the translation of errors into exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/notesync/internal/config"
	"github.com/shinji-kodama/notesync/internal/logging"
	"github.com/shinji-kodama/notesync/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command.
var (
	// jsonOutput switches results and errors to JSON.
	jsonOutput bool

	// verbose forces debug-level logging regardless of configuration.
	verbose bool

	// configPath is the --config flag. Empty means the default lookup
	// order of config.Load.
	configPath string
)

// lookupEnv reads the process environment. Tests replace it.
var lookupEnv = os.Getenv

// version, commit, and date are set at build time via ldflags.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// resolved holds the configuration loaded by the root PersistentPreRunE.
// loadErr is non-nil when loading or validation failed; resolved is still
// set in that case so the config subcommand can show what was found.
var (
	resolved *config.Config
	loadErr  error

	// runID is the correlation ID of the current sync run, attached to
	// errors forwarded to Sentry.
	runID string
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	flags := &syncFlags{}

	rootCmd := &cobra.Command{
		Use:   "notesync <ticket-id>",
		Short: "Append the latest internal Zendesk comment to its Shopify order note",
		Long: `notesync reads the newest internal (private) comment on a Zendesk ticket,
finds the Shopify order name it mentions (one uppercase letter followed by
six digits, e.g. A273302), and appends a dated block with the comment to
that order's note.

Credentials come from the environment (ZENDESK_SUBDOMAIN, ZENDESK_EMAIL,
ZENDESK_API_TOKEN, SHOPIFY_STORE, SHOPIFY_ADMIN_TOKEN) or a config file.

Examples:
  notesync 123456
  notesync 123456 --dry-run
  notesync 123456 --json`,

		Args: cobra.ExactArgs(1),

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors leaves error output to Execute (text or JSON).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// PersistentPreRunE runs before every command, subcommands included.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd.ErrOrStderr())
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: $NOTESYNC_CONFIG or ~/.config/notesync/config.yaml)")

	rootCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false,
		"Show the new order note without writing it")

	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// setup loads the configuration and initializes logging from it.
// A configuration error is remembered rather than returned so that each
// command decides whether it can proceed without a valid config.
func setup(stderr io.Writer) error {
	resolved, loadErr = config.Load(configPath, lookupEnv)
	return initLogging(resolved, stderr)
}

// initLogging installs the process logger. Log output goes to stderr so
// stdout carries only the command result.
func initLogging(cfg *config.Config, stderr io.Writer) error {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return &model.ConfigError{Err: err}
	}
	if verbose {
		level = slog.LevelDebug
	}
	return logging.Init(logging.Config{
		Level:     level,
		SentryDSN: cfg.Logging.SentryDSN,
		Env:       cfg.Logging.Environment,
		Release:   "notesync@" + Version,
		LogFile:   cfg.Logging.File,
		Output:    stderr,
	})
}

// Execute runs the root command and exits the process with the code that
// matches the returned error. SIGINT and SIGTERM cancel the command context,
// which aborts any in-flight API call.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	code := handleError(os.Stderr, err)
	logging.Flush(2 * time.Second)
	os.Exit(int(code))
}

// handleError reports err on w, forwards it to Sentry when reportable, and
// returns the process exit code. A nil error yields ExitSuccess and prints
// nothing.
func handleError(w io.Writer, err error) model.ExitCode {
	if err == nil {
		return model.ExitSuccess
	}
	code := model.ExitCodeFor(err)

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(w, cliErr.Message, cliErr.Err)
	} else {
		printError(w, err.Error(), nil)
	}

	if reportable(err) {
		kv := []any{"exit_code", int(code)}
		if runID != "" {
			kv = append(kv, "run_id", runID)
		}
		logging.CaptureError(err, kv...)
	}
	return code
}

// reportable reports whether err should reach Sentry. A ticket without an
// internal comment, reference, or matching order is an expected outcome of
// the data, not a failure of notesync.
func reportable(err error) bool {
	return !model.IsNotFound(err, "")
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

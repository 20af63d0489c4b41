package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the "config" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate and show the resolved configuration",
		Long: `Show the configuration notesync would use, after applying the config file
and environment variables. Secrets are masked.

Exits non-zero when a required setting is missing or a value is invalid.

Examples:
  notesync config
  notesync config --config ./notesync.yaml --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd.OutOrStdout())
		},
	}
}

// configReportJSON is the JSON output structure for the config command.
type configReportJSON struct {
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
	Config any    `json:"config"`
}

// runConfig prints the redacted configuration and returns the load error,
// if any, so the exit code reflects validity.
func runConfig(out io.Writer) error {
	red := resolved.Redacted()

	if IsJSONOutput() {
		report := configReportJSON{Valid: loadErr == nil, Config: red}
		if loadErr != nil {
			report.Error = loadErr.Error()
		}
		if err := printJSON(out, report); err != nil {
			return err
		}
		return loadErr
	}

	data, err := yaml.Marshal(red)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	if loadErr == nil {
		fmt.Fprintln(out, "\nConfiguration OK.")
	}
	return loadErr
}

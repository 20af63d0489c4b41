package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shinji-kodama/notesync/internal/model"
)

// previewRule frames the dry-run note preview.
var previewRule = strings.Repeat("=", 48)

// printSyncResult outputs a sync result in the format selected by --json.
func printSyncResult(out io.Writer, result *model.SyncResult) error {
	if IsJSONOutput() {
		return printJSON(out, result)
	}
	printSyncResultText(out, result)
	return nil
}

// printJSON writes v as indented JSON followed by a newline.
func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// printSyncResultText writes the human-readable result.
//
// A real run prints one confirmation line:
//
//	[OK] Updated Shopify order A273302 (ID 501) note.
//
// A dry run prints the full note that would have been written, byte for
// byte, between two rule lines. Only the label and rules are styled, and
// styling is dropped automatically when out is not a terminal.
func printSyncResultText(out io.Writer, result *model.SyncResult) {
	r := lipgloss.NewRenderer(out)

	if result.DryRun {
		label := r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")).Render("[DRY RUN]")
		rule := r.NewStyle().Foreground(lipgloss.Color("8")).Render(previewRule)
		fmt.Fprintf(out, "%s Would update order note of %s (ID %d):\n", label, result.OrderName, result.OrderID)
		fmt.Fprintln(out, rule)
		fmt.Fprint(out, result.NewNote)
		if !strings.HasSuffix(result.NewNote, "\n") {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, rule)
		return
	}

	label := r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render("[OK]")
	fmt.Fprintf(out, "%s Updated Shopify order %s (ID %d) note.\n", label, result.OrderName, result.OrderID)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// render writes v as JSON under --json, otherwise calls text with the theme
// of the command's output.
func render(cmd *cobra.Command, v any, text func(w io.Writer, t *ui.Theme) error) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(w, v)
	}
	return text(w, ui.NewTheme(w))
}

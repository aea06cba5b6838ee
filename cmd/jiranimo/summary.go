package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/ui"
)

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Short:   "Show issue counts by status, priority and project",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := dash.Summary(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, s, func(w io.Writer, t *ui.Theme) error {
			return t.WriteSummary(w, *s)
		})
	},
}

var facetsCmd = &cobra.Command{
	Use:     "facets",
	Short:   "Show the priorities, types and labels available to filters",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dash.Facets(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, f, func(w io.Writer, t *ui.Theme) error {
			return t.WriteFacets(w, f)
		})
	},
}

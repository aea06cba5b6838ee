package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/ui"
)

var filterCmd = &cobra.Command{
	Use:     "filter",
	Short:   "Show or change the server's active filter",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := dash.Filter(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, state, func(w io.Writer, t *ui.Theme) error {
			return writeFilter(w, t, state)
		})
	},
}

var filterSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the active filter; the board is re-partitioned",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFilter(cmd, filterFromFlags(cmd))
	},
}

var filterClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the active filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFilter(cmd, model.FilterState{})
	},
}

func setFilter(cmd *cobra.Command, state model.FilterState) error {
	res, err := dash.SetFilter(cmd.Context(), state)
	if err != nil {
		return err
	}
	return render(cmd, res, func(w io.Writer, t *ui.Theme) error {
		if !res.Active {
			_, err := fmt.Fprintf(w, "filter cleared (%d issues)\n", res.Matched)
			return err
		}
		if err := writeFilter(w, t, res.Filter); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%d issues match\n", res.Matched)
		return err
	})
}

func writeFilter(w io.Writer, t *ui.Theme, state model.FilterState) error {
	if !state.IsActive() {
		_, err := fmt.Fprintln(w, t.Muted.Render("no filter"))
		return err
	}
	for _, row := range []struct{ name, value string }{
		{"search", state.Search},
		{"priority", state.Priority},
		{"type", state.Type},
		{"types", strings.Join(state.Types, ", ")},
		{"labels", strings.Join(state.Labels, ", ")},
		{"projects", strings.Join(state.Projects, ", ")},
	} {
		if row.value != "" {
			fmt.Fprintf(w, "%s %s\n", t.Accent.Render(row.name+":"), row.value)
		}
	}
	return nil
}

func init() {
	addFilterFlags(filterSetCmd)
	filterCmd.AddCommand(filterSetCmd)
	filterCmd.AddCommand(filterClearCmd)
}

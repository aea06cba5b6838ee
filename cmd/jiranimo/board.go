package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/ui"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	Short:   "Show the kanban board",
	GroupID: "board",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		width, _ := cmd.Flags().GetInt("width")

		b, err := dash.Board(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, b, func(w io.Writer, t *ui.Theme) error {
			_, err := io.WriteString(w, t.RenderBoard(b.Columns, ui.BoardOptions{
				Width:    width,
				Projects: b.Projects,
				Pending:  b.Pending,
			})+"\n")
			return err
		})
	},
}

func init() {
	boardCmd.Flags().Int("width", 0, "board width in columns (default: terminal width)")
}

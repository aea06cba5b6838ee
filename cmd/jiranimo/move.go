package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/client"
	"github.com/IdanRossman/jiranimo/internal/transition"
	"github.com/IdanRossman/jiranimo/internal/ui"
)

// errMoveReverted is returned after printing a move the tracker refused.
var errMoveReverted = errors.New("move reverted")

// dropFor builds the drop that moves key to index of column to. A negative
// index appends for a cross-column move and is required otherwise.
func dropFor(b *client.BoardView, key, to string, index int) (transition.Drop, error) {
	drop := transition.Drop{To: to, ToIndex: index, FromIndex: -1}
	dstLen := -1
	for _, col := range b.Columns {
		for i, iss := range col.Issues {
			if iss.Key == key {
				drop.From, drop.FromIndex = col.ID, i
			}
		}
		if col.ID == to {
			dstLen = len(col.Issues)
		}
	}
	switch {
	case drop.FromIndex < 0:
		return drop, fmt.Errorf("issue %s is not on the board", key)
	case dstLen < 0:
		return drop, fmt.Errorf("unknown column %q", to)
	}
	if index < 0 {
		if drop.SameColumn() {
			return drop, fmt.Errorf("%s is already in %q; pass --index to reorder", key, to)
		}
		drop.ToIndex = dstLen
	}
	return drop, nil
}

var moveCmd = &cobra.Command{
	Use:     "move <key> <column>",
	Short:   "Drag an issue to a column (changes its status in the tracker)",
	GroupID: "board",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, to := args[0], args[1]
		index, _ := cmd.Flags().GetInt("index")
		noWait, _ := cmd.Flags().GetBool("no-wait")

		b, err := dash.Board(cmd.Context())
		if err != nil {
			return err
		}
		drop, err := dropFor(b, key, to, index)
		if err != nil {
			return err
		}
		res, err := dash.Move(cmd.Context(), drop, !noWait)
		if err != nil {
			return err
		}
		if err := render(cmd, res, func(w io.Writer, t *ui.Theme) error {
			return writeMove(w, t, res)
		}); err != nil {
			return err
		}
		if res.State == transition.StateReverted {
			return errMoveReverted
		}
		return nil
	},
}

func writeMove(w io.Writer, t *ui.Theme, res *client.MoveResult) error {
	var err error
	switch res.State {
	case transition.StateCommitted:
		_, err = fmt.Fprintf(w, "%s %s -> %s: %s\n", res.IssueKey, res.From, res.To,
			t.Done.Render(fmt.Sprintf("status %q", res.Status)))
	case transition.StateReverted:
		_, err = fmt.Fprintf(w, "%s %s -> %s: %s\n", res.IssueKey, res.From, res.To,
			t.Error.Render("reverted: "+res.Error))
	case transition.StatePending:
		_, err = fmt.Fprintf(w, "%s %s -> %s: %s\n", res.IssueKey, res.From, res.To,
			t.Warn.Render(fmt.Sprintf("pending (%s)", res.ID)))
	default:
		_, err = fmt.Fprintf(w, "%s reordered in %s to position %d\n", res.IssueKey, res.To, res.ToIndex)
	}
	return err
}

var reloadCmd = &cobra.Command{
	Use:     "reload",
	Short:   "Refetch issues from the tracker",
	GroupID: "board",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := dash.Reload(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer, t *ui.Theme) error {
			fmt.Fprintf(w, "loaded %d issues", res.Count)
			if res.Rejected > 0 {
				fmt.Fprint(w, t.Warn.Render(fmt.Sprintf(" (%d rejected)", res.Rejected)))
			}
			if res.HasMore {
				fmt.Fprint(w, t.Muted.Render(", more available"))
			}
			_, err := fmt.Fprintln(w)
			return err
		})
	},
}

func init() {
	moveCmd.Flags().Int("index", -1, "position in the destination column (default: bottom)")
	moveCmd.Flags().Bool("no-wait", false, "return as soon as the card moves, without waiting for the tracker")
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/ui"
)

var eventsCmd = &cobra.Command{
	Use:     "events [key]",
	Short:   "Show the transition journal, optionally for one issue",
	GroupID: "board",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		var (
			evts []*model.Event
			err  error
		)
		if len(args) == 1 {
			evts, err = dash.IssueEvents(cmd.Context(), args[0])
		} else {
			evts, err = dash.Events(cmd.Context(), limit)
		}
		if err != nil {
			return err
		}
		return render(cmd, evts, func(w io.Writer, t *ui.Theme) error {
			if len(evts) == 0 {
				_, err := fmt.Fprintln(w, t.Muted.Render("no events"))
				return err
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tISSUE\tTOPIC\tACTOR")
			for _, e := range evts {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.IssueKey, e.Topic, e.Actor)
			}
			return tw.Flush()
		})
	},
}

var attentionCmd = &cobra.Command{
	Use:     "attention",
	Short:   "Show issues flagged for attention and records the server rejected",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := dash.Attention(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, view, func(w io.Writer, t *ui.Theme) error {
			if len(view.Attention) == 0 && len(view.Rejected) == 0 {
				_, err := fmt.Fprintln(w, t.Muted.Render("nothing needs attention"))
				return err
			}
			for _, a := range view.Attention {
				fmt.Fprintf(w, "%s %s\n", t.Warn.Render(a.IssueKey), a.IssueSummary)
				for _, d := range a.Issues {
					fmt.Fprintf(w, "  %s: %s\n", d.Field, d.Message)
				}
			}
			for _, r := range view.Rejected {
				key := r.Key
				if key == "" {
					key = fmt.Sprintf("#%d", r.Index)
				}
				fmt.Fprintf(w, "%s %s\n", t.Error.Render("rejected "+key), r.Error)
			}
			return nil
		})
	},
}

func init() {
	eventsCmd.Flags().Int("limit", 50, "number of most recent events")
}

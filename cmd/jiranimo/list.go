package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/ui"
)

// addFilterFlags registers the filter flags shared by list and filter set.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "s", "", "match key, summary, project or type")
	cmd.Flags().StringP("priority", "p", "", "exact priority name")
	cmd.Flags().StringP("type", "t", "", "exact type name")
	cmd.Flags().StringSlice("types", nil, "type names (any)")
	cmd.Flags().StringSliceP("labels", "l", nil, "labels (any)")
	cmd.Flags().StringSlice("projects", nil, "project keys (any)")
}

func filterFromFlags(cmd *cobra.Command) model.FilterState {
	var state model.FilterState
	state.Search, _ = cmd.Flags().GetString("search")
	state.Priority, _ = cmd.Flags().GetString("priority")
	state.Type, _ = cmd.Flags().GetString("type")
	state.Types, _ = cmd.Flags().GetStringSlice("types")
	state.Labels, _ = cmd.Flags().GetStringSlice("labels")
	state.Projects, _ = cmd.Flags().GetStringSlice("projects")
	return state
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List issues (the server's filtered view unless filter flags are given)",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := dash.Issues(cmd.Context(), filterFromFlags(cmd))
		if err != nil {
			return err
		}
		return render(cmd, resp.Issues, func(w io.Writer, t *ui.Theme) error {
			if err := t.WriteIssueTable(w, resp.Issues, resp.Total); err != nil {
				return err
			}
			if resp.HasMore {
				fmt.Fprintln(w, t.Warn.Render("more issues are available from the tracker"))
			}
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:     "show <key>",
	Short:   "Show an issue",
	GroupID: "views",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issue, err := dash.Issue(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, issue, func(w io.Writer, t *ui.Theme) error {
			return writeIssue(w, t, issue)
		})
	},
}

func writeIssue(w io.Writer, t *ui.Theme, issue *model.Issue) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Key:\t%s\n", t.Header.Render(issue.Key))
	fmt.Fprintf(tw, "Summary:\t%s\n", issue.Summary)
	fmt.Fprintf(tw, "Status:\t%s\n", t.Category(issue.Status.CategoryKey).Render(issue.Status.Name))
	fmt.Fprintf(tw, "Type:\t%s\n", issue.TypeName())
	fmt.Fprintf(tw, "Priority:\t%s\n", issue.PriorityName())
	fmt.Fprintf(tw, "Project:\t%s (%s)\n", issue.ProjectName(), issue.Project.Key)
	if issue.Epic != nil {
		fmt.Fprintf(tw, "Epic:\t%s\n", issue.EpicName())
	}
	if issue.Parent != nil {
		fmt.Fprintf(tw, "Parent:\t%s %s\n", issue.Parent.Key, issue.Parent.Summary)
	}
	if issue.Assignee != nil {
		fmt.Fprintf(tw, "Assignee:\t%s\n", issue.Assignee.DisplayName)
	}
	if len(issue.Labels) > 0 {
		fmt.Fprintf(tw, "Labels:\t%s\n", strings.Join(issue.Labels, ", "))
	}
	if !issue.Updated.IsZero() {
		fmt.Fprintf(tw, "Updated:\t%s\n", issue.Updated.Format("2006-01-02 15:04:05"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if text := issue.Description.PlainText(); text != "" {
		fmt.Fprintf(w, "\n%s\n", text)
	}
	return nil
}

func init() {
	addFilterFlags(listCmd)
}

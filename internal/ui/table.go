package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/IdanRossman/jiranimo/internal/filter"
	"github.com/IdanRossman/jiranimo/internal/group"
	"github.com/IdanRossman/jiranimo/internal/model"
)

// Section is one titled block of grouped issues, such as an epic with its
// issues grouped by type.
type Section struct {
	Key    string
	Groups []*group.Group
}

// WriteIssueTable writes issues as an aligned table followed by a count.
func (t *Theme) WriteIssueTable(w io.Writer, issues []*model.Issue, total int) error {
	if err := writeIssueRows(w, issues, ""); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d issues (%d total)\n", len(issues), total)
	return err
}

func writeIssueRows(w io.Writer, issues []*model.Issue, indent string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sKEY\tSTATUS\tTYPE\tPRIORITY\tPROJECT\tSUMMARY\n", indent)
	for _, iss := range issues {
		summary := iss.Summary
		if len(summary) > 50 {
			summary = summary[:47] + "..."
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t%s\n",
			indent,
			iss.Key,
			iss.Status.Name,
			iss.TypeName(),
			iss.PriorityName(),
			iss.Project.Key,
			summary,
		)
	}
	return tw.Flush()
}

// WriteGroups writes one table per group under a "key (count)" heading.
func (t *Theme) WriteGroups(w io.Writer, groups []*group.Group) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, t.Muted.Render("no issues"))
		return err
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, t.Header.Render(fmt.Sprintf("%s (%d)", g.Key, g.Count())))
		if err := writeIssueRows(w, g.Issues, "  "); err != nil {
			return err
		}
	}
	return nil
}

// WriteSections writes two-level groupings: each section heading, then its
// groups indented beneath it.
func (t *Theme) WriteSections(w io.Writer, sections []Section) error {
	if len(sections) == 0 {
		_, err := fmt.Fprintln(w, t.Muted.Render("no issues"))
		return err
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		n := 0
		for _, g := range s.Groups {
			n += g.Count()
		}
		fmt.Fprintln(w, t.Header.Render(fmt.Sprintf("%s (%d)", s.Key, n)))
		for _, g := range s.Groups {
			fmt.Fprintln(w, "  "+t.Accent.Render(fmt.Sprintf("%s (%d)", g.Key, g.Count())))
			if err := writeIssueRows(w, g.Issues, "    "); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteSummary writes the issue totals by status, priority and project.
func (t *Theme) WriteSummary(w io.Writer, s group.Summary) error {
	fmt.Fprintf(w, "%s %d\n", t.Header.Render("Total:"), s.Total)
	for _, sec := range []struct {
		title  string
		counts []group.Count
	}{
		{"By status", s.ByStatus},
		{"By priority", s.ByPriority},
		{"By project", s.ByProject},
	} {
		fmt.Fprintln(w)
		fmt.Fprintln(w, t.Header.Render(sec.title))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, c := range sec.counts {
			fmt.Fprintf(tw, "  %s\t%d\n", c.Key, c.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// WriteFacets writes the available filter options.
func (t *Theme) WriteFacets(w io.Writer, f filter.Facets) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range []struct {
		name   string
		values []string
	}{
		{"Priorities:", f.Priorities},
		{"Types:", f.Types},
		{"Labels:", f.Labels},
	} {
		values := strings.Join(row.values, ", ")
		if values == "" {
			values = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", row.name, values)
	}
	return tw.Flush()
}

package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/IdanRossman/jiranimo/internal/kanban"
	"github.com/IdanRossman/jiranimo/internal/model"
)

const (
	minColumnWidth = 24
	pendingMarker  = "~"
)

// BoardOptions controls RenderBoard.
type BoardOptions struct {
	Width    int                  // total width; zero uses TerminalWidth
	Projects []kanban.ProjectChip // chip colors and the legend
	Pending  []string             // issue keys with a status update in flight
}

// RenderBoard lays the columns out side by side. Each card shows the issue
// key in its project color, the priority and the truncated summary. Cards
// with a pending transition carry a marker.
func (t *Theme) RenderBoard(columns []*kanban.Column, opts BoardOptions) string {
	if len(columns) == 0 {
		return t.Muted.Render("no columns")
	}
	width := opts.Width
	if width <= 0 {
		width = TerminalWidth()
	}
	// Two border cells per column.
	colWidth := max(minColumnWidth, width/len(columns)-2)
	inner := colWidth - 2

	colors := make(map[string]string, len(opts.Projects))
	for _, p := range opts.Projects {
		colors[p.Key] = p.Color
	}

	boxes := make([]string, 0, len(columns))
	for _, col := range columns {
		var b strings.Builder
		b.WriteString(t.Header.Render(truncate(fmt.Sprintf("%s (%d)", col.Title, len(col.Issues)), inner)))
		if len(col.Issues) == 0 {
			b.WriteString("\n\n")
			b.WriteString(t.Muted.Render("(empty)"))
		}
		for _, iss := range col.Issues {
			b.WriteString("\n\n")
			b.WriteString(t.card(iss, colors[iss.Project.Key], slices.Contains(opts.Pending, iss.Key), inner))
		}
		boxes = append(boxes, t.Column.Width(colWidth).Render(b.String()))
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
	if legend := t.legend(opts.Projects); legend != "" {
		out += "\n" + legend
	}
	return out
}

func (t *Theme) card(iss *model.Issue, color string, pending bool, width int) string {
	head := t.Chip(color).Render(iss.Key)
	if iss.Priority != nil {
		head += " " + t.Muted.Render(iss.Priority.Name)
	}
	if pending {
		head += " " + t.Warn.Render(pendingMarker)
	}
	return head + "\n" + truncate(iss.Summary, width)
}

func (t *Theme) legend(projects []kanban.ProjectChip) string {
	parts := make([]string, 0, len(projects))
	for _, p := range projects {
		parts = append(parts, t.Chip(p.Color).Render("■ "+p.Key)+" "+fmt.Sprintf("%s (%d)", p.Name, p.Count))
	}
	return strings.Join(parts, "   ")
}

// truncate shortens s to n display runes, ending with "…" when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/IdanRossman/jiranimo/internal/filter"
	"github.com/IdanRossman/jiranimo/internal/group"
	"github.com/IdanRossman/jiranimo/internal/kanban"
	"github.com/IdanRossman/jiranimo/internal/model"
)

func issue(key, project, status, priority, summary string) *model.Issue {
	iss := &model.Issue{
		Key:     key,
		Summary: summary,
		Project: model.Project{Key: project, Name: project + " Project"},
		Type:    model.IssueType{Name: "Task"},
		Status:  model.Status{Name: status},
	}
	if priority != "" {
		iss.Priority = &model.Priority{Name: priority}
	}
	return iss
}

func testColumns() []*kanban.Column {
	defs := kanban.DefaultColumns()
	return []*kanban.Column{
		{ColumnDef: defs[0], Issues: []*model.Issue{
			issue("DP-1", "DP", "To Do", "High", "Fix login redirect"),
			issue("DP-2", "DP", "To Do", "", "Write the quarterly migration plan for the billing service"),
		}},
		{ColumnDef: defs[1], Issues: []*model.Issue{issue("OPS-7", "OPS", "In Progress", "Low", "Rotate certs")}},
		{ColumnDef: defs[2]},
	}
}

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 5, "trun…"},
		{"héllo wörld", 6, "héllo…"},
		{"x", 0, ""},
		{"xy", 1, "…"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			if got := truncate(tc.in, tc.n); got != tc.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
			}
		})
	}
}

func TestRenderBoard(t *testing.T) {
	th := NewTheme(&bytes.Buffer{})
	out := th.RenderBoard(testColumns(), BoardOptions{
		Width:    90,
		Projects: []kanban.ProjectChip{{Key: "DP", Name: "DP Project", Color: "#667eea", Count: 2}},
		Pending:  []string{"OPS-7"},
	})

	for _, want := range []string{"TO DO (2)", "IN PROGRESS (1)", "IN REVIEW (0)", "DP-1 High", "OPS-7 Low ~", "(empty)", "■ DP DP Project (2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("board missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "billing service") {
		t.Errorf("long summary should be truncated:\n%s", out)
	}
	// Three columns of minimum width side by side.
	if w := lipgloss.Width(out); w < 3*minColumnWidth {
		t.Errorf("board width = %d", w)
	}
}

func TestRenderBoard_NoColumns(t *testing.T) {
	th := NewTheme(&bytes.Buffer{})
	if out := th.RenderBoard(nil, BoardOptions{Width: 80}); out != "no columns" {
		t.Errorf("got %q", out)
	}
}

func TestWriteIssueTable(t *testing.T) {
	var buf bytes.Buffer
	th := NewTheme(&buf)
	issues := testColumns()[0].Issues
	if err := th.WriteIssueTable(&buf, issues, 5); err != nil {
		t.Fatalf("WriteIssueTable: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[0], "KEY") || !strings.Contains(lines[0], "SUMMARY") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], model.NoPriority) || !strings.HasSuffix(lines[2], "...") {
		t.Errorf("row = %q", lines[2])
	}
	if !strings.Contains(out, "2 issues (5 total)") {
		t.Errorf("missing footer:\n%s", out)
	}
}

func TestWriteGroups(t *testing.T) {
	var buf bytes.Buffer
	th := NewTheme(&buf)
	view, err := group.By(testColumns()[0].Issues, group.Priority)
	if err != nil {
		t.Fatal(err)
	}
	if err := th.WriteGroups(&buf, view.Groups()); err != nil {
		t.Fatalf("WriteGroups: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"High (1)", model.NoPriority + " (1)", "  DP-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	_ = th.WriteGroups(&buf, nil)
	if strings.TrimSpace(buf.String()) != "no issues" {
		t.Errorf("empty groups = %q", buf.String())
	}
}

func TestWriteSections(t *testing.T) {
	var buf bytes.Buffer
	th := NewTheme(&buf)
	byType, _ := group.By(testColumns()[0].Issues, group.Status)
	if err := th.WriteSections(&buf, []Section{{Key: model.NoEpic, Groups: byType.Groups()}}); err != nil {
		t.Fatalf("WriteSections: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, model.NoEpic+" (2)") || !strings.Contains(out, "  To Do (2)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestWriteSummaryAndFacets(t *testing.T) {
	var buf bytes.Buffer
	th := NewTheme(&buf)
	var issues []*model.Issue
	for _, c := range testColumns() {
		issues = append(issues, c.Issues...)
	}
	if err := th.WriteSummary(&buf, group.Summarize(issues)); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Total: 3", "By status", "By project", "  DP Project"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := th.WriteFacets(&buf, filter.ExtractFacets(issues)); err != nil {
		t.Fatalf("WriteFacets: %v", err)
	}
	out = buf.String()
	if !strings.Contains(out, "High, Low") || !strings.Contains(out, "Labels:") {
		t.Errorf("facets:\n%s", out)
	}
}

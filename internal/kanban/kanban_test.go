package kanban

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/IdanRossman/jiranimo/internal/model"
)

func issue(key, status string, cat model.CategoryKey) *model.Issue {
	return &model.Issue{
		ID:      key,
		Key:     key,
		Project: model.Project{Key: model.ProjectKeyFromIssueKey(key)},
		Status:  model.Status{Name: status, CategoryKey: cat},
	}
}

func columnKeys(c *Column) []string {
	out := make([]string, len(c.Issues))
	for i, is := range c.Issues {
		out[i] = is.Key
	}
	return out
}

func newDefaultBoard(t *testing.T) *Board {
	t.Helper()
	b, err := NewBoard(DefaultColumns())
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return b
}

func mustColumn(t *testing.T, b *Board, id string) *Column {
	t.Helper()
	c, err := b.Column(id)
	if err != nil {
		t.Fatalf("Column(%q): %v", id, err)
	}
	return c
}

func sample() []*model.Issue {
	return []*model.Issue{
		issue("DP-1", "To Do", model.CategoryNew),
		issue("DP-2", "In Progress", model.CategoryIndeterminate),
		issue("DP-3", "Done", model.CategoryDone),
		issue("DP-4", "Blocked", model.CategoryNew),
		issue("DP-5", "In Development", model.CategoryIndeterminate),
		issue("DP-6", "Code Review", model.CategoryIndeterminate),
		issue("DP-7", "Open", model.CategoryNew),
		issue("DP-8", "QA Testing", model.CategoryNew),
	}
}

func TestValidateColumns(t *testing.T) {
	for _, tc := range []struct {
		name string
		defs []ColumnDef
	}{
		{"Empty", nil},
		{"BlankID", []ColumnDef{{ID: " ", Aliases: []string{"x"}}}},
		{"DuplicateID", []ColumnDef{{ID: "a", Aliases: []string{"x"}}, {ID: "a", Aliases: []string{"y"}}}},
		{"NoAliases", []ColumnDef{{ID: "a"}}},
		{"BlankAliases", []ColumnDef{{ID: "a", Aliases: []string{"", "  "}}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewBoard(tc.defs); !errors.Is(err, ErrInvalidColumns) {
				t.Errorf("expected ErrInvalidColumns, got %v", err)
			}
		})
	}
}

func TestPartition(t *testing.T) {
	b := newDefaultBoard(t)
	b.Partition(sample())

	for _, tc := range []struct {
		column string
		want   []string
	}{
		{"todo", []string{"DP-1", "DP-4", "DP-7"}},
		{"in-progress", []string{"DP-2", "DP-5"}},
		{"in-review", []string{"DP-6", "DP-8"}},
		{"done", []string{}},
	} {
		t.Run(tc.column, func(t *testing.T) {
			if got := columnKeys(mustColumn(t, b, tc.column)); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("column %s = %v, want %v", tc.column, got, tc.want)
			}
		})
	}
}

func TestPartition_Coverage(t *testing.T) {
	issues := sample()
	b := newDefaultBoard(t)
	b.Partition(issues)

	seen := map[string]int{}
	for _, c := range b.Columns() {
		for _, is := range c.Issues {
			seen[is.Key]++
		}
	}
	for _, is := range issues {
		if is.IsDone() {
			seen[is.Key]++
		}
	}
	if len(seen) != len(issues) {
		t.Fatalf("covered %d issues, want %d", len(seen), len(issues))
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("issue %s placed %d times", k, n)
		}
	}
}

func TestPartition_Idempotent(t *testing.T) {
	b := newDefaultBoard(t)
	b.Partition(sample())
	first, _ := json.Marshal(b)
	b.Partition(sample())
	second, _ := json.Marshal(b)
	if string(first) != string(second) {
		t.Error("repartitioning with the same input changed membership")
	}
}

func TestMatchColumn(t *testing.T) {
	defs := DefaultColumns()
	for _, tc := range []struct {
		status string
		cat    model.CategoryKey
		want   int
	}{
		{"to do", model.CategoryNew, 0},
		{"BACKLOG", model.CategoryNew, 0},
		{"In Progress", model.CategoryIndeterminate, 1},
		{"Code Review", model.CategoryIndeterminate, 2},
		{"Waiting", model.CategoryNew, 0},
		{"Closed", model.CategoryDone, -1},
	} {
		t.Run(tc.status, func(t *testing.T) {
			if got := MatchColumn(defs, issue("X-1", tc.status, tc.cat)); got != tc.want {
				t.Errorf("MatchColumn(%q) = %d, want %d", tc.status, got, tc.want)
			}
		})
	}
}

func TestPrimaryStatus(t *testing.T) {
	if got := DefaultColumns()[3].PrimaryStatus(); got != "Done" {
		t.Errorf("PrimaryStatus() = %q, want Done", got)
	}
	if got := (ColumnDef{Aliases: []string{"", "Shipped"}}).PrimaryStatus(); got != "Shipped" {
		t.Errorf("PrimaryStatus() = %q, want Shipped", got)
	}
}

func TestReorder(t *testing.T) {
	b := newDefaultBoard(t)
	b.Partition(sample())
	if err := b.Reorder("todo", 0, 2); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := columnKeys(mustColumn(t, b, "todo")); !reflect.DeepEqual(got, []string{"DP-4", "DP-7", "DP-1"}) {
		t.Errorf("todo = %v", got)
	}
	if err := b.Reorder("todo", 0, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := b.Reorder("nope", 0, 0); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestTransferAndBack(t *testing.T) {
	b := newDefaultBoard(t)
	b.Partition(sample())

	moved, err := b.Transfer("in-review", 0, "done", 0)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if moved.Key != "DP-6" {
		t.Fatalf("moved %s, want DP-6", moved.Key)
	}
	col, idx, ok := b.Locate("DP-6")
	if !ok || col != "done" || idx != 0 {
		t.Fatalf("Locate = %s/%d/%v", col, idx, ok)
	}

	removed, err := b.Remove("done", 0)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := b.Insert("in-review", 0, removed); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := columnKeys(mustColumn(t, b, "in-review")); !reflect.DeepEqual(got, []string{"DP-6", "DP-8"}) {
		t.Errorf("in-review = %v", got)
	}
}

func TestTransfer_InvalidLeavesBoardUnchanged(t *testing.T) {
	b := newDefaultBoard(t)
	b.Partition(sample())
	before, _ := json.Marshal(b)

	for _, tc := range []struct {
		name    string
		from    string
		fromIdx int
		to      string
		toIdx   int
		want    error
	}{
		{"UnknownSource", "nope", 0, "done", 0, ErrUnknownColumn},
		{"UnknownDest", "todo", 0, "nope", 0, ErrUnknownColumn},
		{"SourceIndex", "todo", 9, "done", 0, ErrIndexOutOfRange},
		{"DestIndex", "todo", 0, "done", 5, ErrIndexOutOfRange},
		{"Negative", "todo", -1, "done", 0, ErrIndexOutOfRange},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := b.Transfer(tc.from, tc.fromIdx, tc.to, tc.toIdx); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
	after, _ := json.Marshal(b)
	if string(before) != string(after) {
		t.Error("failed transfers mutated the board")
	}
}

func TestInsertClamps(t *testing.T) {
	b := newDefaultBoard(t)
	x := issue("X-1", "To Do", model.CategoryNew)
	if err := b.Insert("todo", 42, x); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if mustColumn(t, b, "todo").Count() != 1 {
		t.Error("expected one issue after clamped insert")
	}
}

func TestClone(t *testing.T) {
	b := newDefaultBoard(t)
	b.Partition(sample())
	snap := b.Clone()
	if _, err := b.Transfer("todo", 0, "done", 0); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := columnKeys(mustColumn(t, snap, "todo")); len(got) != 3 {
		t.Errorf("clone changed with original: %v", got)
	}
	if snap.Count() != 7 || b.Count() != 7 {
		t.Errorf("counts = %d/%d, want 7/7", snap.Count(), b.Count())
	}
}

func TestParseColumns(t *testing.T) {
	tomlData := []byte(`
[[column]]
id = "backlog"
aliases = ["Backlog", "To Do"]

[[column]]
id = "doing"
title = "Doing"
aliases = ["Progress"]
`)
	yamlData := []byte(`
column:
  - id: backlog
    aliases: [Backlog, To Do]
  - id: doing
    title: Doing
    aliases: [Progress]
`)
	for _, tc := range []struct {
		format string
		data   []byte
	}{
		{".toml", tomlData},
		{"yaml", yamlData},
	} {
		t.Run(tc.format, func(t *testing.T) {
			defs, err := ParseColumns(tc.data, tc.format)
			if err != nil {
				t.Fatalf("ParseColumns: %v", err)
			}
			if len(defs) != 2 || defs[0].ID != "backlog" || defs[1].Title != "Doing" {
				t.Fatalf("unexpected defs: %+v", defs)
			}
			if defs[0].Title != "BACKLOG" {
				t.Errorf("default title = %q, want BACKLOG", defs[0].Title)
			}
		})
	}

	if _, err := ParseColumns([]byte(`{}`), "json"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := ParseColumns([]byte("[[column]]\nid = \"a\"\n"), "toml"); !errors.Is(err, ErrInvalidColumns) {
		t.Errorf("expected ErrInvalidColumns, got %v", err)
	}
}

func TestLoadColumns(t *testing.T) {
	defs, err := LoadColumns("")
	if err != nil || len(defs) != 4 {
		t.Fatalf("LoadColumns(\"\") = %d defs, %v", len(defs), err)
	}

	path := filepath.Join(t.TempDir(), "columns.yml")
	if err := os.WriteFile(path, []byte("column:\n  - id: only\n    aliases: [Open]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	defs, err = LoadColumns(path)
	if err != nil {
		t.Fatalf("LoadColumns: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "only" {
		t.Errorf("unexpected defs: %+v", defs)
	}

	if _, err := LoadColumns(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProjects(t *testing.T) {
	var issues []*model.Issue
	for _, key := range []string{"A-1", "B-1", "A-2", "C-1", "D-1", "E-1", "F-1", "G-1", "H-1", "I-1", "J-1", "K-1"} {
		issues = append(issues, issue(key, "To Do", model.CategoryNew))
	}
	chips := Projects(issues)
	if len(chips) != 11 {
		t.Fatalf("got %d chips, want 11", len(chips))
	}
	if chips[0].Key != "A" || chips[0].Count != 2 || chips[0].Color != "#667eea" {
		t.Errorf("first chip = %+v", chips[0])
	}
	if chips[10].Color != Palette[0] {
		t.Errorf("11th chip color = %s, want palette to cycle", chips[10].Color)
	}
	if chips[0].Name != model.NoProject {
		t.Errorf("unnamed project should render as %q", model.NoProject)
	}
}

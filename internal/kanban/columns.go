// Package kanban partitions issues into workflow columns by fuzzy status
// matching and provides the primitive moves the board supports.
package kanban

import (
	"errors"
	"fmt"
	"strings"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// ColumnDef describes a board column. Aliases are matched case-insensitively
// as substrings of an issue's status name; the first alias is the status an
// issue receives when dropped into the column.
type ColumnDef struct {
	ID      string   `json:"id" toml:"id" yaml:"id"`
	Title   string   `json:"title" toml:"title" yaml:"title"`
	Aliases []string `json:"aliases" toml:"aliases" yaml:"aliases"`
}

// PrimaryStatus returns the status name a dropped issue is moved to.
func (d ColumnDef) PrimaryStatus() string {
	for _, a := range d.Aliases {
		if strings.TrimSpace(a) != "" {
			return a
		}
	}
	return ""
}

// Matches reports whether status contains any of the column's aliases.
func (d ColumnDef) Matches(status string) bool {
	lower := strings.ToLower(status)
	for _, a := range d.Aliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" && strings.Contains(lower, a) {
			return true
		}
	}
	return false
}

// DefaultColumns returns the standard four-column workflow.
func DefaultColumns() []ColumnDef {
	return []ColumnDef{
		{ID: "todo", Title: "TO DO", Aliases: []string{"To Do", "Open", "Backlog"}},
		{ID: "in-progress", Title: "IN PROGRESS", Aliases: []string{"In Progress", "In Development"}},
		{ID: "in-review", Title: "IN REVIEW", Aliases: []string{"In Review", "Code Review", "Testing"}},
		{ID: "done", Title: "DONE", Aliases: []string{"Done", "Resolved", "Closed"}},
	}
}

// ErrInvalidColumns is wrapped by ValidateColumns failures.
var ErrInvalidColumns = errors.New("invalid column definitions")

// ValidateColumns checks that defs is non-empty, that IDs are non-empty and
// unique, and that every column has at least one non-empty alias.
func ValidateColumns(defs []ColumnDef) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: at least one column is required", ErrInvalidColumns)
	}
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return fmt.Errorf("%w: column %d has no id", ErrInvalidColumns, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate column id %q", ErrInvalidColumns, id)
		}
		seen[id] = true
		if d.PrimaryStatus() == "" {
			return fmt.Errorf("%w: column %q has no aliases", ErrInvalidColumns, id)
		}
	}
	return nil
}

// MatchColumn returns the index of the column issue belongs to: the first
// column with an alias contained in the status name, or 0 when none match.
// Done issues are not placed and yield -1.
func MatchColumn(defs []ColumnDef, issue *model.Issue) int {
	if issue.IsDone() {
		return -1
	}
	for i, d := range defs {
		if d.Matches(issue.Status.Name) {
			return i
		}
	}
	return 0
}

package model

import "strings"

// FilterState holds the active dashboard filters. Every set field narrows the
// result; an issue must satisfy all of them.
type FilterState struct {
	Search   string   `json:"search,omitempty"`   // substring of key, summary, project name or type name
	Priority string   `json:"priority,omitempty"` // exact priority name
	Type     string   `json:"type,omitempty"`     // exact type name (single select)
	Types    []string `json:"types,omitempty"`    // type names (multi select)
	Labels   []string `json:"labels,omitempty"`   // at least one must match
	Projects []string `json:"projects,omitempty"` // project keys
}

// IsActive reports whether any filter is set.
func (f FilterState) IsActive() bool {
	return strings.TrimSpace(f.Search) != "" ||
		f.Priority != "" ||
		f.Type != "" ||
		len(f.Types) > 0 ||
		len(f.Labels) > 0 ||
		len(f.Projects) > 0
}

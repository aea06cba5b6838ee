package model

import (
	"strings"
	"time"
)

// CategoryKey is the workflow category derived from a free-text status name.
type CategoryKey string

const (
	CategoryNew           CategoryKey = "new"
	CategoryIndeterminate CategoryKey = "indeterminate"
	CategoryDone          CategoryKey = "done"
)

// String returns the string representation of the category key.
func (c CategoryKey) String() string {
	return string(c)
}

// IsValid checks whether the category key is a known value.
func (c CategoryKey) IsValid() bool {
	switch c {
	case CategoryNew, CategoryIndeterminate, CategoryDone:
		return true
	}
	return false
}

// Sentinel group keys used when an optional reference is absent.
const (
	NoEpic      = "No Epic"
	NoPriority  = "No Priority"
	NoProject   = "No Project"
	NoStatus    = "No Status"
	UnknownType = "Unknown"
)

// Status is the current workflow state of an issue. Category, CategoryKey and
// ColorName are derived from Name and must not be set independently.
type Status struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	CategoryKey CategoryKey `json:"category_key"`
	ColorName   string      `json:"color_name"`
}

// Project identifies the project an issue belongs to.
type Project struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// IssueType is the tracker-defined type of an issue (Bug, Story, Task, ...).
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// Priority is the tracker-defined priority of an issue.
type Priority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is an assignee or reporter.
type User struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Active      bool   `json:"active"`
}

// Parent is the issue one level above in the tracker hierarchy.
type Parent struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// Epic groups issues under a common parent.
// Done and Total cannot be computed from a flat payload and stay zero.
type Epic struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
}

// Issue is the canonical work-item record.
//
// Project, Type, Status and Reporter are always present. Every pointer field
// may be nil; consumers render a nil reference through the sentinel keys
// (NoEpic, NoPriority) rather than treating it as an error.
type Issue struct {
	ID           string         `json:"id"`
	Key          string         `json:"key"`
	Summary      string         `json:"summary"`
	Description  *Document      `json:"description"`
	Project      Project        `json:"project"`
	Type         IssueType      `json:"type"`
	Status       Status         `json:"status"`
	Priority     *Priority      `json:"priority"`
	Assignee     *User          `json:"assignee"`
	Reporter     User           `json:"reporter"`
	Epic         *Epic          `json:"epic"`
	Parent       *Parent        `json:"parent"`
	Labels       []string       `json:"labels"`
	Created      time.Time      `json:"created"`
	Updated      time.Time      `json:"updated"`
	CustomFields map[string]any `json:"custom_fields"`
}

// PriorityName returns the priority name or NoPriority when unset.
func (i *Issue) PriorityName() string {
	if i.Priority == nil || i.Priority.Name == "" {
		return NoPriority
	}
	return i.Priority.Name
}

// EpicName returns the epic name or NoEpic when the issue has no epic.
func (i *Issue) EpicName() string {
	if i.Epic == nil {
		return NoEpic
	}
	return i.Epic.Name
}

// TypeName returns the issue type name or UnknownType when blank.
func (i *Issue) TypeName() string {
	if i.Type.Name == "" {
		return UnknownType
	}
	return i.Type.Name
}

// ProjectName returns the project name or NoProject when blank.
func (i *Issue) ProjectName() string {
	if i.Project.Name == "" {
		return NoProject
	}
	return i.Project.Name
}

// IsDone reports whether the issue's status falls in the done category.
func (i *Issue) IsDone() bool {
	return i.Status.CategoryKey == CategoryDone
}

// HasLabel reports whether the issue carries the given label.
func (i *Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// ProjectKeyFromIssueKey returns the part of an issue key before the first
// hyphen ("DP-6" -> "DP"). A key without a hyphen is returned unchanged.
func ProjectKeyFromIssueKey(key string) string {
	prefix, _, _ := strings.Cut(key, "-")
	return prefix
}

// AttentionItem is a validation note the tracker attaches to an issue it could
// not fully validate.
type AttentionItem struct {
	IssueKey     string            `json:"issueKey"`
	IssueSummary string            `json:"issueSummary"`
	IsValid      bool              `json:"isValid"`
	Issues       []AttentionDetail `json:"issues"`
}

// AttentionDetail is a single field-level note inside an AttentionItem.
type AttentionDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

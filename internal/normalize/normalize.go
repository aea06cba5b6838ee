package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// Status category labels and color classes.
const (
	CategoryLabelToDo       = "To Do"
	CategoryLabelInProgress = "In Progress"
	CategoryLabelDone       = "Done"

	ColorBlueGray = "blue-gray"
	ColorYellow   = "yellow"
	ColorGreen    = "green"
)

var (
	doneMarkers       = []string{"done", "closed", "resolved"}
	inProgressMarkers = []string{"progress", "development", "review"}
)

// timeLayouts are tried in order when parsing tracker timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

// CategoryKeyFor derives the workflow category from a status name.
// "done", "closed" or "resolved" anywhere in the name wins over
// "progress", "development" or "review"; anything else is new.
func CategoryKeyFor(statusName string) model.CategoryKey {
	lower := strings.ToLower(statusName)
	if containsAny(lower, doneMarkers) {
		return model.CategoryDone
	}
	if containsAny(lower, inProgressMarkers) {
		return model.CategoryIndeterminate
	}
	return model.CategoryNew
}

// CategorizeStatus builds a Status whose category, label and color are all
// derived from name.
func CategorizeStatus(name string) model.Status {
	st := model.Status{Name: name, CategoryKey: CategoryKeyFor(name)}
	switch st.CategoryKey {
	case model.CategoryDone:
		st.Category, st.ColorName = CategoryLabelDone, ColorGreen
	case model.CategoryIndeterminate:
		st.Category, st.ColorName = CategoryLabelInProgress, ColorYellow
	default:
		st.Category, st.ColorName = CategoryLabelToDo, ColorBlueGray
	}
	return st
}

// SetStatus renames the issue's status and re-derives its category.
func SetStatus(issue *model.Issue, name string) {
	id := issue.Status.ID
	issue.Status = CategorizeStatus(name)
	issue.Status.ID = id
}

// Normalize maps a raw record onto the canonical Issue shape.
//
// A missing id or key is a *model.ValidationError. Every other gap degrades
// to nil or a default: absent references become nil, unparseable timestamps
// become the zero time, and an undecodable description becomes nil.
func Normalize(raw *RawIssue) (*model.Issue, error) {
	issue := &model.Issue{
		ID:      raw.ID.String(),
		Key:     strings.TrimSpace(raw.Key),
		Summary: raw.Summary,
	}
	if err := model.ValidateIssue(issue); err != nil {
		return nil, err
	}

	// The flat payload carries no ids for nested references; the issue id
	// stands in for them.
	id := issue.ID

	projectKey := strings.TrimSpace(raw.ProjectKey)
	if projectKey == "" {
		projectKey = model.ProjectKeyFromIssueKey(issue.Key)
	}
	issue.Project = model.Project{
		ID:        id,
		Key:       projectKey,
		Name:      raw.ProjectName,
		AvatarURL: raw.ProjectAvatar,
	}

	issue.Type = model.IssueType{
		ID:      id,
		Name:    raw.TypeName,
		Subtask: strings.Contains(strings.ToLower(raw.TypeName), "subtask"),
	}

	issue.Status = CategorizeStatus(raw.StatusName)
	issue.Status.ID = id

	issue.Reporter = model.User{
		AccountID:   id,
		DisplayName: raw.ReporterName,
		AvatarURL:   raw.ReporterAvatar,
		Active:      true,
	}
	if raw.AssigneeName != "" {
		issue.Assignee = &model.User{
			AccountID:   id,
			DisplayName: raw.AssigneeName,
			AvatarURL:   raw.AssigneeAvatar,
			Active:      true,
		}
	}
	if raw.PriorityName != "" {
		issue.Priority = &model.Priority{ID: id, Name: raw.PriorityName}
	}
	if raw.ParentKey != "" {
		issue.Parent = &model.Parent{ID: id, Key: raw.ParentKey, Summary: raw.ParentName}
		issue.Epic = &model.Epic{
			ID:      id,
			Key:     raw.ParentKey,
			Name:    raw.ParentName,
			Summary: raw.ParentName,
		}
	}

	issue.Description = decodeDescription(raw.Description)

	issue.Labels = raw.Labels
	if issue.Labels == nil {
		issue.Labels = []string{}
	}
	issue.CustomFields = raw.CustomFields
	if issue.CustomFields == nil {
		issue.CustomFields = map[string]any{}
	}

	issue.Created = parseTime(raw.CreatedDate)
	issue.Updated = parseTime(raw.ModifiedDate)

	return issue, nil
}

// Decode unmarshals a single raw JSON record and normalizes it.
func Decode(data []byte) (*model.Issue, error) {
	var raw RawIssue
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode issue: %w", err)
	}
	return Normalize(&raw)
}

// decodeDescription accepts a structured document, a plain string, or null.
func decodeDescription(data json.RawMessage) *model.Document {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil || text == "" {
			return nil
		}
		return &model.Document{
			Type:    "doc",
			Version: 1,
			Content: []model.DocNode{{
				Type:    "paragraph",
				Content: []model.DocNode{{Type: "text", Text: text}},
			}},
		}
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return &doc
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

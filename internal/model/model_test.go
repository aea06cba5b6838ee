package model

import "testing"

func TestCategoryKey_IsValid(t *testing.T) {
	for _, tc := range []struct {
		key  CategoryKey
		want bool
	}{
		{CategoryNew, true},
		{CategoryIndeterminate, true},
		{CategoryDone, true},
		{CategoryKey(""), false},
		{CategoryKey("blocked"), false},
	} {
		if got := tc.key.IsValid(); got != tc.want {
			t.Errorf("CategoryKey(%q).IsValid() = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestIssue_SentinelNames(t *testing.T) {
	var i Issue
	if got := i.PriorityName(); got != NoPriority {
		t.Errorf("PriorityName() = %q, want %q", got, NoPriority)
	}
	if got := i.EpicName(); got != NoEpic {
		t.Errorf("EpicName() = %q, want %q", got, NoEpic)
	}
	if got := i.TypeName(); got != UnknownType {
		t.Errorf("TypeName() = %q, want %q", got, UnknownType)
	}
	if got := i.ProjectName(); got != NoProject {
		t.Errorf("ProjectName() = %q, want %q", got, NoProject)
	}

	i.Priority = &Priority{Name: "High"}
	i.Epic = &Epic{Name: "Platform"}
	i.Type.Name = "Bug"
	i.Project.Name = "Data Platform"
	if got := i.PriorityName(); got != "High" {
		t.Errorf("PriorityName() = %q, want %q", got, "High")
	}
	if got := i.EpicName(); got != "Platform" {
		t.Errorf("EpicName() = %q, want %q", got, "Platform")
	}
	if got := i.TypeName(); got != "Bug" {
		t.Errorf("TypeName() = %q, want %q", got, "Bug")
	}
	if got := i.ProjectName(); got != "Data Platform" {
		t.Errorf("ProjectName() = %q, want %q", got, "Data Platform")
	}
}

func TestIssue_EmptyEpicNameIsKept(t *testing.T) {
	// An epic with a blank name is still an epic; only a nil epic is "No Epic".
	i := Issue{Epic: &Epic{Key: "DP-1"}}
	if got := i.EpicName(); got != "" {
		t.Errorf("EpicName() = %q, want empty", got)
	}
}

func TestIssue_HasLabel(t *testing.T) {
	i := Issue{Labels: []string{"backend", "active-sprint"}}
	if !i.HasLabel("backend") {
		t.Error("expected HasLabel(backend)")
	}
	if i.HasLabel("frontend") {
		t.Error("unexpected HasLabel(frontend)")
	}
}

func TestProjectKeyFromIssueKey(t *testing.T) {
	for _, tc := range []struct {
		key  string
		want string
	}{
		{"DP-6", "DP"},
		{"PLAT-123", "PLAT"},
		{"A-B-7", "A"},
		{"NOHYPHEN", "NOHYPHEN"},
		{"", ""},
	} {
		if got := ProjectKeyFromIssueKey(tc.key); got != tc.want {
			t.Errorf("ProjectKeyFromIssueKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestFilterState_IsActive(t *testing.T) {
	for _, tc := range []struct {
		name  string
		state FilterState
		want  bool
	}{
		{"Empty", FilterState{}, false},
		{"WhitespaceSearch", FilterState{Search: "   "}, false},
		{"Search", FilterState{Search: "login"}, true},
		{"Priority", FilterState{Priority: "High"}, true},
		{"Type", FilterState{Type: "Bug"}, true},
		{"Types", FilterState{Types: []string{"Bug"}}, true},
		{"Labels", FilterState{Labels: []string{"x"}}, true},
		{"Projects", FilterState{Projects: []string{"DP"}}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.state.IsActive(); got != tc.want {
				t.Errorf("IsActive() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDocument_PlainText(t *testing.T) {
	var nilDoc *Document
	if got := nilDoc.PlainText(); got != "" {
		t.Errorf("nil PlainText() = %q, want empty", got)
	}

	doc := &Document{
		Type:    "doc",
		Version: 1,
		Content: []DocNode{
			{Type: "paragraph", Content: []DocNode{
				{Type: "text", Text: "Login fails"},
				{Type: "text", Text: "on Safari"},
			}},
			{Type: "bulletList", Content: []DocNode{
				{Type: "listItem", Content: []DocNode{
					{Type: "paragraph", Content: []DocNode{{Type: "text", Text: "steps attached"}}},
				}},
			}},
		},
	}
	want := "Login fails on Safari steps attached"
	if got := doc.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

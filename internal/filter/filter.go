// Package filter narrows an issue collection by free text and facets.
package filter

import (
	"slices"
	"strings"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// Predicate reports whether an issue passes a single filter stage.
type Predicate func(*model.Issue) bool

// Predicates returns the stages enabled by state, in pipeline order:
// text search, priority, single type, type set, labels, projects.
func Predicates(state model.FilterState) []Predicate {
	var preds []Predicate
	if term := strings.ToLower(strings.TrimSpace(state.Search)); term != "" {
		preds = append(preds, func(i *model.Issue) bool { return matchesText(i, term) })
	}
	if state.Priority != "" {
		preds = append(preds, func(i *model.Issue) bool {
			return i.Priority != nil && i.Priority.Name == state.Priority
		})
	}
	if state.Type != "" {
		preds = append(preds, func(i *model.Issue) bool { return i.Type.Name == state.Type })
	}
	if len(state.Types) > 0 {
		preds = append(preds, func(i *model.Issue) bool { return slices.Contains(state.Types, i.Type.Name) })
	}
	if len(state.Labels) > 0 {
		preds = append(preds, func(i *model.Issue) bool {
			return slices.ContainsFunc(state.Labels, i.HasLabel)
		})
	}
	if len(state.Projects) > 0 {
		preds = append(preds, func(i *model.Issue) bool { return slices.Contains(state.Projects, i.Project.Key) })
	}
	return preds
}

// Apply returns the issues that satisfy every filter in state. The result is
// a new slice in source order; issues is never modified.
func Apply(issues []*model.Issue, state model.FilterState) []*model.Issue {
	return Match(issues, Predicates(state)...)
}

// Match returns the issues that satisfy all preds.
func Match(issues []*model.Issue, preds ...Predicate) []*model.Issue {
	out := make([]*model.Issue, 0, len(issues))
next:
	for _, issue := range issues {
		for _, p := range preds {
			if !p(issue) {
				continue next
			}
		}
		out = append(out, issue)
	}
	return out
}

// matchesText is the dashboard search box: key, summary, project name and
// type name. term must already be lower-cased.
func matchesText(i *model.Issue, term string) bool {
	return strings.Contains(strings.ToLower(i.Key), term) ||
		strings.Contains(strings.ToLower(i.Summary), term) ||
		strings.Contains(strings.ToLower(i.Project.Name), term) ||
		strings.Contains(strings.ToLower(i.Type.Name), term)
}

// Search is a full-text match over key, summary, description text and
// labels. An empty term returns a copy of issues.
func Search(issues []*model.Issue, term string) []*model.Issue {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return Match(issues)
	}
	return Match(issues, func(i *model.Issue) bool {
		if strings.Contains(strings.ToLower(i.Key), term) ||
			strings.Contains(strings.ToLower(i.Summary), term) ||
			strings.Contains(strings.ToLower(i.Description.PlainText()), term) {
			return true
		}
		for _, l := range i.Labels {
			if strings.Contains(strings.ToLower(l), term) {
				return true
			}
		}
		return false
	})
}

// ByStatus returns the issues whose status name equals name.
func ByStatus(issues []*model.Issue, name string) []*model.Issue {
	return Match(issues, func(i *model.Issue) bool { return i.Status.Name == name })
}

// ByPriority returns the issues whose priority name equals name. Issues
// without a priority match only model.NoPriority.
func ByPriority(issues []*model.Issue, name string) []*model.Issue {
	return Match(issues, func(i *model.Issue) bool { return i.PriorityName() == name })
}

// ByProject returns the issues whose project key equals key.
func ByProject(issues []*model.Issue, key string) []*model.Issue {
	return Match(issues, func(i *model.Issue) bool { return i.Project.Key == key })
}

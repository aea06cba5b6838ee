package filter

import (
	"slices"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// Facets lists the distinct values available to the faceted filters.
type Facets struct {
	Priorities []string `json:"priorities"`
	Types      []string `json:"types"`
	Labels     []string `json:"labels"`
}

// ExtractFacets collects the sorted, de-duplicated priority names, type names
// and labels present in issues. Issues without a priority contribute nothing
// to Priorities.
func ExtractFacets(issues []*model.Issue) Facets {
	priorities := map[string]struct{}{}
	types := map[string]struct{}{}
	labels := map[string]struct{}{}
	for _, i := range issues {
		if i.Priority != nil && i.Priority.Name != "" {
			priorities[i.Priority.Name] = struct{}{}
		}
		if i.Type.Name != "" {
			types[i.Type.Name] = struct{}{}
		}
		for _, l := range i.Labels {
			if l != "" {
				labels[l] = struct{}{}
			}
		}
	}
	return Facets{
		Priorities: sortedKeys(priorities),
		Types:      sortedKeys(types),
		Labels:     sortedKeys(labels),
	}
}

// FacetSource picks the collection facets are extracted from: the filtered
// set when it is non-empty, otherwise every issue.
func FacetSource(filtered, all []*model.Issue) []*model.Issue {
	if len(filtered) > 0 {
		return filtered
	}
	return all
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

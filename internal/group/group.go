// Package group buckets issues by a single dimension while preserving the
// order in which each key is first seen.
package group

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// Dimension names a grouping key.
type Dimension string

const (
	Status      Dimension = "status"
	Project     Dimension = "project"
	Priority    Dimension = "priority"
	Epic        Dimension = "epic"
	EpicAndType Dimension = "epic-type"
)

// ErrUnknownDimension is returned for a dimension name that cannot be parsed.
var ErrUnknownDimension = errors.New("unknown group dimension")

// Dimensions lists the accepted dimension names in display order.
func Dimensions() []Dimension {
	return []Dimension{Status, Project, Priority, Epic, EpicAndType}
}

// ParseDimension converts a case-insensitive name into a Dimension.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Status, Project, Priority, Epic, EpicAndType:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// KeyFunc returns the grouping key for dim. EpicAndType has no flat key and
// yields nil; use ByEpicAndType.
func KeyFunc(dim Dimension) func(*model.Issue) string {
	switch dim {
	case Status:
		return statusKey
	case Project:
		return func(i *model.Issue) string { return i.ProjectName() }
	case Priority:
		return func(i *model.Issue) string { return i.PriorityName() }
	case Epic:
		return func(i *model.Issue) string { return i.EpicName() }
	}
	return nil
}

// Group is one bucket of a View.
type Group struct {
	Key    string         `json:"key"`
	Issues []*model.Issue `json:"issues"`
}

// Count returns the number of issues in the bucket.
func (g *Group) Count() int { return len(g.Issues) }

// MarshalJSON adds the count alongside key and issues.
func (g *Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key    string         `json:"key"`
		Count  int            `json:"count"`
		Issues []*model.Issue `json:"issues"`
	}{g.Key, len(g.Issues), g.Issues})
}

// View is an ordered set of groups keyed by a single dimension.
type View struct {
	Dimension Dimension
	groups    []*Group
	index     map[string]*Group
}

func newView(dim Dimension) *View {
	return &View{Dimension: dim, index: make(map[string]*Group)}
}

// add appends issue to the bucket for key, creating it on first sight.
func (v *View) add(key string, issue *model.Issue) {
	g, ok := v.index[key]
	if !ok {
		g = &Group{Key: key}
		v.index[key] = g
		v.groups = append(v.groups, g)
	}
	g.Issues = append(g.Issues, issue)
}

// Keys returns the group keys in first-seen order.
func (v *View) Keys() []string {
	keys := make([]string, len(v.groups))
	for i, g := range v.groups {
		keys[i] = g.Key
	}
	return keys
}

// Groups returns the buckets in first-seen order.
func (v *View) Groups() []*Group { return v.groups }

// Get returns the bucket for key, or nil.
func (v *View) Get(key string) *Group { return v.index[key] }

// Len returns the number of buckets.
func (v *View) Len() int { return len(v.groups) }

// Total returns the number of grouped issues.
func (v *View) Total() int {
	n := 0
	for _, g := range v.groups {
		n += len(g.Issues)
	}
	return n
}

// MarshalJSON encodes the view as an ordered array of groups.
func (v *View) MarshalJSON() ([]byte, error) {
	groups := v.groups
	if groups == nil {
		groups = []*Group{}
	}
	return json.Marshal(groups)
}

// By groups issues by dim in a single pass. Every issue lands in exactly one
// bucket; absent references go to the sentinel keys.
func By(issues []*model.Issue, dim Dimension) (*View, error) {
	keyOf := KeyFunc(dim)
	if keyOf == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	v := newView(dim)
	for _, issue := range issues {
		v.add(keyOf(issue), issue)
	}
	return v, nil
}

// ByStatus groups issues by status name.
func ByStatus(issues []*model.Issue) *View {
	v, _ := By(issues, Status)
	return v
}

// ByProject groups issues by project name.
func ByProject(issues []*model.Issue) *View {
	v, _ := By(issues, Project)
	return v
}

// ByPriority groups issues by priority name.
func ByPriority(issues []*model.Issue) *View {
	v, _ := By(issues, Priority)
	return v
}

// ByEpic groups issues by epic name.
func ByEpic(issues []*model.Issue) *View {
	v, _ := By(issues, Epic)
	return v
}

func statusKey(i *model.Issue) string {
	if i.Status.Name == "" {
		return model.NoStatus
	}
	return i.Status.Name
}

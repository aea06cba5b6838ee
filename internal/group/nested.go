package group

import (
	"encoding/json"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// EpicGroup is one epic bucket of a Nested view, subdivided by issue type.
type EpicGroup struct {
	Key   string
	Types *View
}

// Count returns the number of issues under the epic.
func (e *EpicGroup) Count() int { return e.Types.Total() }

// MarshalJSON encodes the epic with its ordered type buckets.
func (e *EpicGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
		Types *View  `json:"types"`
	}{e.Key, e.Count(), e.Types})
}

// Nested is a two-level epic then type grouping.
type Nested struct {
	epics []*EpicGroup
	index map[string]*EpicGroup
}

// ByEpicAndType groups issues by epic name, then by type name within each
// epic. Missing types are keyed "Unknown".
func ByEpicAndType(issues []*model.Issue) *Nested {
	n := &Nested{index: make(map[string]*EpicGroup)}
	for _, issue := range issues {
		key := issue.EpicName()
		eg, ok := n.index[key]
		if !ok {
			eg = &EpicGroup{Key: key, Types: newView(EpicAndType)}
			n.index[key] = eg
			n.epics = append(n.epics, eg)
		}
		eg.Types.add(issue.TypeName(), issue)
	}
	return n
}

// Keys returns the epic keys in first-seen order.
func (n *Nested) Keys() []string {
	keys := make([]string, len(n.epics))
	for i, e := range n.epics {
		keys[i] = e.Key
	}
	return keys
}

// Epics returns the epic buckets in first-seen order.
func (n *Nested) Epics() []*EpicGroup { return n.epics }

// Get returns the epic bucket for key, or nil.
func (n *Nested) Get(key string) *EpicGroup { return n.index[key] }

// Len returns the number of epics.
func (n *Nested) Len() int { return len(n.epics) }

// MarshalJSON encodes the view as an ordered array of epics.
func (n *Nested) MarshalJSON() ([]byte, error) {
	epics := n.epics
	if epics == nil {
		epics = []*EpicGroup{}
	}
	return json.Marshal(epics)
}

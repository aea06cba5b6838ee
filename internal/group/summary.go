package group

import "github.com/IdanRossman/jiranimo/internal/model"

// Count is a key with its issue count.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary holds issue totals broken down by status, priority and project.
// Each breakdown keeps first-seen order.
type Summary struct {
	Total      int     `json:"total"`
	ByStatus   []Count `json:"by_status"`
	ByPriority []Count `json:"by_priority"`
	ByProject  []Count `json:"by_project"`
}

// Summarize counts issues per status, priority and project.
func Summarize(issues []*model.Issue) Summary {
	status := newCounter()
	priority := newCounter()
	project := newCounter()
	for _, issue := range issues {
		status.inc(statusKey(issue))
		priority.inc(issue.PriorityName())
		project.inc(issue.ProjectName())
	}
	return Summary{
		Total:      len(issues),
		ByStatus:   status.counts,
		ByPriority: priority.counts,
		ByProject:  project.counts,
	}
}

type counter struct {
	counts []Count
	index  map[string]int
}

func newCounter() *counter {
	return &counter{counts: []Count{}, index: make(map[string]int)}
}

func (c *counter) inc(key string) {
	if i, ok := c.index[key]; ok {
		c.counts[i].Count++
		return
	}
	c.index[key] = len(c.counts)
	c.counts = append(c.counts, Count{Key: key, Count: 1})
}

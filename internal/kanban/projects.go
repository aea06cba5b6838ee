package kanban

import "github.com/IdanRossman/jiranimo/internal/model"

// Palette is the fixed set of chip colors assigned to projects in order.
var Palette = []string{
	"#667eea", "#764ba2", "#f59e0b", "#10b981", "#ef4444",
	"#8b5cf6", "#ec4899", "#3b82f6", "#06b6d4", "#84cc16",
}

// ProjectChip is a project shown in the board legend.
type ProjectChip struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// Projects returns the distinct projects in first-seen order, each with a
// palette color (cycling past the end) and its issue count.
func Projects(issues []*model.Issue) []ProjectChip {
	chips := []ProjectChip{}
	index := map[string]int{}
	for _, issue := range issues {
		key := issue.Project.Key
		if i, ok := index[key]; ok {
			chips[i].Count++
			continue
		}
		index[key] = len(chips)
		chips = append(chips, ProjectChip{
			Key:   key,
			Name:  issue.ProjectName(),
			Color: Palette[len(chips)%len(Palette)],
			Count: 1,
		})
	}
	return chips
}

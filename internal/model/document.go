package model

import "strings"

// Document is a structured rich-text body (Atlassian document format).
type Document struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []DocNode `json:"content"`
}

// DocNode is one node of a Document tree. Leaf text nodes carry Text.
type DocNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []DocNode `json:"content,omitempty"`
}

// PlainText flattens the document depth-first, joining text nodes with a
// single space. A nil document yields the empty string.
func (d *Document) PlainText() string {
	if d == nil || len(d.Content) == 0 {
		return ""
	}
	var parts []string
	var walk func(nodes []DocNode)
	walk = func(nodes []DocNode) {
		for _, n := range nodes {
			if n.Text != "" {
				parts = append(parts, n.Text)
			}
			if len(n.Content) > 0 {
				walk(n.Content)
			}
		}
	}
	walk(d.Content)
	return strings.TrimSpace(strings.Join(parts, " "))
}

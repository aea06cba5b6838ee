package events

import (
	"context"
	"time"
)

// Event topic constants
const (
	TopicTransitionCommitted = "jiranimo.transition.committed"
	TopicTransitionReverted  = "jiranimo.transition.reverted"
	TopicTransitionReordered = "jiranimo.transition.reordered"

	TopicIssuesLoaded  = "jiranimo.issues.loaded"
	TopicFilterChanged = "jiranimo.filter.changed"

	// TopicTransitionAll matches every transition outcome.
	TopicTransitionAll = "jiranimo.transition.*"
)

// Event types

// Transition reports the outcome of a card move on the board.
type Transition struct {
	ID             string    `json:"id"`
	IssueKey       string    `json:"issue_key"`
	From           string    `json:"from"`
	FromIndex      int       `json:"from_index"`
	To             string    `json:"to"`
	ToIndex        int       `json:"to_index"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Outcome        string    `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// IssuesLoaded is published after a new issue collection replaces the old one.
type IssuesLoaded struct {
	Count     int  `json:"count"`
	Rejected  int  `json:"rejected"`
	Attention int  `json:"attention"`
	HasMore   bool `json:"has_more"`
}

// FilterChanged is published when the active filter changes.
type FilterChanged struct {
	Active  bool `json:"active"`
	Matched int  `json:"matched"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher drops every event. It stands in when no bus or NATS
// server is configured.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (*NoopPublisher) Close() error { return nil }

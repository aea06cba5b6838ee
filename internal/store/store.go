// Package store persists the transition journal.
package store

import (
	"context"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// Store defines the persistence interface for journal events.
type Store interface {
	// RecordEvent appends e and fills in its ID and CreatedAt.
	RecordEvent(ctx context.Context, e *model.Event) error
	// GetEvents returns the events of one issue, oldest first.
	GetEvents(ctx context.Context, issueKey string) ([]*model.Event, error)
	// ListEvents returns up to limit of the most recent events, oldest
	// first. A limit <= 0 returns every event.
	ListEvents(ctx context.Context, limit int) ([]*model.Event, error)

	Close() error
}

// Nop is a Store that keeps nothing.
type Nop struct{}

var _ Store = Nop{}

func (Nop) RecordEvent(context.Context, *model.Event) error { return nil }

func (Nop) GetEvents(context.Context, string) ([]*model.Event, error) { return nil, nil }

func (Nop) ListEvents(context.Context, int) ([]*model.Event, error) { return nil, nil }

func (Nop) Close() error { return nil }

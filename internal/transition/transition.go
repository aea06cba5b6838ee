// Package transition applies optimistic card moves to a kanban board and
// reconciles them with the tracker.
package transition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IdanRossman/jiranimo/internal/events"
)

var (
	// ErrTransitionPending is returned when the dragged issue already has a
	// status update in flight.
	ErrTransitionPending = errors.New("transition already pending for issue")
	// ErrControllerClosed is returned by Move after Close.
	ErrControllerClosed = errors.New("transition controller closed")
)

// StatusUpdater performs the remote status change. Implementations must be
// safe for concurrent use.
type StatusUpdater interface {
	UpdateIssueStatus(ctx context.Context, key, status string) error
}

// StatusUpdaterFunc adapts a function to StatusUpdater.
type StatusUpdaterFunc func(ctx context.Context, key, status string) error

// UpdateIssueStatus calls f.
func (f StatusUpdaterFunc) UpdateIssueStatus(ctx context.Context, key, status string) error {
	return f(ctx, key, status)
}

// State is the lifecycle position of a Transition.
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateCommitted State = "committed"
	StateReverted  State = "reverted"
)

// Outcome is how a finished Transition resolved.
type Outcome string

const (
	OutcomeReordered Outcome = "reordered"
	OutcomeCommitted Outcome = "committed"
	OutcomeReverted  Outcome = "reverted"
)

// Topic returns the event topic the outcome is published on.
func (o Outcome) Topic() string {
	switch o {
	case OutcomeCommitted:
		return events.TopicTransitionCommitted
	case OutcomeReverted:
		return events.TopicTransitionReverted
	}
	return events.TopicTransitionReordered
}

// Drop is a card dropped at ToIndex of column To after being picked up at
// FromIndex of column From.
type Drop struct {
	From      string `json:"from"`
	FromIndex int    `json:"from_index"`
	To        string `json:"to"`
	ToIndex   int    `json:"to_index"`
}

// SameColumn reports whether the drop is a reorder.
func (d Drop) SameColumn() bool { return d.From == d.To }

// Error is the failure of a remote status update.
type Error struct {
	IssueKey string
	Status   string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("move %s to %q: %v", e.IssueKey, e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transition tracks a single drop from start to outcome. The identity
// fields are fixed at creation; State, Outcome and Err settle when Done is
// closed.
type Transition struct {
	ID             string
	IssueKey       string
	Drop           Drop
	Status         string // status requested from the tracker
	PreviousStatus string
	StartedAt      time.Time

	mu         sync.Mutex
	state      State
	outcome    Outcome
	err        error
	finishedAt time.Time
	done       chan struct{}
}

func newTransition(id, key string, drop Drop, status, prev string, now time.Time) *Transition {
	return &Transition{
		ID:             id,
		IssueKey:       key,
		Drop:           drop,
		Status:         status,
		PreviousStatus: prev,
		StartedAt:      now,
		state:          StatePending,
		done:           make(chan struct{}),
	}
}

// finish records the outcome and releases waiters.
func (t *Transition) finish(state State, outcome Outcome, err error, now time.Time) {
	t.mu.Lock()
	t.state = state
	t.outcome = outcome
	t.err = err
	t.finishedAt = now
	t.mu.Unlock()
	close(t.done)
}

// Done is closed once the transition has an outcome.
func (t *Transition) Done() <-chan struct{} { return t.done }

// State returns the current state. A reorder reports idle immediately.
func (t *Transition) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Outcome returns the outcome, or "" while pending.
func (t *Transition) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// Err returns the *Error of a reverted transition.
func (t *Transition) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the transition settles or ctx is done, and returns the
// transition error if it was reverted.
func (t *Transition) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Event converts the transition to its published form.
func (t *Transition) Event() events.Transition {
	t.mu.Lock()
	defer t.mu.Unlock()
	ev := events.Transition{
		ID:             t.ID,
		IssueKey:       t.IssueKey,
		From:           t.Drop.From,
		FromIndex:      t.Drop.FromIndex,
		To:             t.Drop.To,
		ToIndex:        t.Drop.ToIndex,
		Status:         t.Status,
		PreviousStatus: t.PreviousStatus,
		Outcome:        string(t.outcome),
		StartedAt:      t.StartedAt,
		FinishedAt:     t.finishedAt,
	}
	if t.err != nil {
		ev.Error = t.err.Error()
	}
	return ev
}

// MarshalJSON encodes the transition with its current state.
func (t *Transition) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		events.Transition
		State State `json:"state"`
	}{t.Event(), t.State()})
}

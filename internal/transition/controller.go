package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IdanRossman/jiranimo/internal/events"
	"github.com/IdanRossman/jiranimo/internal/idgen"
	"github.com/IdanRossman/jiranimo/internal/kanban"
	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/normalize"
)

// DefaultTimeout bounds a remote status update when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures a Controller.
type Options struct {
	Updater   StatusUpdater    // required
	Publisher events.Publisher // nil disables notifications
	Logger    *slog.Logger     // nil uses slog.Default()
	Timeout   time.Duration    // per update; zero uses DefaultTimeout
	NewID     func() (string, error)
	Now       func() time.Time
}

// Controller owns a board and applies drops to it. All board access goes
// through the controller, which serializes it.
type Controller struct {
	mu         sync.Mutex
	board      *kanban.Board
	pending    map[string]*Transition
	issues     map[string]*model.Issue // collection commits apply to; nil until Load
	generation uint64                  // bumped on every Load and Repartition
	closed     bool

	updater   StatusUpdater
	publisher events.Publisher
	logger    *slog.Logger
	timeout   time.Duration
	newID     func() (string, error)
	now       func() time.Time

	wg sync.WaitGroup
}

// New creates a Controller for board.
func New(board *kanban.Board, opts Options) (*Controller, error) {
	if board == nil {
		return nil, errors.New("transition: board is required")
	}
	if opts.Updater == nil {
		return nil, errors.New("transition: status updater is required")
	}
	c := &Controller{
		board:     board,
		pending:   make(map[string]*Transition),
		updater:   opts.Updater,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		timeout:   opts.Timeout,
		newID:     opts.NewID,
		now:       opts.Now,
	}
	if c.publisher == nil {
		c.publisher = &events.NoopPublisher{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.newID == nil {
		c.newID = idgen.Transition
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Move applies drop to the board.
//
// A drop within one column reorders it and returns a transition that is
// already settled with OutcomeReordered. A drop across columns moves the card
// at once, asks the tracker to change the issue's status to the destination
// column's primary alias, and returns a pending transition. When the update
// succeeds the issue's status is replaced; when it fails the card goes back
// to its original column and index and the transition carries an *Error.
//
// Invalid drops return an error and leave the board untouched.
func (c *Controller) Move(ctx context.Context, drop Drop) (*Transition, error) {
	id, err := c.newID()
	if err != nil {
		return nil, fmt.Errorf("transition id: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrControllerClosed
	}
	src, err := c.board.Column(drop.From)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	dst, err := c.board.Column(drop.To)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if drop.FromIndex < 0 || drop.FromIndex >= len(src.Issues) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: from index %d in column %q", kanban.ErrIndexOutOfRange, drop.FromIndex, drop.From)
	}
	issue := src.Issues[drop.FromIndex]
	if _, busy := c.pending[issue.Key]; busy {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w %s", ErrTransitionPending, issue.Key)
	}

	now := c.now()
	if drop.SameColumn() {
		if err := c.board.Reorder(drop.From, drop.FromIndex, drop.ToIndex); err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.mu.Unlock()
		t := newTransition(id, issue.Key, drop, issue.Status.Name, issue.Status.Name, now)
		t.finish(StateIdle, OutcomeReordered, nil, now)
		c.publish(ctx, t)
		c.logger.Debug("issue reordered", "issue", issue.Key, "column", drop.From, "from", drop.FromIndex, "to", drop.ToIndex)
		return t, nil
	}

	if _, err := c.board.Transfer(drop.From, drop.FromIndex, drop.To, drop.ToIndex); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	status := dst.PrimaryStatus()
	t := newTransition(id, issue.Key, drop, status, issue.Status.Name, now)
	c.pending[issue.Key] = t
	gen := c.generation
	c.wg.Add(1)
	go c.update(ctx, t, issue, gen)
	c.mu.Unlock()

	c.logger.Info("issue moved", "issue", issue.Key, "from", drop.From, "to", drop.To, "status", status, "transition", id)
	return t, nil
}

// update runs the remote call and settles t. It is detached from the
// caller's cancellation and bounded by the controller timeout.
func (c *Controller) update(ctx context.Context, t *Transition, issue *model.Issue, gen uint64) {
	defer c.wg.Done()

	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	err := c.updater.UpdateIssueStatus(uctx, t.IssueKey, t.Status)

	c.mu.Lock()
	delete(c.pending, t.IssueKey)
	repartitioned := gen != c.generation
	if err == nil {
		// A Load while the update was in flight may have replaced the
		// issue; the commit belongs to the current one.
		current := c.current(issue)
		if current != nil {
			normalize.SetStatus(current, t.Status)
			if repartitioned {
				c.relocate(current, t.Drop.To, t.Drop.ToIndex)
			}
		}
	} else if !repartitioned {
		c.restore(issue, t.Drop.From, t.Drop.FromIndex)
	}
	c.mu.Unlock()

	now := c.now()
	if err == nil {
		t.finish(StateCommitted, OutcomeCommitted, nil, now)
		c.logger.Info("transition committed", "issue", t.IssueKey, "status", t.Status, "transition", t.ID)
	} else {
		t.finish(StateReverted, OutcomeReverted, &Error{IssueKey: t.IssueKey, Status: t.Status, Err: err}, now)
		c.logger.Warn("transition reverted", "issue", t.IssueKey, "status", t.Status, "transition", t.ID, "err", err)
	}
	c.publish(uctx, t)
}

// current returns the collection's issue with the key of moved, moved
// itself when no collection was loaded, or nil when the key left the
// collection. Caller holds c.mu.
func (c *Controller) current(moved *model.Issue) *model.Issue {
	if c.issues == nil {
		return moved
	}
	return c.issues[moved.Key]
}

// restore moves issue from wherever it sits back to index of column.
// Caller holds c.mu.
func (c *Controller) restore(issue *model.Issue, column string, index int) {
	if colID, idx, ok := c.board.Locate(issue.Key); ok {
		_, _ = c.board.Remove(colID, idx)
	}
	if err := c.board.Insert(column, index, issue); err != nil {
		c.logger.Error("restoring card failed", "issue", issue.Key, "column", column, "err", err)
	}
}

// relocate places a committed issue in its destination column after a
// repartition put it back by its old status. Done issues and issues no
// longer on the board are left alone. Caller holds c.mu.
func (c *Controller) relocate(issue *model.Issue, column string, index int) {
	colID, idx, ok := c.board.Locate(issue.Key)
	if !ok || colID == column {
		return
	}
	_, _ = c.board.Remove(colID, idx)
	if issue.IsDone() {
		return
	}
	if err := c.board.Insert(column, index, issue); err != nil {
		c.logger.Error("relocating card failed", "issue", issue.Key, "column", column, "err", err)
	}
}

func (c *Controller) publish(ctx context.Context, t *Transition) {
	outcome := t.Outcome()
	if err := c.publisher.Publish(ctx, outcome.Topic(), t.Event()); err != nil {
		c.logger.Warn("publishing transition failed", "issue", t.IssueKey, "outcome", outcome, "err", err)
	}
}

// Load replaces the collection committed transitions write to and
// partitions the board from visible, the subset of issues to show. Pending
// transitions stay pending; a commit updates the issue with the same key in
// the new collection.
func (c *Controller) Load(issues, visible []*model.Issue) {
	index := make(map[string]*model.Issue, len(issues))
	for _, iss := range issues {
		if _, dup := index[iss.Key]; !dup {
			index[iss.Key] = iss
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = index
	c.board.Partition(visible)
	c.generation++
}

// Repartition recomputes the board from issues of the loaded collection.
// Pending transitions stay pending; their outcome is applied against the new
// layout.
func (c *Controller) Repartition(issues []*model.Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.board.Partition(issues)
	c.generation++
}

// Snapshot returns a copy of the board safe to read without the controller.
func (c *Controller) Snapshot() *kanban.Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Clone()
}

// View runs fn while holding the controller lock. Committed transitions
// rewrite issue status under the same lock, so reads of issue fields made
// inside fn never race with them. fn must not retain board.
func (c *Controller) View(fn func(board *kanban.Board)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.board)
}

// State returns StatePending while issue key has an update in flight and
// StateIdle otherwise.
func (c *Controller) State(key string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[key]; ok {
		return StatePending
	}
	return StateIdle
}

// Pending returns the in-flight transitions.
func (c *Controller) Pending() []*Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Transition, 0, len(c.pending))
	for _, t := range c.pending {
		out = append(out, t)
	}
	return out
}

// Wait blocks until every in-flight transition has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close rejects further moves and waits for in-flight transitions.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

// Package dashboard owns the canonical issue collection and derives every
// view of it: filtered lists, facets, groupings, the kanban board, and the
// transition journal.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IdanRossman/jiranimo/internal/events"
	"github.com/IdanRossman/jiranimo/internal/filter"
	"github.com/IdanRossman/jiranimo/internal/group"
	"github.com/IdanRossman/jiranimo/internal/kanban"
	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/normalize"
	"github.com/IdanRossman/jiranimo/internal/store"
	"github.com/IdanRossman/jiranimo/internal/transition"
)

// ErrNoSource is returned by Reload when the dashboard has no IssueSource.
var ErrNoSource = errors.New("dashboard has no issue source")

// journalTimeout bounds a single journal write.
const journalTimeout = 5 * time.Second

// IssueSource fetches the full issue collection. client.HTTPClient
// implements it.
type IssueSource interface {
	AllIssues(ctx context.Context) (*normalize.Page, error)
}

// Options configures a Dashboard.
type Options struct {
	Columns []kanban.ColumnDef       // nil uses kanban.DefaultColumns()
	Updater transition.StatusUpdater // required
	Source  IssueSource              // optional; required by Reload
	Bus     *events.Bus              // nil creates a private bus
	Journal store.Store              // nil records nothing
	Logger  *slog.Logger             // nil uses slog.Default()
	Timeout time.Duration            // remote update timeout; zero uses transition.DefaultTimeout
	Actor   string                   // recorded with journal events
}

// Dashboard is the single owner of the loaded issues. It is safe for
// concurrent use.
//
// Lock order is d.mu before the controller. The controller never calls back
// into the dashboard.
type Dashboard struct {
	mu        sync.RWMutex
	issues    []*model.Issue
	filtered  []*model.Issue
	state     model.FilterState
	attention []model.AttentionItem
	rejected  []*normalize.RecordError
	hasMore   bool
	loadedAt  time.Time

	ctrl    *transition.Controller
	bus     *events.Bus
	ownsBus bool
	journal store.Store
	source  IssueSource
	logger  *slog.Logger
	actor   string

	unsubscribe func()
}

// New creates an empty Dashboard.
func New(opts Options) (*Dashboard, error) {
	defs := opts.Columns
	if defs == nil {
		defs = kanban.DefaultColumns()
	}
	board, err := kanban.NewBoard(defs)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dashboard{
		issues:    []*model.Issue{},
		filtered:  []*model.Issue{},
		attention: []model.AttentionItem{},
		bus:       opts.Bus,
		journal:   opts.Journal,
		source:    opts.Source,
		logger:    logger,
		actor:     opts.Actor,
	}
	if d.bus == nil {
		d.bus = events.NewBus(nil, logger)
		d.ownsBus = true
	}
	if d.journal == nil {
		d.journal = store.Nop{}
	}

	d.ctrl, err = transition.New(board, transition.Options{
		Updater:   opts.Updater,
		Publisher: d.bus,
		Logger:    logger,
		Timeout:   opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	d.unsubscribe = events.Listen(d.bus, events.TopicTransitionAll, d.record)
	return d, nil
}

// Bus returns the bus transition and load events are published on.
func (d *Dashboard) Bus() *events.Bus { return d.bus }

// Journal returns the store transition outcomes are recorded in.
func (d *Dashboard) Journal() store.Store { return d.journal }

// record appends a settled transition to the journal.
func (d *Dashboard) record(ctx context.Context, topic string, ev events.Transition) {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.logger.Warn("encoding journal event failed", "issue", ev.IssueKey, "err", err)
		return
	}
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	e := &model.Event{Topic: topic, IssueKey: ev.IssueKey, Actor: d.actor, Payload: payload}
	if err := d.journal.RecordEvent(jctx, e); err != nil {
		d.logger.Warn("recording journal event failed", "issue", ev.IssueKey, "topic", topic, "err", err)
	}
}

// Load replaces the collection with page and re-partitions the board. The
// active filter is re-applied to the new issues.
func (d *Dashboard) Load(ctx context.Context, page *normalize.Page) {
	d.mu.Lock()
	d.issues = append([]*model.Issue{}, page.Issues...)
	d.attention = append([]model.AttentionItem{}, page.Attention...)
	d.rejected = append([]*normalize.RecordError(nil), page.Rejected...)
	d.hasMore = page.HasMore()
	d.loadedAt = time.Now()
	d.filtered = filter.Apply(d.issues, d.state)
	d.ctrl.Load(d.issues, d.visibleLocked())
	loaded := events.IssuesLoaded{
		Count:     len(d.issues),
		Rejected:  len(d.rejected),
		Attention: len(d.attention),
		HasMore:   d.hasMore,
	}
	d.mu.Unlock()

	for _, r := range page.Rejected {
		d.logger.Warn("issue rejected", "index", r.Index, "issue", r.Key, "err", r.Err)
	}
	d.logger.Info("issues loaded", "count", loaded.Count, "rejected", loaded.Rejected, "has_more", loaded.HasMore)
	d.publish(ctx, events.TopicIssuesLoaded, loaded)
}

// Reload fetches every issue from the source and loads it.
func (d *Dashboard) Reload(ctx context.Context) error {
	if d.source == nil {
		return ErrNoSource
	}
	page, err := d.source.AllIssues(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	d.Load(ctx, page)
	return nil
}

// RunReloader reloads every interval until ctx is done. Failures are logged
// and the previous collection is kept.
func (d *Dashboard) RunReloader(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Reload(ctx); err != nil && ctx.Err() == nil {
				d.logger.Error("periodic reload failed", "err", err)
			}
		}
	}
}

// SetFilter replaces the active filter, recomputes the filtered collection,
// and re-partitions the board from it (from every issue when state is
// inactive). It returns the number of matching issues.
func (d *Dashboard) SetFilter(ctx context.Context, state model.FilterState) int {
	d.mu.Lock()
	d.state = state
	d.filtered = filter.Apply(d.issues, state)
	d.ctrl.Repartition(d.visibleLocked())
	matched := len(d.filtered)
	d.mu.Unlock()

	d.publish(ctx, events.TopicFilterChanged, events.FilterChanged{Active: state.IsActive(), Matched: matched})
	return matched
}

// Filter returns the active filter.
func (d *Dashboard) Filter() model.FilterState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// visibleLocked is what the board shows. Caller holds d.mu.
func (d *Dashboard) visibleLocked() []*model.Issue {
	if d.state.IsActive() {
		return d.filtered
	}
	return d.issues
}

// copies returns point-in-time copies of issues, taken under the controller
// lock so no committed status change is observed half-written.
func (d *Dashboard) copies(issues []*model.Issue) []*model.Issue {
	out := make([]*model.Issue, len(issues))
	d.ctrl.View(func(*kanban.Board) {
		for i, iss := range issues {
			cp := *iss
			out[i] = &cp
		}
	})
	return out
}

// Issues returns a copy of every loaded issue in load order.
func (d *Dashboard) Issues() []*model.Issue {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.copies(d.issues)
}

// Issue returns a copy of the issue with key.
func (d *Dashboard) Issue(key string) (*model.Issue, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, iss := range d.issues {
		if iss.Key == key {
			return d.copies([]*model.Issue{iss})[0], true
		}
	}
	return nil, false
}

// Filtered returns the issues matching the active filter, or every issue
// when no filter is active.
func (d *Dashboard) Filtered() []*model.Issue {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.copies(d.visibleLocked())
}

// Facets returns the filter options of the filtered collection, falling
// back to every issue when nothing matches.
func (d *Dashboard) Facets() filter.Facets {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return filter.ExtractFacets(filter.FacetSource(d.filtered, d.issues))
}

// Grouped groups the visible issues by dim.
func (d *Dashboard) Grouped(dim group.Dimension) (*group.View, error) {
	return group.By(d.Filtered(), dim)
}

// Nested groups the visible issues by epic, then type.
func (d *Dashboard) Nested() *group.Nested {
	return group.ByEpicAndType(d.Filtered())
}

// Summary counts every loaded issue by status, priority and project.
func (d *Dashboard) Summary() group.Summary {
	return group.Summarize(d.Issues())
}

// Board returns a copy of the board, including issue values, safe to read
// and encode without further locking.
func (d *Dashboard) Board() *kanban.Board {
	var out *kanban.Board
	d.ctrl.View(func(b *kanban.Board) {
		out = b.Clone()
		for _, col := range out.Columns() {
			for i, iss := range col.Issues {
				cp := *iss
				col.Issues[i] = &cp
			}
		}
	})
	return out
}

// Projects lists the project chips of the visible issues.
func (d *Dashboard) Projects() []kanban.ProjectChip {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return kanban.Projects(d.visibleLocked())
}

// Move applies a drop to the board. See transition.Controller.Move.
func (d *Dashboard) Move(ctx context.Context, drop transition.Drop) (*transition.Transition, error) {
	return d.ctrl.Move(ctx, drop)
}

// Pending returns the transitions whose remote update is in flight.
func (d *Dashboard) Pending() []*transition.Transition {
	return d.ctrl.Pending()
}

// Attention returns the issues the tracker flagged as needing attention.
func (d *Dashboard) Attention() []model.AttentionItem {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.AttentionItem{}, d.attention...)
}

// Rejected returns the records of the last load that failed to normalize.
func (d *Dashboard) Rejected() []*normalize.RecordError {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*normalize.RecordError(nil), d.rejected...)
}

// HasMore reports whether the last load said more pages exist.
func (d *Dashboard) HasMore() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hasMore
}

// LoadedAt returns when the collection was last loaded; zero before the
// first load.
func (d *Dashboard) LoadedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loadedAt
}

// Events returns the journal entries of one issue.
func (d *Dashboard) Events(ctx context.Context, key string) ([]*model.Event, error) {
	return d.journal.GetEvents(ctx, key)
}

// Wait blocks until in-flight transitions settle.
func (d *Dashboard) Wait() { d.ctrl.Wait() }

func (d *Dashboard) publish(ctx context.Context, topic string, event any) {
	if err := d.bus.Publish(ctx, topic, event); err != nil {
		d.logger.Warn("publishing event failed", "topic", topic, "err", err)
	}
}

// Close waits for in-flight transitions, then stops journaling. A bus
// created by the dashboard is closed; a bus passed in Options is not.
func (d *Dashboard) Close() error {
	d.ctrl.Close()
	d.unsubscribe()
	if d.ownsBus {
		return d.bus.Close()
	}
	return nil
}

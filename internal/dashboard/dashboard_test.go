package dashboard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/IdanRossman/jiranimo/internal/events"
	"github.com/IdanRossman/jiranimo/internal/group"
	"github.com/IdanRossman/jiranimo/internal/kanban"
	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/normalize"
	"github.com/IdanRossman/jiranimo/internal/transition"
)

type memJournal struct {
	mu     sync.Mutex
	events []*model.Event
}

func (m *memJournal) RecordEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.events) + 1)
	e.CreatedAt = time.Now()
	m.events = append(m.events, e)
	return nil
}

func (m *memJournal) GetEvents(_ context.Context, key string) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Event{}
	for _, e := range m.events {
		if e.IssueKey == key {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memJournal) ListEvents(context.Context, int) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Event{}, m.events...), nil
}

func (m *memJournal) Close() error { return nil }

type sourceFunc func(ctx context.Context) (*normalize.Page, error)

func (f sourceFunc) AllIssues(ctx context.Context) (*normalize.Page, error) { return f(ctx) }

func mkIssue(key, project, status, priority string, labels ...string) *model.Issue {
	iss := &model.Issue{
		ID:      key,
		Key:     key,
		Summary: "Summary of " + key,
		Project: model.Project{Key: project, Name: project + " Project"},
		Type:    model.IssueType{Name: "Task"},
		Status:  normalize.CategorizeStatus(status),
		Labels:  labels,
	}
	if priority != "" {
		iss.Priority = &model.Priority{Name: priority}
	}
	return iss
}

func samplePage() *normalize.Page {
	return &normalize.Page{
		Issues: []*model.Issue{
			mkIssue("DP-1", "DP", "To Do", "High", "backend"),
			mkIssue("DP-2", "DP", "In Progress", "Low"),
			mkIssue("DP-6", "DP", "Code Review", "High", "frontend"),
			mkIssue("OPS-7", "OPS", "To Do", ""),
			mkIssue("OPS-8", "OPS", "Done", "Low"),
		},
		Attention: []model.AttentionItem{{IssueKey: "OPS-7", IsValid: false}},
		IsLast:    false,
	}
}

func newDashboard(t *testing.T, updater transition.StatusUpdater, opts Options) *Dashboard {
	t.Helper()
	opts.Updater = updater
	d, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func okUpdater() transition.StatusUpdater {
	return transition.StatusUpdaterFunc(func(context.Context, string, string) error { return nil })
}

func columnKeys(b *kanban.Board) map[string][]string {
	out := map[string][]string{}
	for _, col := range b.Columns() {
		keys := []string{}
		for _, iss := range col.Issues {
			keys = append(keys, iss.Key)
		}
		out[col.ID] = keys
	}
	return out
}

func issueKeys(issues []*model.Issue) []string {
	out := []string{}
	for _, iss := range issues {
		out = append(out, iss.Key)
	}
	return out
}

func TestNew_RequiresUpdater(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without updater")
	}
	if _, err := New(Options{Updater: okUpdater(), Columns: []kanban.ColumnDef{}}); err == nil {
		t.Fatal("expected error for empty column set")
	}
}

func TestLoad(t *testing.T) {
	d := newDashboard(t, okUpdater(), Options{})
	var loaded []events.IssuesLoaded
	events.Listen(d.Bus(), events.TopicIssuesLoaded, func(_ context.Context, _ string, ev events.IssuesLoaded) {
		loaded = append(loaded, ev)
	})

	page := samplePage()
	page.Rejected = []*normalize.RecordError{{Index: 5, Err: errors.New("id: is required")}}
	d.Load(context.Background(), page)

	want := map[string][]string{
		"todo":        {"DP-1", "OPS-7"},
		"in-progress": {"DP-2"},
		"in-review":   {"DP-6"},
		"done":        {},
	}
	if got := columnKeys(d.Board()); !reflect.DeepEqual(got, want) {
		t.Errorf("board = %v, want %v", got, want)
	}
	if got := len(d.Issues()); got != 5 {
		t.Errorf("Issues() = %d, want 5", got)
	}
	if !d.HasMore() {
		t.Error("HasMore should follow the page")
	}
	if len(d.Attention()) != 1 || len(d.Rejected()) != 1 {
		t.Errorf("attention=%d rejected=%d", len(d.Attention()), len(d.Rejected()))
	}
	if d.LoadedAt().IsZero() {
		t.Error("LoadedAt not set")
	}
	if len(loaded) != 1 || loaded[0] != (events.IssuesLoaded{Count: 5, Rejected: 1, Attention: 1, HasMore: true}) {
		t.Errorf("loaded events = %+v", loaded)
	}
}

func TestSetFilter_RepartitionsBoard(t *testing.T) {
	d := newDashboard(t, okUpdater(), Options{})
	d.Load(context.Background(), samplePage())

	matched := d.SetFilter(context.Background(), model.FilterState{Priority: "High"})
	if matched != 2 {
		t.Fatalf("matched = %d, want 2", matched)
	}
	if got := issueKeys(d.Filtered()); !reflect.DeepEqual(got, []string{"DP-1", "DP-6"}) {
		t.Errorf("Filtered() = %v", got)
	}
	want := map[string][]string{
		"todo":        {"DP-1"},
		"in-progress": {},
		"in-review":   {"DP-6"},
		"done":        {},
	}
	if got := columnKeys(d.Board()); !reflect.DeepEqual(got, want) {
		t.Errorf("filtered board = %v, want %v", got, want)
	}
	if got := d.Projects(); len(got) != 1 || got[0].Key != "DP" || got[0].Count != 2 {
		t.Errorf("Projects() = %+v", got)
	}

	d.SetFilter(context.Background(), model.FilterState{})
	if got := columnKeys(d.Board()); len(got["todo"]) != 2 {
		t.Errorf("cleared filter should restore board, got %v", got)
	}
	if got := len(d.Filtered()); got != 5 {
		t.Errorf("Filtered() without filter = %d, want 5", got)
	}
}

func TestFacets_FallBackToAllIssues(t *testing.T) {
	d := newDashboard(t, okUpdater(), Options{})
	d.Load(context.Background(), samplePage())

	d.SetFilter(context.Background(), model.FilterState{Search: "no such issue"})
	f := d.Facets()
	if !reflect.DeepEqual(f.Priorities, []string{"High", "Low"}) {
		t.Errorf("priorities = %v", f.Priorities)
	}
	if !reflect.DeepEqual(f.Labels, []string{"backend", "frontend"}) {
		t.Errorf("labels = %v", f.Labels)
	}
}

func TestGroupedAndSummary(t *testing.T) {
	d := newDashboard(t, okUpdater(), Options{})
	d.Load(context.Background(), samplePage())

	v, err := d.Grouped(group.Priority)
	if err != nil {
		t.Fatalf("Grouped: %v", err)
	}
	if got := v.Keys(); !reflect.DeepEqual(got, []string{"High", "Low", model.NoPriority}) {
		t.Errorf("priority keys = %v", got)
	}
	if _, err := d.Grouped(group.Dimension("assignee")); !errors.Is(err, group.ErrUnknownDimension) {
		t.Errorf("expected ErrUnknownDimension, got %v", err)
	}
	if n := d.Nested(); n.Len() != 1 || n.Keys()[0] != model.NoEpic {
		t.Errorf("nested keys = %v", n.Keys())
	}
	if s := d.Summary(); s.Total != 5 {
		t.Errorf("summary total = %d", s.Total)
	}
}

func TestIssues_ReturnsCopies(t *testing.T) {
	d := newDashboard(t, okUpdater(), Options{})
	d.Load(context.Background(), samplePage())

	got := d.Issues()
	got[0].Summary = "changed"
	if iss, _ := d.Issue("DP-1"); iss.Summary != "Summary of DP-1" {
		t.Errorf("dashboard issue was mutated through a copy: %q", iss.Summary)
	}
	if _, ok := d.Issue("NOPE-1"); ok {
		t.Error("unknown key should not be found")
	}
}

func TestMove_CommitIsJournaled(t *testing.T) {
	journal := &memJournal{}
	d := newDashboard(t, okUpdater(), Options{Journal: journal, Actor: "alice"})
	d.Load(context.Background(), samplePage())

	tr, err := d.Move(context.Background(), transition.Drop{From: "todo", FromIndex: 0, To: "in-progress", ToIndex: 0})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	d.Wait()

	iss, _ := d.Issue("DP-1")
	if iss.Status.Name != "In Progress" {
		t.Errorf("status = %q, want In Progress", iss.Status.Name)
	}
	evts, err := d.Events(context.Background(), "DP-1")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(evts) != 1 {
		t.Fatalf("journal has %d events for DP-1, want 1", len(evts))
	}
	if evts[0].Topic != events.TopicTransitionCommitted || evts[0].Actor != "alice" {
		t.Errorf("journal event = %+v", evts[0])
	}
}

func TestMove_CommitSurvivesReload(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	gated := transition.StatusUpdaterFunc(func(ctx context.Context, _, _ string) error {
		started <- struct{}{}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	d := newDashboard(t, gated, Options{})
	d.Load(context.Background(), samplePage())

	tr, err := d.Move(context.Background(), transition.Drop{From: "todo", FromIndex: 0, To: "in-progress", ToIndex: 0})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	<-started
	d.Load(context.Background(), samplePage())
	close(release)
	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	iss, _ := d.Issue("DP-1")
	if iss.Status.Name != "In Progress" {
		t.Errorf("DP-1 status = %q, want In Progress", iss.Status.Name)
	}
	want := map[string][]string{
		"todo":        {"OPS-7"},
		"in-progress": {"DP-1", "DP-2"},
		"in-review":   {"DP-6"},
		"done":        {},
	}
	if got := columnKeys(d.Board()); !reflect.DeepEqual(got, want) {
		t.Errorf("board = %v, want %v", got, want)
	}
	d.SetFilter(context.Background(), d.Filter())
	if got := columnKeys(d.Board()); !reflect.DeepEqual(got, want) {
		t.Errorf("board after repartition = %v, want %v", got, want)
	}
}

func TestMove_RevertIsJournaled(t *testing.T) {
	journal := &memJournal{}
	failing := transition.StatusUpdaterFunc(func(context.Context, string, string) error {
		return errors.New("transition not allowed")
	})
	d := newDashboard(t, failing, Options{Journal: journal})
	d.Load(context.Background(), samplePage())

	tr, err := d.Move(context.Background(), transition.Drop{From: "in-review", FromIndex: 0, To: "done", ToIndex: 0})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	var terr *transition.Error
	if err := tr.Wait(context.Background()); !errors.As(err, &terr) {
		t.Fatalf("expected *transition.Error, got %v", err)
	}
	d.Wait()

	if got := columnKeys(d.Board())["in-review"]; !reflect.DeepEqual(got, []string{"DP-6"}) {
		t.Errorf("in-review after revert = %v", got)
	}
	evts, _ := d.Events(context.Background(), "DP-6")
	if len(evts) != 1 || evts[0].Topic != events.TopicTransitionReverted {
		t.Errorf("journal = %+v", evts)
	}
}

func TestReload(t *testing.T) {
	d := newDashboard(t, okUpdater(), Options{})
	if err := d.Reload(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}

	calls := 0
	src := sourceFunc(func(context.Context) (*normalize.Page, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("backend down")
		}
		return samplePage(), nil
	})
	d = newDashboard(t, okUpdater(), Options{Source: src})
	if err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := d.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if got := len(d.Issues()); got != 5 {
		t.Errorf("failed reload should keep the previous collection, got %d issues", got)
	}
}

func TestRunReloader_StopsOnCancel(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	src := sourceFunc(func(context.Context) (*normalize.Page, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return samplePage(), nil
	})
	d := newDashboard(t, okUpdater(), Options{Source: src})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.RunReloader(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunReloader did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls == 0 {
		t.Error("expected at least one reload")
	}
}

func TestClose_SharedBusStaysOpen(t *testing.T) {
	bus := events.NewBus(nil, nil)
	defer bus.Close()
	d, err := New(Options{Updater: okUpdater(), Bus: bus})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Publish(context.Background(), events.TopicIssuesLoaded, events.IssuesLoaded{}); err != nil {
		t.Errorf("shared bus was closed: %v", err)
	}
	if _, err := d.Move(context.Background(), transition.Drop{From: "todo", To: "done"}); !errors.Is(err, transition.ErrControllerClosed) {
		t.Errorf("Move after Close = %v", err)
	}
}

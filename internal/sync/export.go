package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/IdanRossman/jiranimo/internal/idgen"
	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/store"
)

// IssueSource supplies the issues exported on each sync.
type IssueSource interface {
	Issues() []*model.Issue
}

// IssueSourceFunc adapts a function to IssueSource.
type IssueSourceFunc func() []*model.Issue

// Issues calls f.
func (f IssueSourceFunc) Issues() []*model.Issue { return f() }

// header is the first JSONL record written by ExportJSONL.
type header struct {
	ID         string    `json:"id,omitempty"`
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	IssueCount int       `json:"issue_count"`
	EventCount int       `json:"event_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Snapshot is one export handed to every destination.
type Snapshot struct {
	ID     string
	Taken  time.Time
	Issues int
	Events int
	Data   []byte // JSONL, header first
}

// Export builds a snapshot of src and journal under a new snapshot ID.
func Export(ctx context.Context, src IssueSource, journal store.Store) (*Snapshot, error) {
	id, err := idgen.Snapshot()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	h, err := exportJSONL(ctx, id, src, journal, &buf)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:     id,
		Taken:  h.Timestamp,
		Issues: h.IssueCount,
		Events: h.EventCount,
		Data:   buf.Bytes(),
	}, nil
}

// ExportJSONL writes the issues of src followed by every journal event as
// JSONL to w. Issues are sorted by key; events keep journal order. A nil
// journal exports no events.
func ExportJSONL(ctx context.Context, src IssueSource, journal store.Store, w io.Writer) error {
	_, err := exportJSONL(ctx, "", src, journal, w)
	return err
}

func exportJSONL(ctx context.Context, id string, src IssueSource, journal store.Store, w io.Writer) (header, error) {
	issues := append([]*model.Issue(nil), src.Issues()...)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Key < issues[j].Key
	})

	var events []*model.Event
	if journal != nil {
		var err error
		events, err = journal.ListEvents(ctx, 0)
		if err != nil {
			return header{}, fmt.Errorf("list events: %w", err)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	h := header{
		ID:         id,
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		IssueCount: len(issues),
		EventCount: len(events),
	}
	if err := enc.Encode(h); err != nil {
		return h, fmt.Errorf("encode header: %w", err)
	}

	for _, iss := range issues {
		if err := enc.Encode(record{Type: "issue", Data: iss}); err != nil {
			return h, fmt.Errorf("encode issue %s: %w", iss.Key, err)
		}
	}

	for _, e := range events {
		if err := enc.Encode(record{Type: "event", Data: e}); err != nil {
			return h, fmt.Errorf("encode event %d: %w", e.ID, err)
		}
	}

	return h, nil
}

// Package sqlite implements the store.Store interface on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/store"
)

//go:embed schema.sql
var schemaFS embed.FS

const eventColumns = `id, topic, issue_key, actor, payload, created_at`

// SQLiteStore implements store.Store backed by a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the journal at path and applies the schema.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, e *model.Event) error {
	createdAt := s.now().UTC()
	var actor sql.NullString
	if e.Actor != "" {
		actor = sql.NullString{String: e.Actor, Valid: true}
	}
	var payload []byte
	if len(e.Payload) > 0 {
		payload = []byte(e.Payload)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (topic, issue_key, actor, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Topic, e.IssueKey, actor, payload, createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	e.ID = id
	e.CreatedAt = createdAt
	return nil
}

func (s *SQLiteStore) GetEvents(ctx context.Context, issueKey string) ([]*model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE issue_key = ? ORDER BY id ASC`, issueKey)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+eventColumns+` FROM (
				SELECT `+eventColumns+` FROM events ORDER BY id DESC LIMIT ?
			) ORDER BY id ASC`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	events := []*model.Event{}
	for rows.Next() {
		var (
			e         model.Event
			actor     sql.NullString
			payload   []byte
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Topic, &e.IssueKey, &actor, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Actor = actor.String
		if len(payload) > 0 {
			e.Payload = json.RawMessage(payload)
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("event %d created_at: %w", e.ID, err)
		}
		e.CreatedAt = t
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

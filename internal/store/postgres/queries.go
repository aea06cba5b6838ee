package postgres

import (
	"context"
	"database/sql"

	"github.com/IdanRossman/jiranimo/internal/model"
)

const eventColumns = `id, topic, issue_key, actor, payload, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, issue_key, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.IssueKey, nullString(e.Actor), jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, issueKey string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE issue_key = $1
		ORDER BY id ASC`,
		issueKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func queryListEvents(ctx context.Context, db executor, limit int) ([]*model.Event, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = db.QueryContext(ctx, `
			SELECT `+eventColumns+` FROM (
				SELECT `+eventColumns+`
				FROM events
				ORDER BY id DESC
				LIMIT $1
			) recent
			ORDER BY id ASC`,
			limit,
		)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT `+eventColumns+`
			FROM events
			ORDER BY id ASC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

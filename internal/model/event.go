package model

import (
	"encoding/json"
	"time"
)

// Event is a persisted journal record, mirroring what is published on the bus.
type Event struct {
	ID        int64           `json:"id"`
	Topic     string          `json:"topic"`
	IssueKey  string          `json:"issue_key"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Package history persists an audit trail of every question the service
// answered: the question, the statement the gate approved, and the execution
// outcome.
package history

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("history record not found")

// Record is one answered (or refused) request. SQL is the statement that
// ran (or the rejected candidate); RawSQL preserves the model completion
// before the gate touched it, so the audit trail shows both sides of every
// rewrite.
type Record struct {
	ID           int64     `json:"id"`
	ClientID     string    `json:"client_id"`
	Question     string    `json:"question"`
	SQL          string    `json:"sql"`
	RawSQL       string    `json:"raw_sql,omitempty"`
	Dialect      string    `json:"dialect,omitempty"`
	LimitApplied bool      `json:"limit_applied"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model,omitempty"`
	RowCount     int       `json:"row_count"`
	DurationMS   int64     `json:"duration_ms"`
	Status       string    `json:"status"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Statuses recorded per request.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusError    = "error"
)

type InsertInput struct {
	ClientID     string
	Question     string
	SQL          string
	RawSQL       string
	Dialect      string
	LimitApplied bool
	Provider     string
	Model        string
	RowCount     int
	DurationMS   int64
	Status       string
	Detail       string
}

// Store is the audit log behind the API. Implementations are safe for
// concurrent use.
type Store interface {
	Insert(ctx context.Context, in InsertInput) (Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Clear(ctx context.Context) (int64, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

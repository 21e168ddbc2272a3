// Package query defines the read-only execution capability. Engines receive
// only statements pre-approved by the safety gate, and additionally open their
// storage in a non-writable mode so a gate defect is never the sole line of
// defense.
package query

import (
	"context"
	"time"
)

type Request struct {
	SQL     string
	Dialect string
}

type Result struct {
	Columns  []string
	Rows     [][]any
	RowCount int
	Duration time.Duration
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
	// Ping verifies the underlying store is reachable.
	Ping(ctx context.Context) error
	Close() error
}

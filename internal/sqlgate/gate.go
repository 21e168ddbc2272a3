// Package sqlgate validates and rewrites untrusted SQL-like text before it may
// reach a database connection. The gate accepts a raw model completion and
// produces either a single read-only statement with a guaranteed row bound, or
// a typed rejection. It is pure and deterministic: no I/O, no hidden state.
package sqlgate

import (
	"fmt"
	"log/slog"
)

const defaultCeiling = 100

// Config carries the gate's policy knobs.
type Config struct {
	// Ceiling is the maximum row bound a SafeStatement may carry.
	Ceiling int64
	// RejectOversizedLimit switches the oversized-limit policy from
	// rewrite-down (default, fail-safe) to rejection.
	RejectOversizedLimit bool
}

// SafeStatement is the only value the executor may accept: one read query,
// canonically re-serialized, with a top-level row bound at or below the
// configured ceiling.
type SafeStatement struct {
	SQL          string
	Dialect      string
	Bound        int64
	LimitApplied bool
}

// Gate composes extraction, classification, and limit enforcement into a
// single validate-or-reject decision.
type Gate struct {
	dialect          Dialect
	ceiling          int64
	rejectOversized  bool
	logger           *slog.Logger
}

func New(dialect Dialect, cfg Config, logger *slog.Logger) (*Gate, error) {
	if dialect == nil {
		return nil, fmt.Errorf("dialect is required")
	}
	ceiling := cfg.Ceiling
	if ceiling <= 0 {
		ceiling = defaultCeiling
	}
	return &Gate{
		dialect:         dialect,
		ceiling:         ceiling,
		rejectOversized: cfg.RejectOversizedLimit,
		logger:          logger,
	}, nil
}

// Ceiling reports the configured row bound ceiling.
func (g *Gate) Ceiling() int64 { return g.ceiling }

// Dialect reports the dialect identifier statements are parsed against.
func (g *Gate) Dialect() string { return g.dialect.Name() }

// Validate runs the full pipeline on a raw completion. On failure the returned
// error is always a *Rejection; identical input always yields an identical
// result.
func (g *Gate) Validate(raw string) (SafeStatement, error) {
	candidate, rej := Extract(raw)
	if rej != nil {
		return SafeStatement{}, g.rejected(rej)
	}

	stmt, rej := Classify(g.dialect, candidate)
	if rej != nil {
		return SafeStatement{}, g.rejected(rej)
	}

	changed, rej := enforceLimit(stmt, g.ceiling, g.rejectOversized)
	if rej != nil {
		return SafeStatement{}, g.rejected(rej)
	}

	safe := SafeStatement{
		SQL:          stmt.String(),
		Dialect:      g.dialect.Name(),
		LimitApplied: changed,
	}
	if bound := stmt.Limit(); bound.Literal {
		safe.Bound = bound.Value
	}
	if g.logger != nil {
		g.logger.Debug("statement admitted",
			slog.String("candidate", truncate(candidate, maxOffendingLen)),
			slog.String("rewritten", truncate(safe.SQL, maxOffendingLen)),
			slog.Bool("limit_applied", changed),
		)
	}
	return safe, nil
}

func (g *Gate) rejected(rej *Rejection) error {
	if g.logger != nil {
		g.logger.Warn("statement rejected",
			slog.String("reason", string(rej.Reason)),
			slog.String("detail", rej.Detail),
			slog.String("offending", rej.Offending),
		)
	}
	return rej
}

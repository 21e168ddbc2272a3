// Package sqlite stores audit history in a local SQLite file. The file is
// separate from the queryable database so the audit log never shares a handle
// with the read-only query engine.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/askdb/askdb/internal/history"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS query_log (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id     TEXT NOT NULL DEFAULT '',
    question      TEXT NOT NULL,
    sql_text      TEXT NOT NULL,
    raw_sql       TEXT NOT NULL DEFAULT '',
    dialect       TEXT NOT NULL DEFAULT '',
    limit_applied INTEGER NOT NULL DEFAULT 0,
    provider      TEXT NOT NULL DEFAULT '',
    model         TEXT NOT NULL DEFAULT '',
    row_count     INTEGER NOT NULL DEFAULT 0,
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL,
    detail        TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at);
`

type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path and applies the schema.
// WAL keeps concurrent API reads from blocking inserts.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(initCtx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Insert(ctx context.Context, in history.InsertInput) (history.Record, error) {
	status := in.Status
	if status == "" {
		status = history.StatusOK
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
INSERT INTO query_log (client_id, question, sql_text, raw_sql, dialect, limit_applied, provider, model, row_count, duration_ms, status, detail, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ClientID, in.Question, in.SQL, in.RawSQL, in.Dialect, in.LimitApplied, in.Provider, in.Model, in.RowCount, in.DurationMS, status, in.Detail, now)
	if err != nil {
		return history.Record{}, fmt.Errorf("insert history record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return history.Record{}, fmt.Errorf("history insert id: %w", err)
	}

	return history.Record{
		ID:           id,
		ClientID:     in.ClientID,
		Question:     in.Question,
		SQL:          in.SQL,
		RawSQL:       in.RawSQL,
		Dialect:      in.Dialect,
		LimitApplied: in.LimitApplied,
		Provider:     in.Provider,
		Model:        in.Model,
		RowCount:     in.RowCount,
		DurationMS:   in.DurationMS,
		Status:       status,
		Detail:       in.Detail,
		CreatedAt:    now,
	}, nil
}

func (s *Store) Get(ctx context.Context, id int64) (history.Record, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, client_id, question, sql_text, raw_sql, dialect, limit_applied, provider, model, row_count, duration_ms, status, detail, created_at
FROM query_log
WHERE id = ?`, id)
	return scanRecord(row)
}

func (s *Store) List(ctx context.Context, limit int) ([]history.Record, error) {
	query := `
SELECT id, client_id, question, sql_text, raw_sql, dialect, limit_applied, provider, model, row_count, duration_ms, status, detail, created_at
FROM query_log
ORDER BY id DESC`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+`
LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]history.Record, 0)
	for rows.Next() {
		var record history.Record
		if err := rows.Scan(
			&record.ID,
			&record.ClientID,
			&record.Question,
			&record.SQL,
			&record.RawSQL,
			&record.Dialect,
			&record.LimitApplied,
			&record.Provider,
			&record.Model,
			&record.RowCount,
			&record.DurationMS,
			&record.Status,
			&record.Detail,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return records, nil
}

func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM query_log`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear history rows affected: %w", err)
	}
	return deleted, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecord(row *sql.Row) (history.Record, error) {
	var record history.Record
	if err := row.Scan(
		&record.ID,
		&record.ClientID,
		&record.Question,
		&record.SQL,
		&record.RawSQL,
		&record.Dialect,
		&record.LimitApplied,
		&record.Provider,
		&record.Model,
		&record.RowCount,
		&record.DurationMS,
		&record.Status,
		&record.Detail,
		&record.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Record{}, history.ErrNotFound
		}
		return history.Record{}, fmt.Errorf("scan history record: %w", err)
	}
	return record, nil
}

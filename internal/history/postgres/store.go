// Package postgres stores audit history in PostgreSQL for deployments where
// multiple API replicas share one audit log.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/askdb/askdb/internal/history"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, in history.InsertInput) (history.Record, error) {
	status := in.Status
	if status == "" {
		status = history.StatusOK
	}

	query := `
INSERT INTO query_log (client_id, question, sql_text, raw_sql, dialect, limit_applied, provider, model, row_count, duration_ms, status, detail)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at`

	record := history.Record{
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
	}
	if err := s.db.QueryRowContext(ctx, query,
		in.ClientID, in.Question, in.SQL, in.RawSQL, in.Dialect, in.LimitApplied, in.Provider, in.Model, in.RowCount, in.DurationMS, status, in.Detail,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return history.Record{}, fmt.Errorf("insert history record: %w", err)
	}
	return record, nil
}

func (s *Store) Get(ctx context.Context, id int64) (history.Record, error) {
	query := `
SELECT id, client_id, question, sql_text, raw_sql, dialect, limit_applied, provider, model, row_count, duration_ms, status, detail, created_at
FROM query_log
WHERE id = $1`

	var record history.Record
	if err := s.db.QueryRowContext(ctx, query, id).Scan(
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
		return history.Record{}, fmt.Errorf("get history record: %w", err)
	}
	return record, nil
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
LIMIT $1`, limit)
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

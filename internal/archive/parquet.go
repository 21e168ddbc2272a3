// Package archive snapshots the audit history into parquet files on an
// object store, so the query log can be cleared locally without losing the
// audit trail.
package archive

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/askdb/askdb/internal/history"
)

type EncodeResult struct {
	Data        []byte
	RecordCount int64
	FirstID     int64
	LastID      int64
}

type parquetRecord struct {
	ID              int64  `parquet:"id"`
	ClientID        string `parquet:"client_id"`
	Question        string `parquet:"question"`
	SQLText         string `parquet:"sql_text"`
	RawSQL          string `parquet:"raw_sql"`
	Dialect         string `parquet:"dialect"`
	LimitApplied    bool   `parquet:"limit_applied"`
	Provider        string `parquet:"provider"`
	Model           string `parquet:"model"`
	RowCount        int32  `parquet:"row_count"`
	DurationMS      int64  `parquet:"duration_ms"`
	Status          string `parquet:"status"`
	Detail          string `parquet:"detail"`
	CreatedAtUnixMs int64  `parquet:"created_at_unix_ms"`
}

// EncodeRecords serializes history records to a parquet payload. FirstID and
// LastID bound the archived id range regardless of input order.
func EncodeRecords(records []history.Record) (EncodeResult, error) {
	if len(records) == 0 {
		return EncodeResult{}, fmt.Errorf("records are required")
	}

	rows := make([]parquetRecord, 0, len(records))
	firstID := records[0].ID
	lastID := records[0].ID

	for _, record := range records {
		if record.ID < firstID {
			firstID = record.ID
		}
		if record.ID > lastID {
			lastID = record.ID
		}
		rows = append(rows, parquetRecord{
			ID:              record.ID,
			ClientID:        record.ClientID,
			Question:        record.Question,
			SQLText:         record.SQL,
			RawSQL:          record.RawSQL,
			Dialect:         record.Dialect,
			LimitApplied:    record.LimitApplied,
			Provider:        record.Provider,
			Model:           record.Model,
			RowCount:        int32(record.RowCount),
			DurationMS:      record.DurationMS,
			Status:          record.Status,
			Detail:          record.Detail,
			CreatedAtUnixMs: record.CreatedAt.UTC().UnixMilli(),
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetRecord](buf)
	if _, err := writer.Write(rows); err != nil {
		return EncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return EncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return EncodeResult{
		Data:        buf.Bytes(),
		RecordCount: int64(len(rows)),
		FirstID:     firstID,
		LastID:      lastID,
	}, nil
}

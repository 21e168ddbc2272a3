// Package schema introspects the queryable store so prompts can be grounded
// in real tables and columns. Introspection runs over the executor's
// read-only handle; it never opens its own writable connection.
package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/askdb/askdb/internal/translate"
)

// Introspect lists user tables with their columns and up to sampleRows sample
// rows per table. sampleRows <= 0 skips sampling.
func Introspect(ctx context.Context, db *sql.DB, sampleRows int) ([]translate.TableContext, error) {
	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}

	contexts := make([]translate.TableContext, 0, len(tables))
	for _, table := range tables {
		columns, err := listColumns(ctx, db, table)
		if err != nil {
			return nil, err
		}
		tableContext := translate.TableContext{TableName: table, Columns: columns}
		if sampleRows > 0 {
			samples, err := sampleTable(ctx, db, table, sampleRows)
			if err != nil {
				return nil, err
			}
			tableContext.SampleRows = samples
		}
		contexts = append(contexts, tableContext)
	}
	return contexts, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func listColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table info for %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var (
			cid          int
			name, ctype  string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column info for %q: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns for %q: %w", table, err)
	}
	return columns, nil
}

func sampleTable(ctx context.Context, db *sql.DB, table string, limit int) ([][]any, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), limit))
	if err != nil {
		return nil, fmt.Errorf("sample rows for %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sample columns for %q: %w", table, err)
	}

	samples := make([][]any, 0, limit)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan sample row for %q: %w", table, err)
		}
		for i, value := range values {
			if b, ok := value.([]byte); ok {
				values[i] = string(b)
			}
		}
		samples = append(samples, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples for %q: %w", table, err)
	}
	return samples, nil
}

func quoteIdent(value string) string {
	quoted := `"`
	for _, r := range value {
		if r == '"' {
			quoted += `""`
			continue
		}
		quoted += string(r)
	}
	return quoted + `"`
}

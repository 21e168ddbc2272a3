package sqlgate

import (
	"strconv"
	"strings"

	rsql "github.com/rqlite/sql"
)

// SQLiteDialect parses candidates with the rqlite SQLite parser. It is the
// default Dialect; other engines with SQLite-compatible read syntax (DuckDB)
// can execute its output as-is.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) Parse(text string) (Statement, error) {
	node, err := rsql.NewParser(strings.NewReader(text)).ParseStatement()
	if err != nil {
		return nil, err
	}
	return &sqliteStatement{node: node}, nil
}

type sqliteStatement struct {
	node rsql.Statement
}

func (s *sqliteStatement) Kind() StatementKind {
	switch s.node.(type) {
	case *rsql.SelectStatement:
		return KindReadQuery
	case *rsql.InsertStatement, *rsql.UpdateStatement, *rsql.DeleteStatement:
		return KindWrite
	default:
		// DDL, transaction control, and administrative statements are caught
		// by keyword pre-classification before parsing; anything that still
		// lands here stays unknown and is rejected by the classifier.
		return KindUnknown
	}
}

// Limit inspects the outermost statement's LIMIT clause only. Bounds nested in
// subqueries or CTE bodies do not count as a top-level limit.
func (s *sqliteStatement) Limit() LimitBound {
	sel, ok := s.node.(*rsql.SelectStatement)
	if !ok || sel.LimitExpr == nil {
		return LimitBound{}
	}
	lit, ok := sel.LimitExpr.(*rsql.NumberLit)
	if !ok {
		return LimitBound{Present: true}
	}
	value, err := strconv.ParseInt(lit.Value, 10, 64)
	if err != nil {
		return LimitBound{Present: true}
	}
	return LimitBound{Present: true, Literal: true, Value: value}
}

func (s *sqliteStatement) SetLimit(n int64) {
	sel, ok := s.node.(*rsql.SelectStatement)
	if !ok {
		return
	}
	sel.LimitExpr = &rsql.NumberLit{Value: strconv.FormatInt(n, 10)}
}

func (s *sqliteStatement) String() string {
	return s.node.String()
}

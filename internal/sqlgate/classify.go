package sqlgate

import "strings"

// keywordKinds pre-classifies statements by their leading keyword. This covers
// statement families the SQLite parser does not model (PRAGMA, ATTACH, …) and
// lets obvious non-reads fail with not_a_read_query instead of parse_error.
var keywordKinds = map[string]StatementKind{
	"insert": KindWrite, "update": KindWrite, "delete": KindWrite, "replace": KindWrite,
	"create": KindDDL, "drop": KindDDL, "alter": KindDDL,
	"begin": KindTransaction, "commit": KindTransaction, "rollback": KindTransaction,
	"end": KindTransaction, "savepoint": KindTransaction, "release": KindTransaction,
	"pragma": KindAdministrative, "attach": KindAdministrative, "detach": KindAdministrative,
	"vacuum": KindAdministrative, "analyze": KindAdministrative, "reindex": KindAdministrative,
	"grant": KindAdministrative, "revoke": KindAdministrative,
	"explain": KindAdministrative,
}

// Classify parses a candidate against the dialect and admits only read
// queries. Parser faults are converted to parse_error; nothing escapes as a
// panic or an untyped failure.
func Classify(dialect Dialect, candidate string) (Statement, *Rejection) {
	if kind, ok := keywordKind(candidate); ok && kind != KindReadQuery {
		return nil, reject(ReasonNotAReadQuery, "statement kind "+kind.String()+" is not allowed", candidate)
	}

	stmt, err := safeParse(dialect, candidate)
	if err != nil {
		return nil, reject(ReasonParseError, err.Error(), candidate)
	}
	if kind := stmt.Kind(); kind != KindReadQuery {
		return nil, reject(ReasonNotAReadQuery, "statement kind "+kind.String()+" is not allowed", candidate)
	}
	return stmt, nil
}

func keywordKind(candidate string) (StatementKind, bool) {
	fields := strings.Fields(candidate)
	if len(fields) == 0 {
		return KindUnknown, false
	}
	kind, ok := keywordKinds[strings.ToLower(fields[0])]
	return kind, ok
}

// safeParse shields the gate from a misbehaving parser: a panic inside Parse
// becomes an ordinary parse error.
func safeParse(dialect Dialect, candidate string) (stmt Statement, err error) {
	defer func() {
		if r := recover(); r != nil {
			stmt = nil
			err = &panicError{value: r}
		}
	}()
	return dialect.Parse(candidate)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return "parser fault"
}

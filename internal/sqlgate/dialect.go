package sqlgate

// StatementKind tags the root node of a parsed statement.
type StatementKind int

const (
	KindUnknown StatementKind = iota
	KindReadQuery
	KindWrite
	KindDDL
	KindTransaction
	KindAdministrative
)

func (k StatementKind) String() string {
	switch k {
	case KindReadQuery:
		return "read-query"
	case KindWrite:
		return "write"
	case KindDDL:
		return "ddl"
	case KindTransaction:
		return "transaction-control"
	case KindAdministrative:
		return "administrative"
	default:
		return "unknown"
	}
}

// LimitBound describes the top-level row-limiting clause of a read query.
// Present+!Literal means a bound exists but its value cannot be verified
// (an expression rather than a number literal).
type LimitBound struct {
	Present bool
	Literal bool
	Value   int64
}

// Statement is one parsed SQL statement. Implementations wrap a concrete
// parser's tree; the gate only ever manipulates statements through this
// interface so the parser choice never leaks into its control flow.
type Statement interface {
	Kind() StatementKind
	Limit() LimitBound
	SetLimit(n int64)
	// String re-serializes the (possibly rewritten) statement tree.
	String() string
}

// Dialect is the pluggable parsing capability: text in, statement tree or
// parse error out. Parse must never panic on malformed input.
type Dialect interface {
	Name() string
	Parse(text string) (Statement, error)
}

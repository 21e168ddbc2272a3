package sqlgate

import "fmt"

// Reason is the closed set of gate rejection outcomes. Every rejection is an
// expected result, not a fault; callers switch on Reason for reporting.
type Reason string

const (
	ReasonNoStatementFound   Reason = "no_statement_found"
	ReasonMultipleStatements Reason = "multiple_statements"
	ReasonNotAReadQuery      Reason = "not_a_read_query"
	ReasonParseError         Reason = "parse_error"
	ReasonLimitExceedsPolicy Reason = "limit_exceeds_policy"
)

// maxOffendingLen bounds how much of the offending input a Rejection retains
// for audit logging.
const maxOffendingLen = 200

// Rejection explains why the gate refused an input. It implements error so the
// gate can return it through the ordinary error path while keeping the closed
// taxonomy intact.
type Rejection struct {
	Reason    Reason
	Detail    string
	Offending string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

func reject(reason Reason, detail, offending string) *Rejection {
	return &Rejection{
		Reason:    reason,
		Detail:    detail,
		Offending: truncate(offending, maxOffendingLen),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package sqlgate

import "fmt"

// enforceLimit guarantees a top-level row bound no greater than ceiling on a
// read-query statement. Under the default policy this never fails: oversized,
// negative, and non-literal bounds are rewritten down to the ceiling. With
// rejectOversized set, an explicit literal bound above the ceiling is rejected
// with limit_exceeds_policy instead of lowered.
func enforceLimit(stmt Statement, ceiling int64, rejectOversized bool) (changed bool, rej *Rejection) {
	bound := stmt.Limit()
	switch {
	case !bound.Present:
		stmt.SetLimit(ceiling)
		return true, nil
	case !bound.Literal:
		// A dynamic limit expression cannot be verified; replace it.
		stmt.SetLimit(ceiling)
		return true, nil
	case bound.Value < 0:
		// SQLite treats a negative LIMIT as unbounded.
		stmt.SetLimit(ceiling)
		return true, nil
	case bound.Value > ceiling:
		if rejectOversized {
			return false, reject(ReasonLimitExceedsPolicy,
				fmt.Sprintf("limit %d exceeds ceiling %d", bound.Value, ceiling), stmt.String())
		}
		stmt.SetLimit(ceiling)
		return true, nil
	default:
		// A tighter bound chosen by the caller or the model is respected.
		return false, nil
	}
}

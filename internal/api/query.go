package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
)

type queryRequest struct {
	SQL string `json:"sql"`
}

type queryResponse struct {
	SQL        string   `json:"sql"`
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	RowCount   int      `json:"row_count"`
	DurationMS int64    `json:"duration_ms"`
	Remaining  int      `json:"rate_limit_remaining"`
}

// handleQuery runs caller-written SQL. The statement goes through the same
// gate as model output, so hand-written writes are rejected identically.
func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Gate == nil || deps.Engine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, "asker"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	clientID := clientFromRequest(r)
	remaining, ok := admitOrReject(deps, w, r, clientID)
	if !ok {
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	safe, err := deps.Gate.Validate(request.SQL)
	if err != nil {
		rejection := asRejection(err)
		recordOutcome(deps, r, history.InsertInput{
			ClientID: clientID,
			SQL:      strings.TrimSpace(request.SQL),
			RawSQL:   request.SQL,
			Dialect:  deps.Gate.Dialect(),
			Status:   history.StatusRejected,
			Detail:   string(rejection.Reason),
		})
		observability.ObserveGateRejected(string(rejection.Reason))
		writeGateRejection(w, r, rejection)
		return
	}
	observability.ObserveGateAccepted(safe.LimitApplied)

	start := time.Now()
	result, err := deps.Engine.Execute(r.Context(), query.Request{SQL: safe.SQL, Dialect: safe.Dialect})
	if err != nil {
		recordOutcome(deps, r, history.InsertInput{
			ClientID:     clientID,
			SQL:          safe.SQL,
			RawSQL:       request.SQL,
			Dialect:      safe.Dialect,
			LimitApplied: safe.LimitApplied,
			Status:       history.StatusError,
			Detail:       err.Error(),
		})
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error()})
		return
	}
	if result.Duration <= 0 {
		result.Duration = time.Since(start)
	}
	observability.ObserveQueryLatency(result.Duration)

	recordOutcome(deps, r, history.InsertInput{
		ClientID:     clientID,
		SQL:          safe.SQL,
		RawSQL:       request.SQL,
		Dialect:      safe.Dialect,
		LimitApplied: safe.LimitApplied,
		RowCount:     result.RowCount,
		DurationMS:   result.Duration.Milliseconds(),
		Status:       history.StatusOK,
	})

	writeJSON(w, http.StatusOK, queryResponse{
		SQL:        safe.SQL,
		Columns:    result.Columns,
		Rows:       result.Rows,
		RowCount:   result.RowCount,
		DurationMS: result.Duration.Milliseconds(),
		Remaining:  remaining,
	})
}

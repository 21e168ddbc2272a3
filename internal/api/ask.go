package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlgate"
	"github.com/askdb/askdb/internal/translate"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question string `json:"question"`
	// SQL is the statement that actually ran; RawSQL is the model output
	// before the gate stripped fences and applied the row limit.
	SQL        string   `json:"sql"`
	RawSQL     string   `json:"raw_sql,omitempty"`
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	RowCount   int      `json:"row_count"`
	Provider   string   `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
	DurationMS int64    `json:"duration_ms"`
	HistoryID  int64    `json:"history_id,omitempty"`
	Remaining  int      `json:"rate_limit_remaining"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Gate == nil || deps.Translator == nil || deps.Engine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "ask dependencies are not configured", false, nil)
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

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}

	question := strings.TrimSpace(request.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	if deps.MaxInputChars > 0 && len(question) > deps.MaxInputChars {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_TOO_LONG", "question exceeds the input limit", false, map[string]any{
			"max_chars": deps.MaxInputChars,
			"got_chars": len(question),
		})
		return
	}

	tables, err := loadSchemaContext(deps, r)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_ERROR", "failed to introspect schema", true, map[string]any{"details": err.Error()})
		return
	}

	translateStart := time.Now()
	translation, err := deps.Translator.Translate(r.Context(), translate.Request{
		Question: question,
		Dialect:  deps.Gate.Dialect(),
		Tables:   tables,
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "model translation failed", true, map[string]any{"details": err.Error()})
		return
	}
	observability.ObserveTranslateLatency(translation.Provider, time.Since(translateStart))

	safe, err := deps.Gate.Validate(translation.SQL)
	if err != nil {
		rejection := asRejection(err)
		recordOutcome(deps, r, history.InsertInput{
			ClientID: clientID,
			Question: question,
			SQL:      strings.TrimSpace(translation.SQL),
			RawSQL:   translation.SQL,
			Dialect:  deps.Gate.Dialect(),
			Provider: translation.Provider,
			Model:    translation.Model,
			Status:   history.StatusRejected,
			Detail:   string(rejection.Reason),
		})
		observability.ObserveGateRejected(string(rejection.Reason))
		writeGateRejection(w, r, rejection)
		return
	}
	observability.ObserveGateAccepted(safe.LimitApplied)

	result, err := deps.Engine.Execute(r.Context(), query.Request{SQL: safe.SQL, Dialect: safe.Dialect})
	if err != nil {
		recordOutcome(deps, r, history.InsertInput{
			ClientID:     clientID,
			Question:     question,
			SQL:          safe.SQL,
			RawSQL:       translation.SQL,
			Dialect:      safe.Dialect,
			LimitApplied: safe.LimitApplied,
			Provider:     translation.Provider,
			Model:        translation.Model,
			Status:       history.StatusError,
			Detail:       err.Error(),
		})
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error()})
		return
	}
	observability.ObserveQueryLatency(result.Duration)

	recorded := recordOutcome(deps, r, history.InsertInput{
		ClientID:     clientID,
		Question:     question,
		SQL:          safe.SQL,
		RawSQL:       translation.SQL,
		Dialect:      safe.Dialect,
		LimitApplied: safe.LimitApplied,
		Provider:     translation.Provider,
		Model:        translation.Model,
		RowCount:     result.RowCount,
		DurationMS:   result.Duration.Milliseconds(),
		Status:       history.StatusOK,
	})

	writeJSON(w, http.StatusOK, askResponse{
		Question:   question,
		SQL:        safe.SQL,
		RawSQL:     strings.TrimSpace(translation.SQL),
		Columns:    result.Columns,
		Rows:       result.Rows,
		RowCount:   result.RowCount,
		Provider:   translation.Provider,
		Model:      translation.Model,
		DurationMS: result.Duration.Milliseconds(),
		HistoryID:  recorded.ID,
		Remaining:  remaining,
	})
}

func admitOrReject(deps Dependencies, w http.ResponseWriter, r *http.Request, clientID string) (int, bool) {
	if deps.Limiter == nil {
		return 0, true
	}
	decision := deps.Limiter.Admit(clientID)
	if decision.Allowed {
		return decision.Remaining, true
	}
	observability.IncrementRateLimitDenied()
	retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(r.Context(), w, http.StatusTooManyRequests, "RATE_LIMITED", "request rate limit exceeded", true, map[string]any{
		"retry_after_seconds": retryAfter,
	})
	return 0, false
}

func loadSchemaContext(deps Dependencies, r *http.Request) ([]translate.TableContext, error) {
	if deps.SchemaDB == nil {
		return nil, nil
	}
	return schema.Introspect(r.Context(), deps.SchemaDB, deps.SchemaSampleRows)
}

func asRejection(err error) *sqlgate.Rejection {
	var rejection *sqlgate.Rejection
	if errors.As(err, &rejection) {
		return rejection
	}
	return &sqlgate.Rejection{Reason: sqlgate.ReasonParseError, Detail: err.Error()}
}

func writeGateRejection(w http.ResponseWriter, r *http.Request, rejection *sqlgate.Rejection) {
	writeError(r.Context(), w, http.StatusBadRequest, "GATE_REJECTED", rejection.Detail, false, map[string]any{
		"reason":    string(rejection.Reason),
		"offending": rejection.Offending,
	})
}

// recordOutcome writes the audit record. Failures are logged, not surfaced;
// an answered question should not turn into an error because the log write
// lost a race.
func recordOutcome(deps Dependencies, r *http.Request, in history.InsertInput) history.Record {
	if deps.History == nil {
		return history.Record{}
	}
	record, err := deps.History.Insert(r.Context(), in)
	if err != nil && deps.Logger != nil {
		deps.Logger.WarnContext(r.Context(), "history insert failed",
			slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	return record
}

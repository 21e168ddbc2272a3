package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/askdb/askdb/internal/archive"
	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/history"
)

func seedHistory(t *testing.T, store *memoryHistory, questions ...string) {
	t.Helper()
	for _, question := range questions {
		if _, err := store.Insert(context.Background(), history.InsertInput{Question: question, SQL: "SELECT 1", Status: history.StatusOK}); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}
}

func TestHistoryListNewestFirst(t *testing.T) {
	deps := testDeps(t)
	store := deps.History.(*memoryHistory)
	seedHistory(t, store, "first", "second", "third")
	handler := NewHandler(testConfig(t), deps)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history?limit=2", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Records []history.Record `json:"records"`
		Count   int              `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d", body.Count)
	}
	if body.Records[0].Question != "third" {
		t.Fatalf("first record = %q", body.Records[0].Question)
	}
}

func TestHistoryListRejectsBadLimit(t *testing.T) {
	handler := NewHandler(testConfig(t), testDeps(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history?limit=-3", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHistoryGetByID(t *testing.T) {
	deps := testDeps(t)
	store := deps.History.(*memoryHistory)
	seedHistory(t, store, "only one")
	handler := NewHandler(testConfig(t), deps)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history/1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var record history.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if record.Question != "only one" {
		t.Fatalf("question = %q", record.Question)
	}
}

func TestHistoryGetMissingRecord(t *testing.T) {
	handler := NewHandler(testConfig(t), testDeps(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history/99", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHistoryClear(t *testing.T) {
	deps := testDeps(t)
	store := deps.History.(*memoryHistory)
	seedHistory(t, store, "a", "b")
	handler := NewHandler(testConfig(t), deps)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/history", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !store.cleared {
		t.Fatal("store not cleared")
	}
}

func TestHistoryClearRequiresAdminRole(t *testing.T) {
	deps := testDeps(t)
	handler := NewHandler(testConfig(t), deps)

	req := httptest.NewRequest(http.MethodDelete, "/v1/history", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{ClientID: "team-data", Roles: []string{auth.RoleAsker}}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHistoryArchiveTriggersRunner(t *testing.T) {
	deps := testDeps(t)
	runner := &fakeArchiveRunner{result: archive.Result{Key: "audit/askdb-api/date=2026-08-24/history-1-3-120000.parquet", RecordCount: 3}}
	deps.Archive = runner
	handler := NewHandler(testConfig(t), deps)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/history/archive", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if runner.calls != 1 {
		t.Fatalf("runner calls = %d", runner.calls)
	}

	var result archive.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.RecordCount != 3 {
		t.Fatalf("record count = %d", result.RecordCount)
	}
}

func TestHistoryArchiveNotConfigured(t *testing.T) {
	handler := NewHandler(testConfig(t), testDeps(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/history/archive", nil))
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHistoryArchiveSurfacesFailure(t *testing.T) {
	deps := testDeps(t)
	deps.Archive = &fakeArchiveRunner{err: errors.New("bucket unavailable")}
	handler := NewHandler(testConfig(t), deps)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/history/archive", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/askdb/askdb/internal/history"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreInsertAndGet(t *testing.T) {
	store := openTestStore(t)

	inserted, err := store.Insert(context.Background(), history.InsertInput{
		ClientID:     "tenant-a",
		Question:     "top students by marks",
		SQL:          "SELECT NAME FROM STUDENT ORDER BY MARKS DESC LIMIT 100",
		RawSQL:       "```sql\nSELECT NAME FROM STUDENT ORDER BY MARKS DESC\n```",
		Dialect:      "sqlite",
		LimitApplied: true,
		Provider:     "ollama",
		Model:        "llama3",
		RowCount:     3,
		DurationMS:   12,
		Status:       history.StatusOK,
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatal("insert returned zero id")
	}

	got, err := store.Get(context.Background(), inserted.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Question != inserted.Question || got.SQL != inserted.SQL {
		t.Fatalf("record mismatch: %+v", got)
	}
	if got.RawSQL != inserted.RawSQL {
		t.Fatalf("raw sql = %q", got.RawSQL)
	}
	if got.Dialect != "sqlite" || !got.LimitApplied {
		t.Fatalf("dialect/limit = %q/%v", got.Dialect, got.LimitApplied)
	}
	if got.Status != history.StatusOK {
		t.Fatalf("status = %q", got.Status)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}

func TestStoreGetMissingRecord(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get(context.Background(), 42); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := openTestStore(t)

	for _, question := range []string{"first", "second", "third"} {
		if _, err := store.Insert(context.Background(), history.InsertInput{Question: question, SQL: "SELECT 1", Status: history.StatusOK}); err != nil {
			t.Fatalf("insert %q: %v", question, err)
		}
	}

	records, err := store.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d", len(records))
	}
	if records[0].Question != "third" || records[1].Question != "second" {
		t.Fatalf("order = %q, %q", records[0].Question, records[1].Question)
	}
}

func TestStoreRecordsRejections(t *testing.T) {
	store := openTestStore(t)

	inserted, err := store.Insert(context.Background(), history.InsertInput{
		Question: "drop everything",
		SQL:      "DROP TABLE STUDENT",
		RawSQL:   "DROP TABLE STUDENT",
		Status:   history.StatusRejected,
		Detail:   "not_a_read_query",
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	got, err := store.Get(context.Background(), inserted.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != history.StatusRejected || got.Detail != "not_a_read_query" {
		t.Fatalf("record = %+v", got)
	}
	if got.LimitApplied {
		t.Fatal("rejected statement should not report an applied limit")
	}
}

func TestStoreClear(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.Insert(context.Background(), history.InsertInput{Question: "q", SQL: "SELECT 1", Status: history.StatusOK}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	deleted, err := store.Clear(context.Background())
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted = %d", deleted)
	}

	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records remain: %d", len(records))
	}
}

package demo

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func countStudents(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		t.Fatalf("open seeded db: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM STUDENT`).Scan(&count); err != nil {
		t.Fatalf("count students: %v", err)
	}
	return count
}

func TestSeedCreatesRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student.db")

	cfg := DefaultConfig()
	cfg.Path = path
	inserted, err := Seed(context.Background(), cfg)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if inserted != len(roster) {
		t.Fatalf("inserted = %d, want %d", inserted, len(roster))
	}
	if got := countStudents(t, path); got != len(roster) {
		t.Fatalf("rows = %d, want %d", got, len(roster))
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		t.Fatalf("open seeded db: %v", err)
	}
	defer db.Close()
	var name string
	if err := db.QueryRow(`SELECT NAME FROM STUDENT ORDER BY MARKS DESC LIMIT 1`).Scan(&name); err != nil {
		t.Fatalf("query top student: %v", err)
	}
	if name != "Rifa" {
		t.Fatalf("top student = %q", name)
	}
}

func TestSeedAddsGeneratedStudents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student.db")

	cfg := DefaultConfig()
	cfg.Path = path
	cfg.ExtraStudents = 25
	inserted, err := Seed(context.Background(), cfg)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if inserted != len(roster)+25 {
		t.Fatalf("inserted = %d", inserted)
	}
}

func TestSeedOverwriteReplacesExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student.db")

	cfg := DefaultConfig()
	cfg.Path = path
	if _, err := Seed(context.Background(), cfg); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := Seed(context.Background(), cfg); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if got := countStudents(t, path); got != len(roster) {
		t.Fatalf("rows after reseed = %d, want %d", got, len(roster))
	}
}

func TestSeedWithoutOverwriteAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student.db")

	cfg := DefaultConfig()
	cfg.Path = path
	if _, err := Seed(context.Background(), cfg); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	cfg.Overwrite = false
	if _, err := Seed(context.Background(), cfg); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if got := countStudents(t, path); got != 2*len(roster) {
		t.Fatalf("rows after append = %d, want %d", got, 2*len(roster))
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	env := map[string]string{
		"ASKDB_SEED_PATH":           "/tmp/demo.db",
		"ASKDB_SEED_EXTRA_STUDENTS": "10",
		"ASKDB_SEED_RANDOM_SEED":    "42",
		"ASKDB_SEED_OVERWRITE":      "false",
	}
	cfg, err := LoadConfigFromEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Path != "/tmp/demo.db" || cfg.ExtraStudents != 10 || cfg.Seed != 42 || cfg.Overwrite {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestLoadConfigRejectsNegativeExtras(t *testing.T) {
	_, err := LoadConfigFromEnv(func(key string) (string, bool) {
		if key == "ASKDB_SEED_EXTRA_STUDENTS" {
			return "-1", true
		}
		return "", false
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

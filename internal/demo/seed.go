// Package demo provisions the sample STUDENT database used by the
// quickstart docs and local smoke tests.
package demo

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	// Path is the sqlite file to create or refresh.
	Path string
	// ExtraStudents adds randomly generated rows on top of the fixed roster.
	ExtraStudents int
	Seed          int64
	// Overwrite drops an existing STUDENT table before seeding.
	Overwrite bool
}

func DefaultConfig() Config {
	return Config{
		Path:          "student.db",
		ExtraStudents: 0,
		Seed:          1,
		Overwrite:     true,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyString(lookup, "ASKDB_SEED_PATH", &cfg.Path); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_SEED_EXTRA_STUDENTS", &cfg.ExtraStudents); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "ASKDB_SEED_RANDOM_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_SEED_OVERWRITE", &cfg.Overwrite); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.Path) == "" {
		return Config{}, fmt.Errorf("ASKDB_SEED_PATH is required")
	}
	if cfg.ExtraStudents < 0 {
		return Config{}, fmt.Errorf("ASKDB_SEED_EXTRA_STUDENTS must be >= 0")
	}
	return cfg, nil
}

type student struct {
	name    string
	class   string
	section string
	marks   int
}

// roster is the fixed demo data set. Keep it stable: the docs and the
// example questions reference these names.
var roster = []student{
	{"Rifa", "Data Science", "A", 92},
	{"Arun", "Data Science", "B", 78},
	{"Meera", "DevOps", "A", 85},
	{"Tomás", "DevOps", "B", 64},
	{"Lena", "Security", "A", 88},
	{"Kofi", "Security", "B", 71},
}

// Seed creates the STUDENT table at cfg.Path and fills it with the demo
// roster plus cfg.ExtraStudents generated rows. Returns the total number
// of rows inserted.
func Seed(ctx context.Context, cfg Config) (int, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", cfg.Path))
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	if cfg.Overwrite {
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS STUDENT`); err != nil {
			return 0, fmt.Errorf("drop existing table: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS STUDENT (NAME TEXT, CLASS TEXT, SECTION TEXT, MARKS INTEGER)`); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	rows := append([]student(nil), roster...)
	rows = append(rows, generateStudents(cfg.Seed, cfg.ExtraStudents)...)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO STUDENT (NAME, CLASS, SECTION, MARKS) VALUES (?, ?, ?, ?)`,
			s.name, s.class, s.section, s.marks,
		); err != nil {
			return 0, fmt.Errorf("insert student %q: %w", s.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed transaction: %w", err)
	}
	return len(rows), nil
}

func generateStudents(seed int64, count int) []student {
	if count <= 0 {
		return nil
	}
	rnd := rand.New(rand.NewSource(seed))
	classes := []string{"Data Science", "DevOps", "Security", "Networking"}
	sections := []string{"A", "B", "C"}
	out := make([]student, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, student{
			name:    fmt.Sprintf("student-%04d", i+1),
			class:   classes[rnd.Intn(len(classes))],
			section: sections[rnd.Intn(len(sections))],
			marks:   40 + rnd.Intn(61),
		})
	}
	return out
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

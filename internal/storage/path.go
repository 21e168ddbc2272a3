package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildArchivePath names an audit archive object. Archives are laid out by
// day so retention tooling can prune whole date prefixes.
func BuildArchivePath(service string, archivedAt time.Time, firstID, lastID int64) (string, error) {
	if err := validatePathComponent(service, "service name"); err != nil {
		return "", err
	}
	if firstID <= 0 || lastID < firstID {
		return "", fmt.Errorf("invalid archive id range %d..%d", firstID, lastID)
	}

	ts := archivedAt.UTC()
	return path.Join(
		"audit",
		service,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("history-%d-%d-%s.parquet", firstID, lastID, ts.Format("150405")),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}

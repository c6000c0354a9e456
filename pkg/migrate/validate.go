package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks that every SQL migration in dir follows the goose naming
// convention, carries both Up and Down sections, and that no two files share a
// version prefix.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m := migrationNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			return fmt.Errorf("migration %q does not match <version>_<name>.sql", entry.Name())
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s: %q and %q", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %q: %w", entry.Name(), err)
		}
		content := string(body)
		if !strings.Contains(content, "-- +goose Up") {
			return fmt.Errorf("migration %q is missing a goose Up section", entry.Name())
		}
		if !strings.Contains(content, "-- +goose Down") {
			return fmt.Errorf("migration %q is missing a goose Down section", entry.Name())
		}
	}

	if len(seen) == 0 {
		return fmt.Errorf("no SQL migrations found in %q", dir)
	}
	return nil
}

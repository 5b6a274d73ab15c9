package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

// Every up migration must have a matching down migration so the schema can
// be rolled back release by release.
func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "sql")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migrations found")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}

	for base := range ups {
		if !downs[base] {
			t.Errorf("migration %s has no down script", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("migration %s has no up script", base)
		}
	}
}

func TestInitialMigrationCreatesPostsTable(t *testing.T) {
	data, err := fs.ReadFile(migrationFS, "sql/0001_create_posts.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sqlText := string(data)
	for _, want := range []string{"CREATE TABLE", "posts", "created_at", "author_id"} {
		if !strings.Contains(sqlText, want) {
			t.Errorf("migration missing %q", want)
		}
	}
}

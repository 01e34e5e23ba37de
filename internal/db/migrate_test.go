package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	got := SplitStatements("CREATE TABLE a (id INT);\n\n  ;CREATE INDEX b ON a (id);\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(got), got)
	}
	if got[1] != "CREATE INDEX b ON a (id)" {
		t.Fatalf("unexpected statement %q", got[1])
	}
}

func TestEmbeddedMigrationsCoverTables(t *testing.T) {
	files, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("expected embedded migrations, got %v (%v)", files, err)
	}
	content, err := migrationFS.ReadFile("migrations/0001_init.up.sql")
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	for _, table := range []string{"users", "loans", "loan_applications"} {
		if !strings.Contains(string(content), "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Fatalf("init migration missing table %s", table)
		}
	}
}

package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every pending *.up.sql file in name order. Each file runs in
// its own transaction and is recorded in schema_migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) ([]string, error) {
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	applied := make([]string, 0, len(files))
	for _, file := range files {
		version := strings.TrimSuffix(strings.TrimPrefix(file, "migrations/"), ".up.sql")

		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		content, err := migrationFS.ReadFile(file)
		if err != nil {
			return applied, err
		}
		if err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			for _, stmt := range SplitStatements(string(content)) {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("exec %s: %w", version, err)
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		}); err != nil {
			return applied, err
		}
		if logger != nil {
			logger.Info("migration applied", "version", version)
		}
		applied = append(applied, version)
	}
	return applied, nil
}

// SplitStatements breaks a migration file on semicolons. Migrations must not
// contain semicolons inside string literals or function bodies.
func SplitStatements(content string) []string {
	out := make([]string, 0)
	for _, stmt := range strings.Split(content, ";") {
		if q := strings.TrimSpace(stmt); q != "" {
			out = append(out, q)
		}
	}
	return out
}

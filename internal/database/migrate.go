package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending .up.sql migration in version order. Each
// migration runs in its own transaction together with its version record, so
// a failure leaves the schema at the last fully-applied version.
func Migrate(database *sql.DB) error {
	if _, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := appliedVersions(database)
	if err != nil {
		return err
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		version := extractVersion(file)
		if applied[version] {
			continue
		}

		content, err := migrationsFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", file, err)
		}

		if err := applyMigration(database, version, string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", file, err)
		}
		slog.Info("applied migration", "version", version, "file", file)
	}

	return nil
}

func appliedVersions(database *sql.DB) (map[int]bool, error) {
	rows, err := database.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("loading applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func applyMigration(database *sql.DB, version int, content string) error {
	transaction, err := database.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer transaction.Rollback()

	if _, err := transaction.Exec(content); err != nil {
		return err
	}
	if _, err := transaction.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("recording version: %w", err)
	}
	return transaction.Commit()
}

func extractVersion(file string) int {
	var version int
	fmt.Sscanf(path.Base(file), "%d_", &version)
	return version
}

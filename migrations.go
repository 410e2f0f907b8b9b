package ntfy

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// migrationTablePrefix is the table prefix written in MigrationFiles.
const migrationTablePrefix = "ntfy_"

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MigrationFiles contains the SQL schema for the watermark and message
// tables, one directory per driver ("sqlite3", "mysql", "postgres").
// Users can apply these with their preferred migration tool, or call
// Migrate for the built-in idempotent runner.
//
// Example with goose:
//
//	sub, _ := fs.Sub(ntfy.MigrationFiles, "migrations/postgres")
//	goose.SetBaseFS(sub)
//	if err := goose.Up(db, "."); err != nil {
//	    log.Fatal(err)
//	}
//
//go:embed migrations/*/*.sql
var MigrationFiles embed.FS

// Migrate applies every migration for driverName in file-name order.
// The statements use IF NOT EXISTS, so running Migrate again is harmless.
func Migrate(ctx context.Context, db *sql.DB, driverName string) error {
	return MigrateWithPrefix(ctx, db, driverName, migrationTablePrefix)
}

// MigrateWithPrefix is Migrate for repositories built with a custom table
// prefix. Table and index names in MigrationFiles are rewritten from
// "ntfy_" to prefix.
func MigrateWithPrefix(ctx context.Context, db *sql.DB, driverName, prefix string) error {
	if err := validation.Validate(prefix, validation.Match(tablePrefixPattern)); err != nil {
		return NewErrorWithCause(ErrCodeConfiguration, fmt.Sprintf("invalid table prefix %q", prefix), err)
	}

	dir := path.Join("migrations", driverName)
	entries, err := fs.ReadDir(MigrationFiles, dir)
	if err != nil {
		return NewErrorWithCause(ErrCodeConfiguration, fmt.Sprintf("no migrations for driver %q", driverName), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := MigrationFiles.ReadFile(path.Join(dir, name))
		if err != nil {
			return NewErrorWithCause(ErrCodeDatabase, "failed to read migration "+name, err)
		}
		script := strings.ReplaceAll(string(b), migrationTablePrefix, prefix)
		for _, stmt := range strings.Split(script, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return NewErrorWithCause(ErrCodeDatabase, "failed to apply migration "+name, err)
			}
		}
	}

	return nil
}

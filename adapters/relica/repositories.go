package relica

import (
	"database/sql"

	"github.com/coregx/ntfy"
)

// DefaultTablePrefix matches the table names in ntfy.MigrationFiles.
const DefaultTablePrefix = "ntfy_"

// Repositories holds all repository implementations.
type Repositories struct {
	Watermark ntfy.WatermarkStore
	Message   ntfy.MessageArchive
}

// NewRepositories creates all repository implementations using Relica.
//
// The db parameter should be an *sql.DB connected to MySQL, PostgreSQL, or SQLite.
// The driverName should be "mysql", "postgres", or "sqlite3".
// The table prefix defaults to "ntfy_" but can be customized.
func NewRepositories(db *sql.DB, driverName string) *Repositories {
	return &Repositories{
		Watermark: NewWatermarkRepository(db, driverName),
		Message:   NewMessageRepository(db, driverName),
	}
}

// NewRepositoriesWithPrefix creates all repository implementations with a custom table prefix.
func NewRepositoriesWithPrefix(db *sql.DB, driverName, prefix string) *Repositories {
	return &Repositories{
		Watermark: NewWatermarkRepositoryWithPrefix(db, driverName, prefix),
		Message:   NewMessageRepositoryWithPrefix(db, driverName, prefix),
	}
}

// Options returns the client options that wire both repositories in.
func (r *Repositories) Options() []ntfy.Option {
	return []ntfy.Option{
		ntfy.WithWatermarkStore(r.Watermark),
		ntfy.WithMessageArchive(r.Message),
	}
}

// Package relica provides SQL-backed stores using the Relica query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database query builder
// for Go with zero production dependencies.
//
// This package implements the optional persistence interfaces of ntfy:
//   - WatermarkStore (WatermarkRepository): resume subscriptions across restarts
//   - MessageArchive (MessageRepository): keep every delivered message
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/ntfy"
//	    "github.com/coregx/ntfy/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	db, err := sql.Open("sqlite3", "ntfy.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ntfy.Migrate(ctx, db, "sqlite3"); err != nil {
//	    log.Fatal(err)
//	}
//
//	repos := relica.NewRepositories(db, "sqlite3")
//	client, err := ntfy.NewClient(append(repos.Options(),
//	    ntfy.WithBaseURL("https://ntfy.example.com"),
//	)...)
package relica

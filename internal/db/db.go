// Package db provides persistence for guarded call history.
//
// History lives in a single SQLite file under the work directory. The
// guard engine writes call, attempt, and event rows through Store; the
// web UI and the history command read them back.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Pragmas applied on open. Foreign keys must be on so attempts and
// events cascade when calls are pruned; the journal settings are
// best-effort.
var pragmas = []struct {
	stmt     string
	required bool
}{
	{"PRAGMA foreign_keys=ON;", true},
	{"PRAGMA busy_timeout=5000;", true},
	{"PRAGMA journal_mode=WAL;", false},
	{"PRAGMA synchronous=NORMAL;", false},
}

// Open opens the call-history database at path, applying pragmas and
// the embedded migrations.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open call history db: %w", err)
	}
	// modernc.org/sqlite allows one writer at a time; a single
	// connection keeps guard writes and web reads serialized.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := conn.Exec(p.stmt); err != nil {
			if !p.required {
				log.Warn().Err(err).Str("pragma", p.stmt).Msg("sqlite: pragma not applied")
				continue
			}
			_ = conn.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p.stmt, err)
		}
	}
	if err := migrate(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrate(conn *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("apply call history migrations: %w", err)
	}
	return nil
}

package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Each migration runs inside a transaction.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tracked_properties (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		target        TEXT    NOT NULL,
		external_id   TEXT    NOT NULL,
		channel_id    TEXT    NOT NULL,
		message_id    TEXT    NOT NULL DEFAULT '',
		price         INTEGER NOT NULL,
		under_offer   INTEGER NOT NULL DEFAULT 0,
		address       TEXT    NOT NULL DEFAULT '',
		property_type TEXT    NOT NULL DEFAULT '',
		url           TEXT    NOT NULL DEFAULT '',
		image_url     TEXT    NOT NULL DEFAULT '',
		agent         TEXT    NOT NULL DEFAULT '',
		active        INTEGER NOT NULL DEFAULT 1,
		vanished_at   DATETIME,
		first_seen    DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen     DATETIME DEFAULT CURRENT_TIMESTAMP,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(target, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id    TEXT    NOT NULL,
		channel_id  TEXT    NOT NULL,
		message_id  TEXT    NOT NULL DEFAULT '',
		title       TEXT    NOT NULL,
		description TEXT    NOT NULL DEFAULT '',
		host_id     TEXT    NOT NULL,
		starts_at   DATETIME NOT NULL,
		cancelled   INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS rsvps (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		user_id     TEXT    NOT NULL,
		user_name   TEXT    NOT NULL DEFAULT '',
		response    TEXT    NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(activity_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS server_status (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		name         TEXT    NOT NULL UNIQUE,
		channel_id   TEXT    NOT NULL DEFAULT '',
		message_id   TEXT    NOT NULL DEFAULT '',
		up           INTEGER NOT NULL DEFAULT 0,
		failures     INTEGER NOT NULL DEFAULT 0,
		latency_ms   INTEGER,
		last_checked DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS reminder_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT     NOT NULL,
		occurrence DATETIME NOT NULL,
		posted_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(name, occurrence)
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"tracked_properties", "agent_url", "TEXT NOT NULL DEFAULT ''"},
		{"tracked_properties", "listed_at", "INTEGER NOT NULL DEFAULT 0"},
		{"activities", "location", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("warning: closing rows: %v\n", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return nil // column already exists
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

package reminder

import (
	"database/sql"
	"fmt"
	"time"
)

// Entry is one posted reminder occurrence.
type Entry struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Occurrence time.Time `json:"occurrence"`
	PostedAt   time.Time `json:"posted_at"`
}

// Repository records which reminder occurrences have already been
// posted, so a restart inside the same minute does not repeat them.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Claim marks an occurrence as posted. It returns false when another
// run already claimed the same occurrence.
func (r *Repository) Claim(name string, occurrence time.Time) (bool, error) {
	result, err := r.db.Exec(
		`INSERT OR IGNORE INTO reminder_log (name, occurrence) VALUES (?, ?)`,
		name, occurrence)
	if err != nil {
		return false, fmt.Errorf("claiming reminder %q: %w", name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming reminder %q: %w", name, err)
	}
	return n > 0, nil
}

// History returns the most recently posted occurrences, newest first.
func (r *Repository) History(limit int) ([]*Entry, error) {
	rows, err := r.db.Query(`
		SELECT id, name, occurrence, posted_at
		FROM reminder_log
		ORDER BY occurrence DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reminder history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Occurrence, &e.PostedAt); err != nil {
			return nil, fmt.Errorf("scanning reminder entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

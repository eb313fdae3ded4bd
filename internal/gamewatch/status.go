package gamewatch

import (
	"database/sql"
	"fmt"
	"time"
)

// Status is the last known health of one game server.
type Status struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	ChannelID   string     `json:"channel_id"`
	MessageID   string     `json:"message_id,omitempty"`
	Up          bool       `json:"up"`
	Failures    int        `json:"failures"`
	LatencyMS   *int64     `json:"latency_ms,omitempty"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
}

// Repository persists server health between polls and restarts.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const statusColumns = `id, name, channel_id, message_id, up, failures, latency_ms, last_checked`

// Get returns the status for a server, or nil when it has never been
// checked.
func (r *Repository) Get(name string) (*Status, error) {
	row := r.db.QueryRow(
		`SELECT `+statusColumns+` FROM server_status WHERE name = ?`, name)

	s, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting status for %q: %w", name, err)
	}
	return s, nil
}

// All returns every recorded server status, ordered by name.
func (r *Repository) All() ([]*Status, error) {
	rows, err := r.db.Query(
		`SELECT ` + statusColumns + ` FROM server_status ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing server status: %w", err)
	}
	defer rows.Close()

	var statuses []*Status
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning server status: %w", err)
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// Record upserts the outcome of a poll.
func (r *Repository) Record(s *Status) error {
	_, err := r.db.Exec(`
		INSERT INTO server_status (name, channel_id, up, failures, latency_ms, last_checked)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			channel_id   = excluded.channel_id,
			up           = excluded.up,
			failures     = excluded.failures,
			latency_ms   = excluded.latency_ms,
			last_checked = excluded.last_checked`,
		s.Name, s.ChannelID, boolToInt(s.Up), s.Failures, s.LatencyMS, s.LastChecked)
	if err != nil {
		return fmt.Errorf("recording status for %q: %w", s.Name, err)
	}
	return nil
}

// SetMessageID records the posted status embed for a server.
func (r *Repository) SetMessageID(name, messageID string) error {
	_, err := r.db.Exec(
		`UPDATE server_status SET message_id = ? WHERE name = ?`, messageID, name)
	if err != nil {
		return fmt.Errorf("setting message id for %q: %w", name, err)
	}
	return nil
}

func scanStatus(row interface{ Scan(...interface{}) error }) (*Status, error) {
	var s Status
	var up int
	err := row.Scan(&s.ID, &s.Name, &s.ChannelID, &s.MessageID, &up,
		&s.Failures, &s.LatencyMS, &s.LastChecked)
	if err != nil {
		return nil, err
	}
	s.Up = up != 0
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

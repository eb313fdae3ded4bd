package listing

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository provides CRUD operations for tracked properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a tracked-property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, target, external_id, channel_id, message_id, price, under_offer,
	address, property_type, url, image_url, agent, agent_url, listed_at,
	active, vanished_at, first_seen, last_seen, created_at, updated_at`

const insertSQL = `INSERT INTO tracked_properties
	(target, external_id, channel_id, price, under_offer, address, property_type, url, image_url, agent, agent_url, listed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert records a newly seen listing and returns the stored row.
func (r *Repository) Insert(target, channelID string, l Listing) (*TrackedProperty, error) {
	result, err := r.db.Exec(insertSQL,
		target, l.ExternalID, channelID,
		l.Price, boolToInt(l.UnderOffer),
		l.Address, l.PropertyType, l.URL, l.ImageURL, l.Agent, l.AgentURL,
		l.ListedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting tracked property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a tracked property by its row ID.
func (r *Repository) GetByID(id int64) (*TrackedProperty, error) {
	query := fmt.Sprintf("SELECT %s FROM tracked_properties WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	tp, err := scanTracked(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tracked property %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying tracked property %d: %w", id, err)
	}

	return tp, nil
}

// ByTarget returns every tracked property for a target, active or not,
// keyed by external ID. This is the "previous" side of a diff cycle.
func (r *Repository) ByTarget(target string) (map[string]*TrackedProperty, error) {
	query := fmt.Sprintf("SELECT %s FROM tracked_properties WHERE target = ?", selectColumns)
	rows, err := r.db.Query(query, target)
	if err != nil {
		return nil, fmt.Errorf("querying target %s: %w", target, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	result := make(map[string]*TrackedProperty)
	for rows.Next() {
		tp, err := scanTracked(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tracked property: %w", err)
		}
		result[tp.ExternalID] = tp
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracked properties: %w", err)
	}

	return result, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	Target     string // empty = all
	ActiveOnly bool
}

// List returns tracked properties, optionally filtered, newest first.
func (r *Repository) List(opts ListOptions) ([]*TrackedProperty, error) {
	query := fmt.Sprintf("SELECT %s FROM tracked_properties", selectColumns)
	var args []interface{}
	var conditions []string

	if opts.Target != "" {
		conditions = append(conditions, "target = ?")
		args = append(args, opts.Target)
	}
	if opts.ActiveOnly {
		conditions = append(conditions, "active = 1")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY first_seen DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tracked properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var properties []*TrackedProperty
	for rows.Next() {
		tp, err := scanTracked(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tracked property: %w", err)
		}
		properties = append(properties, tp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracked properties: %w", err)
	}

	return properties, nil
}

// ApplyListing refreshes a tracked property from the latest scrape:
// price, flags and last_seen move forward, and a vanished row comes
// back to life.
func (r *Repository) ApplyListing(id int64, l Listing) error {
	result, err := r.db.Exec(
		`UPDATE tracked_properties
		SET price = ?, under_offer = ?, address = ?, property_type = ?, url = ?,
			image_url = ?, agent = ?, agent_url = ?, listed_at = ?,
			active = 1, vanished_at = NULL,
			last_seen = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		l.Price, boolToInt(l.UnderOffer), l.Address, l.PropertyType, l.URL,
		l.ImageURL, l.Agent, l.AgentURL, l.ListedAt, id,
	)
	if err != nil {
		return fmt.Errorf("applying listing: %w", err)
	}

	return requireRow(result, id)
}

// SetMessageID records the notification message for a tracked property.
func (r *Repository) SetMessageID(id int64, messageID string) error {
	result, err := r.db.Exec(
		"UPDATE tracked_properties SET message_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		messageID, id,
	)
	if err != nil {
		return fmt.Errorf("setting message id: %w", err)
	}

	return requireRow(result, id)
}

// MarkVanished marks an active tracked property inactive with a timestamp.
// Returns true if the row transitioned; false if it was already inactive,
// so the inactive transition fires at most once.
func (r *Repository) MarkVanished(id int64, at time.Time) (bool, error) {
	result, err := r.db.Exec(
		`UPDATE tracked_properties
		SET active = 0, vanished_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`,
		at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("marking vanished: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// ExpiredBefore returns inactive tracked properties whose vanished_at is
// older than cutoff, i.e. candidates for the retention sweep.
func (r *Repository) ExpiredBefore(target string, cutoff time.Time) ([]*TrackedProperty, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM tracked_properties WHERE target = ? AND active = 0 AND vanished_at IS NOT NULL AND vanished_at < ?",
		selectColumns,
	)
	rows, err := r.db.Query(query, target, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying expired properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var expired []*TrackedProperty
	for rows.Next() {
		tp, err := scanTracked(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tracked property: %w", err)
		}
		expired = append(expired, tp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expired properties: %w", err)
	}

	return expired, nil
}

// Delete removes a tracked property by ID.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM tracked_properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tracked property: %w", err)
	}

	return requireRow(result, id)
}

// requireRow converts a zero-rows-affected result into a not-found error.
func requireRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tracked property %d not found", id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package activity

import (
	"database/sql"
	"fmt"
	"time"
)

// Repository provides CRUD operations for activities and RSVPs.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an activity repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, guild_id, channel_id, message_id, title, description, host_id, starts_at, cancelled, created_at, location`

// Insert adds a new activity and returns it with its generated ID.
func (r *Repository) Insert(a *Activity) (*Activity, error) {
	result, err := r.db.Exec(
		`INSERT INTO activities (guild_id, channel_id, title, description, host_id, starts_at, location)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.GuildID, a.ChannelID, a.Title, a.Description, a.HostID, a.StartsAt.UTC(), a.Location,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns an activity by its ID.
func (r *Repository) GetByID(id int64) (*Activity, error) {
	query := fmt.Sprintf("SELECT %s FROM activities WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("activity %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying activity %d: %w", id, err)
	}

	return a, nil
}

// Upcoming returns non-cancelled activities starting at or after now,
// soonest first.
func (r *Repository) Upcoming(guildID string, now time.Time) ([]*Activity, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM activities WHERE guild_id = ? AND cancelled = 0 AND starts_at >= ? ORDER BY starts_at ASC",
		selectColumns,
	)
	rows, err := r.db.Query(query, guildID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("listing upcoming activities: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}

	return activities, nil
}

// SetMessageID records the posted embed message for an activity.
func (r *Repository) SetMessageID(id int64, messageID string) error {
	result, err := r.db.Exec("UPDATE activities SET message_id = ? WHERE id = ?", messageID, id)
	if err != nil {
		return fmt.Errorf("setting message id: %w", err)
	}
	return requireRow(result, id)
}

// Cancel marks an activity cancelled. Only the host may cancel; the
// caller enforces that.
func (r *Repository) Cancel(id int64) error {
	result, err := r.db.Exec("UPDATE activities SET cancelled = 1 WHERE id = ? AND cancelled = 0", id)
	if err != nil {
		return fmt.Errorf("cancelling activity: %w", err)
	}
	return requireRow(result, id)
}

// SetRSVP records or moves a user's response. One row per
// (activity, user); pressing another button replaces the response.
func (r *Repository) SetRSVP(activityID int64, userID, userName string, response Response) error {
	if !ValidResponse(string(response)) {
		return fmt.Errorf("invalid response: %s", response)
	}

	_, err := r.db.Exec(
		`INSERT INTO rsvps (activity_id, user_id, user_name, response)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(activity_id, user_id) DO UPDATE SET response = excluded.response, user_name = excluded.user_name`,
		activityID, userID, userName, string(response),
	)
	if err != nil {
		return fmt.Errorf("recording rsvp: %w", err)
	}
	return nil
}

// RSVPs returns all responses for an activity, oldest first.
func (r *Repository) RSVPs(activityID int64) ([]*RSVP, error) {
	rows, err := r.db.Query(
		"SELECT id, activity_id, user_id, user_name, response, created_at FROM rsvps WHERE activity_id = ? ORDER BY created_at ASC, id ASC",
		activityID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rsvps: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var rsvps []*RSVP
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rsvp: %w", err)
		}
		rsvps = append(rsvps, rsvp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rsvps: %w", err)
	}

	return rsvps, nil
}

// requireRow converts a zero-rows-affected result into a not-found error.
func requireRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("activity %d not found", id)
	}
	return nil
}

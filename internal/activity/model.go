// Package activity provides social activity scheduling with RSVPs.
package activity

import "time"

// Response is a user's RSVP to an activity.
type Response string

const (
	Going    Response = "going"
	Maybe    Response = "maybe"
	Declined Response = "declined"
)

// ValidResponse returns true if s is a known RSVP response.
func ValidResponse(s string) bool {
	switch Response(s) {
	case Going, Maybe, Declined:
		return true
	}
	return false
}

// Label returns a human-readable label for the response.
func (r Response) Label() string {
	switch r {
	case Going:
		return "Going"
	case Maybe:
		return "Maybe"
	case Declined:
		return "Can't make it"
	default:
		return string(r)
	}
}

// Activity is one scheduled social event.
type Activity struct {
	ID          int64     `json:"id"`
	GuildID     string    `json:"guild_id"`
	ChannelID   string    `json:"channel_id"`
	MessageID   string    `json:"message_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	HostID      string    `json:"host_id"`
	StartsAt    time.Time `json:"starts_at"`
	Cancelled   bool      `json:"cancelled"`
	CreatedAt   time.Time `json:"created_at"`
}

// RSVP is one user's response to an activity.
type RSVP struct {
	ID         int64     `json:"id"`
	ActivityID int64     `json:"activity_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Response   Response  `json:"response"`
	CreatedAt  time.Time `json:"created_at"`
}

// scanActivity scans an activity from a database row.
func scanActivity(row interface{ Scan(...interface{}) error }) (*Activity, error) {
	var a Activity
	var cancelled int

	err := row.Scan(
		&a.ID, &a.GuildID, &a.ChannelID, &a.MessageID,
		&a.Title, &a.Description, &a.HostID, &a.StartsAt,
		&cancelled, &a.CreatedAt, &a.Location,
	)
	if err != nil {
		return nil, err
	}

	a.Cancelled = cancelled != 0
	return &a, nil
}

// scanRSVP scans an RSVP from a database row.
func scanRSVP(row interface{ Scan(...interface{}) error }) (*RSVP, error) {
	var r RSVP
	var response string

	err := row.Scan(&r.ID, &r.ActivityID, &r.UserID, &r.UserName, &response, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Response = Response(response)
	return &r, nil
}

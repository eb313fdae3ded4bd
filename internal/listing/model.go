// Package listing provides the property listing domain model, data access,
// and the scrape diff logic.
package listing

import (
	"database/sql"
	"time"
)

// Listing is one scraped property record for a single scrape cycle.
// It is produced fresh on every scrape and never mutated afterwards.
type Listing struct {
	ExternalID   string `json:"external_id"`
	Price        int64  `json:"price"`
	Address      string `json:"address"`
	PropertyType string `json:"property_type"`
	ListedAt     int64  `json:"listed_at"`  // unix seconds
	UpdatedAt    int64  `json:"updated_at"` // unix seconds
	UnderOffer   bool   `json:"under_offer"`
	URL          string `json:"url"`
	ImageURL     string `json:"image_url"`
	Agent        string `json:"agent"`
	AgentURL     string `json:"agent_url"`
}

// TrackedProperty is the persisted lifecycle state for one listing,
// keyed by (target, external id).
type TrackedProperty struct {
	ID           int64      `json:"id"`
	Target       string     `json:"target"`
	ExternalID   string     `json:"external_id"`
	ChannelID    string     `json:"channel_id"`
	MessageID    string     `json:"message_id,omitempty"`
	Price        int64      `json:"price"`
	UnderOffer   bool       `json:"under_offer"`
	Address      string     `json:"address"`
	PropertyType string     `json:"property_type"`
	URL          string     `json:"url"`
	ImageURL     string     `json:"image_url,omitempty"`
	Agent        string     `json:"agent,omitempty"`
	AgentURL     string     `json:"agent_url,omitempty"`
	ListedAt     int64      `json:"listed_at,omitempty"`
	Active       bool       `json:"active"`
	VanishedAt   *time.Time `json:"vanished_at,omitempty"`
	FirstSeen    time.Time  `json:"first_seen"`
	LastSeen     time.Time  `json:"last_seen"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// scanTracked scans a tracked property from a database row.
func scanTracked(row interface{ Scan(...interface{}) error }) (*TrackedProperty, error) {
	var tp TrackedProperty
	var underOffer, active int
	var vanishedAt sql.NullTime

	err := row.Scan(
		&tp.ID, &tp.Target, &tp.ExternalID, &tp.ChannelID, &tp.MessageID,
		&tp.Price, &underOffer, &tp.Address, &tp.PropertyType, &tp.URL,
		&tp.ImageURL, &tp.Agent, &tp.AgentURL, &tp.ListedAt,
		&active, &vanishedAt,
		&tp.FirstSeen, &tp.LastSeen, &tp.CreatedAt, &tp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tp.UnderOffer = underOffer != 0
	tp.Active = active != 0
	if vanishedAt.Valid {
		t := vanishedAt.Time
		tp.VanishedAt = &t
	}

	return &tp, nil
}

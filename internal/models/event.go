package models

import "time"

const DefaultEventResource = "point-in-time"

type Event struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
	Resource    string    `json:"resource"`
	UserID      *int      `json:"user_id"`
	// Username is the owner's username when the row was fetched with the
	// users join; nil for unowned events and for plain fetches.
	Username  *string   `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventPatch carries the optional fields of a partial update.
// A nil field means "leave unchanged".
type EventPatch struct {
	Title       *string
	StartTime   *time.Time
	EndTime     *time.Time
	Description *string
	Resource    *string
	UserID      *int
}

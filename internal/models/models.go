package models

import "time"

// Post is one record of the upstream posts collection. Only ID, Title and
// Body are rendered; UserID is passed through when the source carries it.
type Post struct {
	UserID int    `json:"userId,omitempty"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// FetchFailure is the diagnostic record written when a mount's fetch fails.
type FetchFailure struct {
	MountID    string    `json:"mount_id"`
	Source     string    `json:"source"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

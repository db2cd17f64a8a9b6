package notification

import "time"

// Kinds
const (
	KindFeedback = "feedback"
	KindGeneral  = "general"
)

// Notification is an append-only message addressed to one user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewNotification struct {
	UserID  string
	Kind    string
	Title   string
	Message string
}

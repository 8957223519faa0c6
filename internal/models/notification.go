package models

import "time"

// NotificationType classifies the severity of a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification represents one user-facing event record. The read flag only
// moves unread -> read from the client's perspective; a rollback after a
// failed mark-read call is a transient correction, not a state reversal.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Body      *string          `json:"body,omitempty"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Target returns the navigation target carried in the metadata, if any.
func (n Notification) Target() (string, bool) {
	if n.Metadata == nil {
		return "", false
	}
	target, ok := n.Metadata["target"].(string)
	return target, ok && target != ""
}

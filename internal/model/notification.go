package model

import "time"

// Payload data keys shared by both vendor providers.
const (
	DataKeyType           = "type"
	DataKeyChannelID      = "channelId"
	DataKeyActionURL      = "actionUrl"
	DataKeyNotificationID = "notificationId"
	DataKeyBadgeCount     = "badgeCount"
)

// NotificationData is the structured portion of an inbound push payload.
// Every field is optional; consumers fall back to defaults.
type NotificationData struct {
	Type           string
	ChannelID      string
	ActionURL      string
	NotificationID string
	BadgeCount     int
	Extra          map[string]string
}

// InboundNotification is the normalized shape every provider payload is
// reduced to. Ephemeral: it lives only for the duration of event handling.
type InboundNotification struct {
	Title string
	Body  string
	Data  NotificationData
}

// OpenedEvent describes a notification tap, whether it arrived through a
// live listener or a cold-launch check.
type OpenedEvent struct {
	Notification   InboundNotification
	ActionURL      string
	NotificationID string
}

// NotificationRecord is one entry of the backend notification history.
type NotificationRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	ActionURL string    `json:"actionUrl,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationPage is a page of history plus pagination metadata.
type NotificationPage struct {
	Notifications []NotificationRecord `json:"notifications"`
	Page          int                  `json:"page"`
	Limit         int                  `json:"limit"`
	Total         int                  `json:"total"`
}

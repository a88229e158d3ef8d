package model

// Importance is the delivery priority attached to a notification channel.
type Importance string

const (
	ImportanceHigh    Importance = "high"
	ImportanceDefault Importance = "default"
	ImportanceLow     Importance = "low"
)

// Channel ids. The set is fixed; the client never mutates or deletes a
// channel after declaring it.
const (
	ChannelDefault      = "default"
	ChannelSubscription = "subscription"
	ChannelContent      = "content"
	ChannelEngagement   = "engagement"
	ChannelPremium      = "premium"
	ChannelSystem       = "system"
	ChannelMarketing    = "marketing"
)

// NotificationChannel is an OS-level notification category (Android).
type NotificationChannel struct {
	ID          string
	DisplayName string
	Importance  Importance
	Sound       bool
	Vibration   bool
}

// DefaultChannels returns the fixed channel set declared at startup.
func DefaultChannels() []NotificationChannel {
	return []NotificationChannel{
		{ID: ChannelDefault, DisplayName: "General", Importance: ImportanceDefault, Sound: true, Vibration: true},
		{ID: ChannelSubscription, DisplayName: "Subscription", Importance: ImportanceHigh, Sound: true, Vibration: true},
		{ID: ChannelContent, DisplayName: "Insights & News", Importance: ImportanceDefault, Sound: true, Vibration: false},
		{ID: ChannelEngagement, DisplayName: "Activity", Importance: ImportanceDefault, Sound: true, Vibration: true},
		{ID: ChannelPremium, DisplayName: "Premium", Importance: ImportanceHigh, Sound: true, Vibration: true},
		{ID: ChannelSystem, DisplayName: "System", Importance: ImportanceHigh, Sound: true, Vibration: true},
		{ID: ChannelMarketing, DisplayName: "Offers", Importance: ImportanceLow, Sound: false, Vibration: false},
	}
}

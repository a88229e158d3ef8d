// Package provider defines the seam in front of a vendor push SDK. The rest
// of the subsystem depends only on these interfaces, never on a concrete
// vendor, so the two providers stay interchangeable delivery channels.
package provider

import "context"

// EventKind discriminates vendor events.
type EventKind string

const (
	EventForegroundMessage EventKind = "foreground_message"
	EventBackgroundMessage EventKind = "background_message"
	EventOpened            EventKind = "opened"
	EventTokenRefresh      EventKind = "token_refresh"
)

// Message is a raw vendor payload before normalization.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Event is one occurrence on a vendor event stream. Message is set for
// message and opened kinds; Token is set for token refresh.
type Event struct {
	Provider string
	Kind     EventKind
	Message  *Message
	Token    string
}

// Provider abstracts one vendor push SDK.
type Provider interface {
	Name() string

	// Token returns the current push token for this device.
	Token(ctx context.Context) (string, error)

	// DeleteToken invalidates the local token, typically during logout.
	DeleteToken(ctx context.Context) error

	// InitialNotification reports the notification whose tap launched the
	// app from a fully quit state, or nil when the app started normally.
	InitialNotification(ctx context.Context) (*Message, error)

	// Subscribe starts event delivery and returns the stream plus an
	// unsubscribe func. The channel is closed on unsubscribe.
	Subscribe() (<-chan Event, func())
}

// Identity is the authenticated user context mirrored into a provider.
type Identity struct {
	UserID string
	Email  string
	Tags   map[string]string
}

// IdentityMirror is implemented by providers that hold a per-user
// association (the secondary vendor does, the primary does not).
type IdentityMirror interface {
	Login(ctx context.Context, id Identity) error
	Logout(ctx context.Context) error
	SetTags(ctx context.Context, tags map[string]string) error
}

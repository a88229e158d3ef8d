package model

// Preferences is the user's per-channel opt-in state as held by the backend.
type Preferences struct {
	Enabled  bool            `json:"enabled"`
	Channels map[string]bool `json:"channels"`
}

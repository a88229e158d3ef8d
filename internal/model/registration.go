package model

import "time"

// DeviceInfo is the device metadata sent alongside a push token.
type DeviceInfo struct {
	Model      string `json:"model" validate:"required"`
	OSVersion  string `json:"osVersion" validate:"required"`
	AppVersion string `json:"appVersion" validate:"required"`
}

// DeviceRegistration is the registration record submitted to the backend.
// The backend keeps at most one active registration per (deviceId, platform)
// pair; re-submitting with the same device id updates the existing record.
type DeviceRegistration struct {
	Token      string     `json:"token" validate:"required"`
	DeviceID   string     `json:"deviceId" validate:"required"`
	Platform   Platform   `json:"platform" validate:"required,oneof=ios android"`
	DeviceInfo DeviceInfo `json:"deviceInfo" validate:"required"`
}

// DeviceState is the locally persisted mirror of the registration: the
// generated device id plus the last token the backend accepted. LastToken is
// empty when the device is not currently registered.
type DeviceState struct {
	DeviceID     string    `json:"device_id"`
	LastToken    string    `json:"last_token"`
	UserID       string    `json:"user_id,omitempty"`
	RegisteredAt time.Time `json:"registered_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

package repository

import (
	"context"

	"github.com/vantage-invest/pushkit/internal/model"
)

// DeviceStateRepository persists the device's registration mirror: the
// generated device id and the last token the backend accepted. A single
// record per installation.
type DeviceStateRepository interface {
	// Get returns the stored state, or nil when none exists yet.
	Get(ctx context.Context) (*model.DeviceState, error)

	// Put stores the state, replacing any previous record.
	Put(ctx context.Context, state *model.DeviceState) error

	// ClearRegistration wipes the token and user association while keeping
	// the device id stable across logins.
	ClearRegistration(ctx context.Context) error

	Close() error
}

// Package channels declares the fixed set of Android notification channels
// at process start. iOS has no channel concept, so the initializer is a
// no-op there.
package channels

import (
	"context"

	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/pkg/logger"
)

// Registrar is the OS seam for channel declaration. Upsert must be
// idempotent by channel id.
type Registrar interface {
	Upsert(ctx context.Context, ch model.NotificationChannel) error
}

// Initializer declares the channel set. Safe to run multiple times per
// process; every call upserts the same fixed definitions.
type Initializer struct {
	platform  model.Platform
	registrar Registrar
	logger    *logger.Logger
}

// NewInitializer creates an Initializer for the given platform.
func NewInitializer(platform model.Platform, registrar Registrar, l *logger.Logger) *Initializer {
	if l == nil {
		l = logger.Nop()
	}
	return &Initializer{
		platform:  platform,
		registrar: registrar,
		logger:    l.WithComponent("channels"),
	}
}

// InitializeChannels upserts the fixed channel set. Individual channel
// failures are logged and do not abort the remaining declarations.
func (i *Initializer) InitializeChannels(ctx context.Context) {
	if i.platform != model.PlatformAndroid {
		return
	}
	for _, ch := range model.DefaultChannels() {
		if err := i.registrar.Upsert(ctx, ch); err != nil {
			i.logger.Error(err, "failed to declare notification channel", "channel", ch.ID)
		}
	}
	i.logger.Debug("notification channels initialized")
}

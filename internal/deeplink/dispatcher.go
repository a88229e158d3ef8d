// Package deeplink routes a tapped notification's action target: absolute
// http(s) URLs go to the external opener, anything else is handed to the
// host navigation system as an internal route.
package deeplink

import (
	"context"
	"strings"

	"github.com/vantage-invest/pushkit/internal/apiclient"
	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/pkg/logger"
)

// URLOpener is the OS seam for opening an external URL.
type URLOpener interface {
	CanOpen(url string) bool
	Open(ctx context.Context, url string) error
}

// Link is what the navigation callback receives for an internal route.
type Link struct {
	ActionURL      string
	NotificationID string
	Data           model.NotificationData
}

// NavigateFunc resolves an internal route. Resolution itself belongs to the
// host navigation system.
type NavigateFunc func(link Link)

// Dispatcher handles notification-opened events.
type Dispatcher struct {
	opener   URLOpener
	navigate NavigateFunc
	api      *apiclient.Client
	logger   *logger.Logger
}

// NewDispatcher creates a Dispatcher. api may be nil to disable click
// tracking; navigate may be nil when the host has no internal router.
func NewDispatcher(opener URLOpener, navigate NavigateFunc, api *apiclient.Client, l *logger.Logger) *Dispatcher {
	if l == nil {
		l = logger.Nop()
	}
	return &Dispatcher{
		opener:   opener,
		navigate: navigate,
		api:      api,
		logger:   l.WithComponent("deeplink"),
	}
}

// HandleOpened dispatches one tap. An absent action URL is a no-op, never
// an error. Click tracking is best-effort and fires for every tap that
// carries a notification id.
func (d *Dispatcher) HandleOpened(ctx context.Context, ev model.OpenedEvent) {
	d.trackClick(ctx, ev.NotificationID)

	actionURL := ev.ActionURL
	if actionURL == "" {
		return
	}

	if isExternal(actionURL) {
		if !d.opener.CanOpen(actionURL) {
			d.logger.Warn("external url not openable", "url", actionURL)
			return
		}
		if err := d.opener.Open(ctx, actionURL); err != nil {
			d.logger.Error(err, "failed to open external url", "url", actionURL)
		}
		return
	}

	if d.navigate != nil {
		d.navigate(Link{
			ActionURL:      actionURL,
			NotificationID: ev.NotificationID,
			Data:           ev.Notification.Data,
		})
	}
}

func (d *Dispatcher) trackClick(ctx context.Context, notificationID string) {
	if d.api == nil || notificationID == "" {
		return
	}
	if err := d.api.TrackClick(ctx, notificationID); err != nil {
		d.logger.Debug("click tracking failed", "notification_id", notificationID)
	}
}

func isExternal(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

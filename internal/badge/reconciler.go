// Package badge mirrors the backend's authoritative unread count into the
// OS badge. It never keeps a local running counter that could drift; every
// update re-derives truth from the server.
package badge

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/vantage-invest/pushkit/internal/apiclient"
	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/pkg/logger"
	"github.com/vantage-invest/pushkit/pkg/metrics"
)

// Setter is the OS seam for the app icon badge.
type Setter interface {
	SetBadge(ctx context.Context, count int) error
}

// Config controls reconciliation. With Coalesce off, every inbound
// notification triggers its own fetch (always-fresh). With it on, fetches
// during a burst are capped by Limiter and the skipped ones rely on the
// next event to re-derive the count.
type Config struct {
	Coalesce bool
	Limiter  *rate.Limiter
}

// Reconciler re-fetches the unread count after inbound notifications and
// pushes it to the badge on iOS.
type Reconciler struct {
	platform model.Platform
	api      *apiclient.Client
	setter   Setter
	config   Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewReconciler creates a Reconciler. metrics may be nil.
func NewReconciler(platform model.Platform, api *apiclient.Client, setter Setter, config Config, l *logger.Logger, mx *metrics.Metrics) *Reconciler {
	if l == nil {
		l = logger.Nop()
	}
	return &Reconciler{
		platform: platform,
		api:      api,
		setter:   setter,
		config:   config,
		logger:   l.WithComponent("badge"),
		metrics:  mx,
	}
}

// Reconcile fetches the authoritative unread count and applies it to the
// badge. A failed fetch or set leaves the badge stale until the next
// successful event; that is a cosmetic degradation, not an error state.
func (r *Reconciler) Reconcile(ctx context.Context) {
	if r.config.Coalesce && r.config.Limiter != nil && !r.config.Limiter.Allow() {
		if r.metrics != nil {
			r.metrics.BadgeCoalesced.Inc()
		}
		return
	}

	count, err := r.api.UnreadCount(ctx)
	if err != nil {
		r.logger.Error(err, "failed to fetch unread count")
		r.observe("fetch_failed")
		return
	}
	r.observe("success")

	r.apply(ctx, count)
}

// Reset forces the badge to zero regardless of backend state. Logout path.
func (r *Reconciler) Reset(ctx context.Context) {
	r.apply(ctx, 0)
}

// apply pushes count to the OS badge. Badges exist on iOS only.
func (r *Reconciler) apply(ctx context.Context, count int) {
	if r.platform != model.PlatformIOS {
		return
	}
	if err := r.setter.SetBadge(ctx, count); err != nil {
		r.logger.Error(err, "failed to set badge", "count", count)
	}
}

func (r *Reconciler) observe(status string) {
	if r.metrics != nil {
		r.metrics.BadgeFetches.WithLabelValues(status).Inc()
	}
}

// Package lifecycle owns setup and teardown of the notification subsystem
// against the authenticated user's identity. Every init step is best
// effort and independent: a primary-provider failure must not block
// secondary-provider setup or vice versa.
package lifecycle

import (
	"context"
	"sync"

	"github.com/vantage-invest/pushkit/internal/badge"
	"github.com/vantage-invest/pushkit/internal/bridge"
	"github.com/vantage-invest/pushkit/internal/channels"
	"github.com/vantage-invest/pushkit/internal/deeplink"
	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/internal/presenter"
	"github.com/vantage-invest/pushkit/internal/provider"
	"github.com/vantage-invest/pushkit/internal/registration"
	"github.com/vantage-invest/pushkit/pkg/logger"
)

// Identity is the authenticated user context the subsystem is bound to.
// A zero UserID means no user is signed in; listeners still run so public
// broadcasts display, but no registration or mirroring happens.
type Identity struct {
	UserID string
	Email  string
	Tags   map[string]string
}

// Controller composes the whole subsystem. All "has setup run" state is
// instance state; there are no package-level flags.
type Controller struct {
	channels     *channels.Initializer
	registration *registration.Manager
	bridge       *bridge.Bridge
	presenter    *presenter.Presenter
	badge        *badge.Reconciler
	deeplink     *deeplink.Dispatcher
	secondary    provider.Provider
	logger       *logger.Logger

	mu       sync.Mutex
	identity Identity
	teardown func()
}

// NewController wires the subsystem. secondary is the provider holding the
// per-user association (it may or may not implement IdentityMirror).
func NewController(
	ch *channels.Initializer,
	reg *registration.Manager,
	br *bridge.Bridge,
	pr *presenter.Presenter,
	bd *badge.Reconciler,
	dl *deeplink.Dispatcher,
	secondary provider.Provider,
	l *logger.Logger,
) *Controller {
	if l == nil {
		l = logger.Nop()
	}
	return &Controller{
		channels:     ch,
		registration: reg,
		bridge:       br,
		presenter:    pr,
		badge:        bd,
		deeplink:     dl,
		secondary:    secondary,
		logger:       l.WithComponent("lifecycle"),
	}
}

// Start runs the full setup sequence: channels, registration, identity
// mirroring, listener bridge. Safe to call repeatedly; a repeat run tears
// down the previous listener set first.
func (c *Controller) Start(ctx context.Context, id Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id
	c.setupLocked(ctx)
}

// SetIdentity re-runs the full setup when the identity changed. Push
// identity must always match the currently authenticated user.
func (c *Controller) SetIdentity(ctx context.Context, id Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if identityEqual(c.identity, id) {
		return
	}
	c.identity = id
	c.setupLocked(ctx)
}

// Stop tears down the listener bridge without touching registration or
// identity state. Unmount path.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Cleanup is the logout path: tear down listeners, drop the secondary
// provider's user association and zero the badge. Backend unregistration
// stays a separate explicit call (registration.Manager.UnregisterDevice)
// made by the surrounding auth flow.
func (c *Controller) Cleanup(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.identity = Identity{}

	if mirror, ok := c.secondary.(provider.IdentityMirror); ok {
		if err := mirror.Logout(ctx); err != nil {
			c.logger.Error(err, "failed to clear provider identity", "provider", c.secondary.Name())
		}
	}
	c.badge.Reset(ctx)
	c.logger.Info("notification subsystem cleaned up")
}

func (c *Controller) setupLocked(ctx context.Context) {
	// Stop the previous listener set before mutating registration state;
	// the old token-refresh handler must not run concurrently with it.
	c.stopLocked()
	c.channels.InitializeChannels(ctx)

	if c.identity.UserID != "" {
		// Primary-provider registration and secondary-provider identity are
		// independent best-effort tracks, not a transaction.
		c.registration.SetUser(c.identity.UserID)
		if c.registration.RequestPermission(ctx) {
			if !c.registration.RegisterDevice(ctx) {
				c.logger.Warn("device registration unavailable, continuing setup")
			}
		}
		c.mirrorIdentity(ctx)
	}

	c.teardown = c.bridge.Setup(ctx, bridge.Handlers{
		OnReceived:     c.handleReceived,
		OnOpened:       c.handleOpened,
		OnTokenRefresh: c.handleTokenRefresh,
	})
}

func (c *Controller) stopLocked() {
	if c.teardown != nil {
		c.teardown()
		c.teardown = nil
	}
}

func (c *Controller) mirrorIdentity(ctx context.Context) {
	mirror, ok := c.secondary.(provider.IdentityMirror)
	if !ok {
		return
	}
	err := mirror.Login(ctx, provider.Identity{
		UserID: c.identity.UserID,
		Email:  c.identity.Email,
		Tags:   c.identity.Tags,
	})
	if err != nil {
		c.logger.Error(err, "failed to mirror identity", "provider", c.secondary.Name())
		return
	}
	if len(c.identity.Tags) > 0 {
		if err := mirror.SetTags(ctx, c.identity.Tags); err != nil {
			c.logger.Error(err, "failed to mirror tags", "provider", c.secondary.Name())
		}
	}
}

func (c *Controller) handleReceived(ctx context.Context, n model.InboundNotification) {
	c.presenter.Display(ctx, n)
	c.badge.Reconcile(ctx)
}

func (c *Controller) handleOpened(ctx context.Context, ev model.OpenedEvent) {
	c.deeplink.HandleOpened(ctx, ev)
}

func (c *Controller) handleTokenRefresh(ctx context.Context, token string) {
	if c.registration.RegisterWithToken(ctx, token) {
		return
	}
	// Abandoned for this trigger; the next refresh or remount retries
	// naturally.
	c.logger.Warn("re-registration after token refresh failed")
}

func identityEqual(a, b Identity) bool {
	if a.UserID != b.UserID || a.Email != b.Email || len(a.Tags) != len(b.Tags) {
		return false
	}
	for k, v := range a.Tags {
		if b.Tags[k] != v {
			return false
		}
	}
	return true
}

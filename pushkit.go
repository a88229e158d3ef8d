// Package pushkit is the client-side push-notification subsystem of the
// mobile app: permission and device registration, notification channels,
// dual-provider event bridging, local presentation, badge reconciliation
// and deep-link dispatch. The mobile shell supplies the OS seams and the
// vendor provider adapters; pushkit owns everything in between.
package pushkit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/vantage-invest/pushkit/config"
	"github.com/vantage-invest/pushkit/internal/apiclient"
	"github.com/vantage-invest/pushkit/internal/badge"
	"github.com/vantage-invest/pushkit/internal/bridge"
	"github.com/vantage-invest/pushkit/internal/channels"
	"github.com/vantage-invest/pushkit/internal/deeplink"
	"github.com/vantage-invest/pushkit/internal/lifecycle"
	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/internal/presenter"
	"github.com/vantage-invest/pushkit/internal/provider"
	"github.com/vantage-invest/pushkit/internal/registration"
	"github.com/vantage-invest/pushkit/internal/repository/bolt"
	"github.com/vantage-invest/pushkit/pkg/circuitbreaker"
	"github.com/vantage-invest/pushkit/pkg/logger"
	"github.com/vantage-invest/pushkit/pkg/metrics"
)

// Re-exported types forming the public surface.
type (
	Identity          = lifecycle.Identity
	Provider          = provider.Provider
	IdentityMirror    = provider.IdentityMirror
	Message           = provider.Message
	Event             = provider.Event
	EventKind         = provider.EventKind
	TokenSource       = apiclient.TokenSource
	Link              = deeplink.Link
	NavigateFunc      = deeplink.NavigateFunc
	PermissionStatus  = registration.PermissionStatus
	LocalNotification = presenter.LocalNotification
	Channel           = model.NotificationChannel
)

const (
	EventForegroundMessage = provider.EventForegroundMessage
	EventBackgroundMessage = provider.EventBackgroundMessage
	EventOpened            = provider.EventOpened
	EventTokenRefresh      = provider.EventTokenRefresh

	PermissionAuthorized  = registration.PermissionAuthorized
	PermissionProvisional = registration.PermissionProvisional
	PermissionDenied      = registration.PermissionDenied
)

// NewMemoryProvider returns the in-process provider used in tests and
// development builds.
func NewMemoryProvider(name, token string) *provider.Memory {
	return provider.NewMemory(name, token)
}

// OSBindings are the seams into the host OS, implemented by the mobile
// shell.
type OSBindings struct {
	Permissions registration.PermissionRequester
	Channels    channels.Registrar
	Notifier    presenter.Notifier
	Badge       badge.Setter
	Opener      deeplink.URLOpener
}

// Options wires a Subsystem. Config, Primary, Secondary, Token and the OS
// bindings are required; the rest default sensibly.
type Options struct {
	Config    *config.Config
	Primary   Provider
	Secondary Provider
	OS        OSBindings
	Token     TokenSource
	Navigate  NavigateFunc
	Logger    *logger.Logger

	// Registerer receives subsystem metrics when cfg.Metrics.Enabled;
	// nil falls back to the default prometheus registry.
	Registerer prometheus.Registerer
}

// Subsystem is the assembled notification subsystem.
type Subsystem struct {
	Lifecycle    *lifecycle.Controller
	Registration *registration.Manager
	API          *apiclient.Client

	store *bolt.Store
}

// New assembles the subsystem from config. The caller drives it through
// Lifecycle (Start/SetIdentity/Cleanup) and the explicit
// Registration.UnregisterDevice logout step, then releases resources with
// Close.
func New(opts Options) (*Subsystem, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Primary == nil || opts.Secondary == nil {
		return nil, fmt.Errorf("both providers are required")
	}

	platform := model.Platform(cfg.Device.Platform)
	switch platform {
	case model.PlatformIOS, model.PlatformAndroid:
	default:
		return nil, fmt.Errorf("unsupported platform %q", cfg.Device.Platform)
	}
	device := model.Device{
		Platform:   platform,
		APILevel:   cfg.Device.APILevel,
		Model:      cfg.Device.Model,
		OSVersion:  cfg.Device.OSVersion,
		AppVersion: cfg.Device.AppVersion,
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	var mx *metrics.Metrics
	if cfg.Metrics.Enabled {
		mx = metrics.NewMetrics(cfg.Metrics.Namespace, opts.Registerer)
	}

	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	apiOpts := []apiclient.Option{
		apiclient.WithLogger(log),
		apiclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		apiclient.WithBreaker(circuitbreaker.New(circuitbreaker.Settings{
			Threshold: cfg.API.BreakerThreshold,
			Cooldown:  cfg.API.BreakerCooldown,
		})),
	}
	if mx != nil {
		apiOpts = append(apiOpts, apiclient.WithMetrics(mx))
	}
	api := apiclient.NewClient(cfg.API.BaseURL, opts.Token, apiOpts...)

	store, err := bolt.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device state store: %w", err)
	}

	regOpts := []registration.Option{registration.WithLogger(log)}
	if mx != nil {
		regOpts = append(regOpts, registration.WithMetrics(mx))
	}
	reg := registration.NewManager(device, opts.OS.Permissions, opts.Primary, api, store, regOpts...)

	brOpts := []bridge.Option{
		bridge.WithLogger(log),
		bridge.WithDedupTTL(cfg.Bridge.DedupTTL),
	}
	if mx != nil {
		brOpts = append(brOpts, bridge.WithMetrics(mx))
	}
	br := bridge.NewBridge([]provider.Provider{opts.Primary, opts.Secondary}, brOpts...)

	badgeCfg := badge.Config{Coalesce: cfg.Badge.Coalesce}
	if cfg.Badge.Coalesce && cfg.Badge.MinInterval > 0 {
		badgeCfg.Limiter = rate.NewLimiter(rate.Every(cfg.Badge.MinInterval), 1)
	}

	controller := lifecycle.NewController(
		channels.NewInitializer(platform, opts.OS.Channels, log),
		reg,
		br,
		presenter.NewPresenter(platform, opts.OS.Notifier, log, mx),
		badge.NewReconciler(platform, api, opts.OS.Badge, badgeCfg, log, mx),
		deeplink.NewDispatcher(opts.OS.Opener, opts.Navigate, api, log),
		opts.Secondary,
		log,
	)

	return &Subsystem{
		Lifecycle:    controller,
		Registration: reg,
		API:          api,
		store:        store,
	}, nil
}

// Close stops listeners and releases the device state store.
func (s *Subsystem) Close() error {
	s.Lifecycle.Stop()
	return s.store.Close()
}

// Package registration owns OS notification permission and the device's
// backend registration record. Registration is a non-critical enhancement:
// every operation here swallows its own errors and reports a safe default,
// so the app stays fully usable with notifications unavailable.
package registration

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vantage-invest/pushkit/internal/apiclient"
	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/internal/provider"
	"github.com/vantage-invest/pushkit/internal/repository"
	apperrors "github.com/vantage-invest/pushkit/pkg/errors"
	"github.com/vantage-invest/pushkit/pkg/logger"
	"github.com/vantage-invest/pushkit/pkg/metrics"
)

// PermissionStatus is the OS authorization outcome.
type PermissionStatus string

const (
	PermissionAuthorized  PermissionStatus = "authorized"
	PermissionProvisional PermissionStatus = "provisional"
	PermissionDenied      PermissionStatus = "denied"
)

// PermissionRequester is the OS seam for the notification permission prompt.
type PermissionRequester interface {
	Request(ctx context.Context) (PermissionStatus, error)
}

// Manager composes permission, token fetch and backend registration for one
// device against the primary push provider.
type Manager struct {
	device    model.Device
	requester PermissionRequester
	primary   provider.Provider
	api       *apiclient.Client
	repo      repository.DeviceStateRepository
	validate  *validator.Validate
	logger    *logger.Logger
	metrics   *metrics.Metrics

	granted bool
	userID  string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.logger = l.WithComponent("registration") }
}

// WithMetrics attaches subsystem metrics.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

// NewManager creates a registration manager.
func NewManager(device model.Device, requester PermissionRequester, primary provider.Provider, api *apiclient.Client, repo repository.DeviceStateRepository, opts ...Option) *Manager {
	m := &Manager{
		device:    device,
		requester: requester,
		primary:   primary,
		api:       api,
		repo:      repo,
		validate:  validator.New(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetUser associates subsequent registrations with the authenticated user.
func (m *Manager) SetUser(userID string) {
	m.userID = userID
}

// PermissionGranted reports the outcome of the last RequestPermission call.
func (m *Manager) PermissionGranted() bool {
	return m.granted
}

// RequestPermission asks the OS for notification authorization. It never
// returns an error: any OS failure is logged and reported as not granted.
// iOS counts provisional authorization as granted; Android below API 33 has
// no runtime permission and is implicitly granted.
func (m *Manager) RequestPermission(ctx context.Context) bool {
	if m.device.Platform == model.PlatformAndroid && m.device.APILevel < model.AndroidNotificationPermissionAPILevel {
		m.granted = true
		return true
	}

	status, err := m.requester.Request(ctx)
	if err != nil {
		m.logger.Error(err, "notification permission request failed")
		m.granted = false
		return false
	}

	switch status {
	case PermissionAuthorized:
		m.granted = true
	case PermissionProvisional:
		m.granted = m.device.Platform == model.PlatformIOS
	default:
		m.granted = false
	}

	if !m.granted {
		m.logger.Info("notification permission not granted", "status", string(status))
	}
	return m.granted
}

// FetchToken retrieves the current push token from the primary provider.
// Returns empty on failure; callers treat empty as "registration not
// possible now".
func (m *Manager) FetchToken(ctx context.Context) string {
	token, err := m.primary.Token(ctx)
	if err != nil {
		m.logger.Error(apperrors.Provider(m.primary.Name(), err), "failed to fetch push token")
		return ""
	}
	return token
}

// RegisterDevice fetches the current token and registers it with the
// backend. Short-circuits to false when permission was not granted or the
// token is unavailable.
func (m *Manager) RegisterDevice(ctx context.Context) bool {
	if !m.granted {
		m.logger.Debug("skipping registration, permission not granted")
		return false
	}
	token := m.FetchToken(ctx)
	if token == "" {
		m.observeRegistration("no_token")
		return false
	}
	return m.RegisterWithToken(ctx, token)
}

// RegisterWithToken registers the given token with the backend. The token
// refresh path calls it directly so the stale token is never resubmitted.
// An unchanged token for the same user is skipped client-side; the backend
// upsert makes resubmission harmless either way.
func (m *Manager) RegisterWithToken(ctx context.Context, token string) bool {
	state, err := m.loadState(ctx)
	if err != nil {
		m.logger.Error(err, "failed to load device state")
		m.observeRegistration("error")
		return false
	}

	if state.LastToken == token && state.UserID == m.userID {
		m.logger.Debug("token unchanged, skipping registration")
		m.observeRegistration("skipped")
		return true
	}

	reg := model.DeviceRegistration{
		Token:    token,
		DeviceID: state.DeviceID,
		Platform: m.device.Platform,
		DeviceInfo: model.DeviceInfo{
			Model:      m.device.Model,
			OSVersion:  m.device.OSVersion,
			AppVersion: m.device.AppVersion,
		},
	}
	if err := m.validate.Struct(reg); err != nil {
		m.logger.Error(apperrors.InvalidRegistration(err), "device registration failed validation")
		m.observeRegistration("invalid")
		return false
	}

	if err := m.api.RegisterPushToken(ctx, reg); err != nil {
		m.logger.Error(err, "failed to register device", "device_id", state.DeviceID)
		m.observeRegistration("failed")
		return false
	}

	state.LastToken = token
	state.UserID = m.userID
	state.RegisteredAt = time.Now().UTC()
	if err := m.repo.Put(ctx, state); err != nil {
		// Registration succeeded; a stale local mirror only costs one
		// redundant upsert later.
		m.logger.Error(err, "failed to persist device state")
	}

	m.logger.Info("device registered", "device_id", state.DeviceID)
	m.observeRegistration("success")
	return true
}

// UnregisterDevice removes the backend registration and deletes the local
// token. Best effort: it runs during logout and must not block it.
func (m *Manager) UnregisterDevice(ctx context.Context) {
	state, err := m.loadState(ctx)
	if err != nil {
		m.logger.Error(err, "failed to load device state for unregister")
		return
	}

	token := state.LastToken
	if token == "" {
		token = m.FetchToken(ctx)
	}
	if token != "" {
		if err := m.api.UnregisterPushToken(ctx, token); err != nil {
			m.logger.Error(err, "failed to unregister device")
		}
	}

	if err := m.primary.DeleteToken(ctx); err != nil {
		m.logger.Error(apperrors.Provider(m.primary.Name(), err), "failed to delete push token")
	}

	if err := m.repo.ClearRegistration(ctx); err != nil {
		m.logger.Error(err, "failed to clear device state")
	}
}

// loadState returns the persisted device state, minting a device id on
// first run.
func (m *Manager) loadState(ctx context.Context) (*model.DeviceState, error) {
	state, err := m.repo.Get(ctx)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if state == nil {
		state = &model.DeviceState{DeviceID: uuid.NewString()}
		if err := m.repo.Put(ctx, state); err != nil {
			return nil, apperrors.Storage(err)
		}
	}
	return state, nil
}

func (m *Manager) observeRegistration(status string) {
	if m.metrics != nil {
		m.metrics.Registrations.WithLabelValues(status).Inc()
	}
}

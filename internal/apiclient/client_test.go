package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/pkg/circuitbreaker"
	apperrors "github.com/vantage-invest/pushkit/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, func() string { return "test-token" })
}

func TestDoSendsBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success": true}`))
	})

	err := client.MarkAllRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestDoSurfacesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "subscription required"}`))
	})

	err := client.SendTestPush(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBackendRejected, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "subscription required")
}

func TestDoFallsBackToGenericMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	})

	err := client.MarkRead(context.Background(), "n1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestDoWrapsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(srv.URL, nil)

	err := client.MarkAllRead(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBackend, apperrors.CodeOf(err))
}

func TestUnreadCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/notifications/unread-count", r.URL.Path)
		w.Write([]byte(`{"success": true, "data": {"count": 7}}`))
	})

	count, err := client.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestHistoryQueryParameters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "true", r.URL.Query().Get("unreadOnly"))
		w.Write([]byte(`{"success": true, "data": {"notifications": [{"id": "n1", "title": "Hi"}], "page": 2, "limit": 20, "total": 41}}`))
	})

	page, err := client.History(context.Background(), 2, 20, true)
	require.NoError(t, err)
	assert.Equal(t, 41, page.Total)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, "n1", page.Notifications[0].ID)
}

func TestRegisterPushTokenBody(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.Write([]byte(`{"success": true}`))
	})

	reg := model.DeviceRegistration{
		Token:    "tok-1",
		DeviceID: "dev-1",
		Platform: model.PlatformIOS,
		DeviceInfo: model.DeviceInfo{
			Model: "iPhone15,2", OSVersion: "17.2", AppVersion: "3.1.0",
		},
	}
	require.NoError(t, client.RegisterPushToken(context.Background(), reg))
	assert.Equal(t, "/api/notifications/push-token", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestUnregisterPushTokenSendsBody(t *testing.T) {
	var gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte(`{"success": true}`))
	})

	require.NoError(t, client.UnregisterPushToken(context.Background(), "tok-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestPreferencesRoundTrip(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"success": true, "data": {"enabled": true, "channels": {"marketing": false}}}`))
		case http.MethodPatch:
			w.Write([]byte(`{"success": true}`))
		}
	})

	prefs, err := client.Preferences(context.Background())
	require.NoError(t, err)
	assert.True(t, prefs.Enabled)
	assert.False(t, prefs.Channels["marketing"])

	prefs.Channels["marketing"] = true
	require.NoError(t, client.UpdatePreferences(context.Background(), *prefs))
}

func TestBreakerFailsFastWhenOpen(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`not json`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, nil,
		WithBreaker(circuitbreaker.New(circuitbreaker.Settings{Threshold: 2, Cooldown: time.Minute})))

	require.Error(t, client.MarkAllRead(context.Background()))
	require.Error(t, client.MarkAllRead(context.Background()))
	assert.Equal(t, 2, hits)

	// Breaker open: the request never reaches the server.
	err := client.MarkAllRead(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBackend, apperrors.CodeOf(err))
	assert.Equal(t, 2, hits)
}

func TestBreakerResetsOnBackendResponse(t *testing.T) {
	breaker := circuitbreaker.New(circuitbreaker.Settings{Threshold: 2, Cooldown: time.Minute})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "nope"}`))
	})
	WithBreaker(breaker)(client)

	// Rejections are answers, not outages; they must not trip the breaker.
	for i := 0; i < 5; i++ {
		require.Error(t, client.MarkAllRead(context.Background()))
	}
	assert.Equal(t, circuitbreaker.StateClosed, breaker.State())
}

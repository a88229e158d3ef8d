package deeplink

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-invest/pushkit/internal/apiclient"
	"github.com/vantage-invest/pushkit/internal/model"
)

type fakeOpener struct {
	canOpen bool
	opened  []string
	err     error
}

func (f *fakeOpener) CanOpen(url string) bool { return f.canOpen }

func (f *fakeOpener) Open(ctx context.Context, url string) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, url)
	return nil
}

type navRecorder struct {
	links []Link
}

func (n *navRecorder) navigate(link Link) {
	n.links = append(n.links, link)
}

func opened(actionURL, id string) model.OpenedEvent {
	return model.OpenedEvent{
		Notification: model.InboundNotification{
			Data: model.NotificationData{ActionURL: actionURL, NotificationID: id},
		},
		ActionURL:      actionURL,
		NotificationID: id,
	}
}

func TestHandleOpenedExternalURL(t *testing.T) {
	op := &fakeOpener{canOpen: true}
	nav := &navRecorder{}
	d := NewDispatcher(op, nav.navigate, nil, nil)

	d.HandleOpened(context.Background(), opened("https://example.com", "n1"))

	assert.Equal(t, []string{"https://example.com"}, op.opened)
	assert.Empty(t, nav.links)
}

func TestHandleOpenedInternalRoute(t *testing.T) {
	op := &fakeOpener{canOpen: true}
	nav := &navRecorder{}
	d := NewDispatcher(op, nav.navigate, nil, nil)

	d.HandleOpened(context.Background(), opened("app://insights/42", "n2"))

	assert.Empty(t, op.opened)
	require.Len(t, nav.links, 1)
	assert.Equal(t, "app://insights/42", nav.links[0].ActionURL)
	assert.Equal(t, "n2", nav.links[0].NotificationID)
}

func TestHandleOpenedWithoutActionURL(t *testing.T) {
	op := &fakeOpener{canOpen: true}
	nav := &navRecorder{}
	d := NewDispatcher(op, nav.navigate, nil, nil)

	assert.NotPanics(t, func() {
		d.HandleOpened(context.Background(), model.OpenedEvent{})
	})
	assert.Empty(t, op.opened)
	assert.Empty(t, nav.links)
}

func TestHandleOpenedUnopenableExternalURL(t *testing.T) {
	op := &fakeOpener{canOpen: false}
	d := NewDispatcher(op, nil, nil, nil)

	d.HandleOpened(context.Background(), opened("http://legacy.example.com", ""))
	assert.Empty(t, op.opened)
}

func TestHandleOpenedSwallowsOpenerFailure(t *testing.T) {
	op := &fakeOpener{canOpen: true, err: errors.New("no browser")}
	d := NewDispatcher(op, nil, nil, nil)

	assert.NotPanics(t, func() {
		d.HandleOpened(context.Background(), opened("https://example.com", ""))
	})
}

func TestHandleOpenedTracksClick(t *testing.T) {
	var clicked []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clicked = append(clicked, r.URL.Path)
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()
	api := apiclient.NewClient(srv.URL, func() string { return "tok" })

	nav := &navRecorder{}
	d := NewDispatcher(&fakeOpener{}, nav.navigate, api, nil)

	d.HandleOpened(context.Background(), opened("app://chat/9", "n9"))

	assert.Equal(t, []string{"/api/notifications/n9/click"}, clicked)
	assert.Len(t, nav.links, 1)
}

func TestHandleOpenedClickTrackingFailureIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()
	api := apiclient.NewClient(srv.URL, func() string { return "tok" })
	d := NewDispatcher(&fakeOpener{canOpen: true}, nil, api, nil)

	assert.NotPanics(t, func() {
		d.HandleOpened(context.Background(), opened("https://example.com", "n1"))
	})
}

package badge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/vantage-invest/pushkit/internal/apiclient"
	"github.com/vantage-invest/pushkit/internal/model"
)

type fakeSetter struct {
	values []int
	err    error
}

func (f *fakeSetter) SetBadge(ctx context.Context, count int) error {
	if f.err != nil {
		return f.err
	}
	f.values = append(f.values, count)
	return nil
}

type countingBackend struct {
	fetches atomic.Int64
	count   int
	fail    bool
}

func (b *countingBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.fetches.Add(1)
		if b.fail {
			w.Write([]byte(`{"success": false, "message": "unavailable"}`))
			return
		}
		fmt.Fprintf(w, `{"success": true, "data": {"count": %d}}`, b.count)
	}
}

func newReconciler(t *testing.T, platform model.Platform, backend *countingBackend, setter *fakeSetter, cfg Config) *Reconciler {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	api := apiclient.NewClient(srv.URL, func() string { return "tok" })
	return NewReconciler(platform, api, setter, cfg, nil, nil)
}

func TestReconcileFetchesOncePerEvent(t *testing.T) {
	backend := &countingBackend{count: 5}
	setter := &fakeSetter{}
	r := newReconciler(t, model.PlatformIOS, backend, setter, Config{})

	r.Reconcile(context.Background())
	r.Reconcile(context.Background())

	assert.Equal(t, int64(2), backend.fetches.Load())
	assert.Equal(t, []int{5, 5}, setter.values)
}

func TestReconcileFailureLeavesBadgeUnchanged(t *testing.T) {
	backend := &countingBackend{fail: true}
	setter := &fakeSetter{}
	r := newReconciler(t, model.PlatformIOS, backend, setter, Config{})

	assert.NotPanics(t, func() { r.Reconcile(context.Background()) })
	assert.Empty(t, setter.values)
}

func TestReconcileSkipsBadgeOnAndroid(t *testing.T) {
	backend := &countingBackend{count: 3}
	setter := &fakeSetter{}
	r := newReconciler(t, model.PlatformAndroid, backend, setter, Config{})

	r.Reconcile(context.Background())

	// The authoritative count is still fetched; only the badge write is
	// iOS-specific.
	assert.Equal(t, int64(1), backend.fetches.Load())
	assert.Empty(t, setter.values)
}

func TestReconcileCoalescesBursts(t *testing.T) {
	backend := &countingBackend{count: 9}
	setter := &fakeSetter{}
	r := newReconciler(t, model.PlatformIOS, backend, setter, Config{
		Coalesce: true,
		Limiter:  rate.NewLimiter(rate.Every(time.Minute), 1),
	})

	for i := 0; i < 10; i++ {
		r.Reconcile(context.Background())
	}

	assert.Equal(t, int64(1), backend.fetches.Load())
	assert.Equal(t, []int{9}, setter.values)
}

func TestResetForcesZeroRegardlessOfBackend(t *testing.T) {
	backend := &countingBackend{fail: true}
	setter := &fakeSetter{}
	r := newReconciler(t, model.PlatformIOS, backend, setter, Config{})

	r.Reset(context.Background())

	assert.Equal(t, []int{0}, setter.values)
	assert.Zero(t, backend.fetches.Load())
}

func TestResetSetterFailureIsSwallowed(t *testing.T) {
	backend := &countingBackend{}
	setter := &fakeSetter{err: errors.New("badge api down")}
	r := newReconciler(t, model.PlatformIOS, backend, setter, Config{})

	assert.NotPanics(t, func() { r.Reset(context.Background()) })
}

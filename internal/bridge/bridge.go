// Package bridge subscribes to both vendor providers and presents one
// normalized event stream to the rest of the subsystem. Both providers fan
// into a single queue consumed by one goroutine, so handlers run serialized
// in arrival order; no total order is imposed across providers, and each
// inbound notification is treated as independent.
package bridge

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/internal/provider"
	"github.com/vantage-invest/pushkit/pkg/logger"
	"github.com/vantage-invest/pushkit/pkg/metrics"
)

// Handlers receive normalized events. Any handler may be nil.
type Handlers struct {
	// OnReceived fires for every foreground and background message.
	OnReceived func(ctx context.Context, n model.InboundNotification)

	// OnOpened fires when the user taps a notification, including the one
	// that launched the app from a quit state.
	OnOpened func(ctx context.Context, ev model.OpenedEvent)

	// OnTokenRefresh fires when a provider rotates the push token. The old
	// token is implicitly invalid once this fires.
	OnTokenRefresh func(ctx context.Context, token string)
}

// Bridge is the dual-provider listener bridge.
type Bridge struct {
	providers []provider.Provider
	dedupTTL  time.Duration
	logger    *logger.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	teardown func()
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Bridge) { b.logger = l.WithComponent("bridge") }
}

// WithMetrics attaches subsystem metrics.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(b *Bridge) { b.metrics = mx }
}

// WithDedupTTL overrides the opened-event deduplication window.
// Non-positive values keep the default.
func WithDedupTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		if ttl > 0 {
			b.dedupTTL = ttl
		}
	}
}

// NewBridge creates a bridge over the given providers, usually the primary
// and secondary vendor.
func NewBridge(providers []provider.Provider, opts ...Option) *Bridge {
	b := &Bridge{
		providers: providers,
		dedupTTL:  30 * time.Second,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Setup moves the bridge to Active: it checks each provider for a
// cold-launch notification, subscribes to all live streams, and starts the
// consumer. The returned func tears everything down and moves the bridge
// back to Uninitialized. Calling Setup while active tears down the previous
// listener set first.
func (b *Bridge) Setup(ctx context.Context, handlers Handlers) func() {
	b.mu.Lock()
	if b.teardown != nil {
		b.logger.Warn("bridge setup while active, tearing down previous listeners")
		old := b.teardown
		b.teardown = nil
		b.mu.Unlock()
		old()
		b.mu.Lock()
	}

	queue := make(chan provider.Event, 64)
	var wg sync.WaitGroup
	var cancels []func()

	for _, p := range b.providers {
		events, cancel := p.Subscribe()
		cancels = append(cancels, cancel)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range events {
				queue <- ev
			}
		}()
	}

	done := make(chan struct{})
	seen := cache.New(b.dedupTTL, b.dedupTTL)
	go b.consume(ctx, queue, handlers, seen, done)

	var once sync.Once
	teardown := func() {
		once.Do(func() {
			for _, cancel := range cancels {
				cancel()
			}
			wg.Wait()
			close(queue)
			<-done
			b.mu.Lock()
			b.teardown = nil
			b.mu.Unlock()
		})
	}
	b.teardown = teardown
	b.mu.Unlock()

	// Cold-launch check: a tap on a notification while the app was fully
	// quit surfaces as each provider's initial notification.
	for _, p := range b.providers {
		initial, err := p.InitialNotification(ctx)
		if err != nil {
			b.logger.Error(err, "failed to read initial notification", "provider", p.Name())
			continue
		}
		if initial != nil {
			queue <- provider.Event{Provider: p.Name(), Kind: provider.EventOpened, Message: initial}
		}
	}

	b.logger.Info("listener bridge active", "providers", len(b.providers))
	return teardown
}

// consume is the single event-loop goroutine. It exits when queue closes.
func (b *Bridge) consume(ctx context.Context, queue <-chan provider.Event, handlers Handlers, seen *cache.Cache, done chan<- struct{}) {
	defer close(done)
	for ev := range queue {
		b.dispatch(ctx, ev, handlers, seen)
	}
}

func (b *Bridge) dispatch(ctx context.Context, ev provider.Event, handlers Handlers, seen *cache.Cache) {
	if b.metrics != nil {
		b.metrics.EventsReceived.WithLabelValues(ev.Provider, string(ev.Kind)).Inc()
	}

	switch ev.Kind {
	case provider.EventForegroundMessage, provider.EventBackgroundMessage:
		if ev.Message == nil || handlers.OnReceived == nil {
			return
		}
		handlers.OnReceived(ctx, Normalize(*ev.Message))

	case provider.EventOpened:
		if ev.Message == nil || handlers.OnOpened == nil {
			return
		}
		opened := NormalizeOpened(*ev.Message)
		if opened.NotificationID != "" {
			if _, dup := seen.Get(opened.NotificationID); dup {
				b.logger.Debug("dropping duplicate opened event", "notification_id", opened.NotificationID)
				if b.metrics != nil {
					b.metrics.OpenedDeduped.Inc()
				}
				return
			}
			seen.SetDefault(opened.NotificationID, struct{}{})
		}
		handlers.OnOpened(ctx, opened)

	case provider.EventTokenRefresh:
		if ev.Token == "" || handlers.OnTokenRefresh == nil {
			return
		}
		b.logger.Info("push token refreshed", "provider", ev.Provider)
		if b.metrics != nil {
			b.metrics.TokenRefreshes.Inc()
		}
		handlers.OnTokenRefresh(ctx, ev.Token)
	}
}

// Normalize reduces a raw provider payload to the internal notification
// shape. Unrecognized data keys are preserved in Extra.
func Normalize(msg provider.Message) model.InboundNotification {
	data := model.NotificationData{
		Type:           msg.Data[model.DataKeyType],
		ChannelID:      msg.Data[model.DataKeyChannelID],
		ActionURL:      msg.Data[model.DataKeyActionURL],
		NotificationID: msg.Data[model.DataKeyNotificationID],
	}
	if raw := msg.Data[model.DataKeyBadgeCount]; raw != "" {
		if count, err := strconv.Atoi(raw); err == nil {
			data.BadgeCount = count
		}
	}
	for k, v := range msg.Data {
		switch k {
		case model.DataKeyType, model.DataKeyChannelID, model.DataKeyActionURL,
			model.DataKeyNotificationID, model.DataKeyBadgeCount:
		default:
			if data.Extra == nil {
				data.Extra = map[string]string{}
			}
			data.Extra[k] = v
		}
	}
	return model.InboundNotification{Title: msg.Title, Body: msg.Body, Data: data}
}

// NormalizeOpened builds the opened-event shape handed to the deep-link
// dispatcher.
func NormalizeOpened(msg provider.Message) model.OpenedEvent {
	n := Normalize(msg)
	return model.OpenedEvent{
		Notification:   n,
		ActionURL:      n.Data.ActionURL,
		NotificationID: n.Data.NotificationID,
	}
}

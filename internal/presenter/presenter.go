// Package presenter converts a normalized inbound push into a displayed
// local notification with a category-derived icon and color.
package presenter

import (
	"context"

	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/pkg/logger"
	"github.com/vantage-invest/pushkit/pkg/metrics"
)

// LocalNotification is the OS-facing render request. ChannelID applies on
// Android; Sound and Badge on iOS.
type LocalNotification struct {
	Title     string
	Body      string
	ChannelID string
	Color     string
	Icon      string
	Sound     bool
	Badge     int
}

// Notifier is the OS seam that shows a local notification.
type Notifier interface {
	Show(ctx context.Context, n LocalNotification) error
}

type style struct {
	color string
	icon  string
}

// styleForType maps a payload type to its accent color and icon. Types not
// listed fall back to the default style.
var styleForType = map[string]style{
	"subscription": {color: "#F5A623", icon: "ic_subscription"},
	"insight":      {color: "#1B6EF3", icon: "ic_insight"},
	"news":         {color: "#1B6EF3", icon: "ic_news"},
	"chat":         {color: "#27AE60", icon: "ic_chat"},
	"premium":      {color: "#9B51E0", icon: "ic_premium"},
	"system":       {color: "#EB5757", icon: "ic_system"},
	"marketing":    {color: "#828282", icon: "ic_offer"},
}

var defaultStyle = style{color: "#1B6EF3", icon: "ic_notification"}

// knownChannels indexes the fixed channel set for channel resolution.
var knownChannels = func() map[string]bool {
	known := make(map[string]bool, len(model.DefaultChannels()))
	for _, ch := range model.DefaultChannels() {
		known[ch.ID] = true
	}
	return known
}()

// Presenter renders inbound notifications through a Notifier.
type Presenter struct {
	platform model.Platform
	notifier Notifier
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewPresenter creates a Presenter. metrics may be nil.
func NewPresenter(platform model.Platform, notifier Notifier, l *logger.Logger, mx *metrics.Metrics) *Presenter {
	if l == nil {
		l = logger.Nop()
	}
	return &Presenter{
		platform: platform,
		notifier: notifier,
		logger:   l.WithComponent("presenter"),
		metrics:  mx,
	}
}

// Display shows n as a local notification. A failed render is logged and
// never propagated: one bad display must not break the listener loop for
// subsequent notifications.
func (p *Presenter) Display(ctx context.Context, n model.InboundNotification) {
	st, ok := styleForType[n.Data.Type]
	if !ok {
		st = defaultStyle
	}

	local := LocalNotification{
		Title:     n.Title,
		Body:      n.Body,
		ChannelID: resolveChannel(n.Data),
		Color:     st.color,
		Icon:      st.icon,
	}
	if p.platform == model.PlatformIOS {
		local.Sound = true
		local.Badge = n.Data.BadgeCount
	}

	if err := p.notifier.Show(ctx, local); err != nil {
		p.logger.Error(err, "failed to display notification", "type", n.Data.Type)
		if p.metrics != nil {
			p.metrics.DisplayFailed.Inc()
		}
	}
}

// resolveChannel picks the Android channel: an explicit channelId wins, then
// a type that names a known channel, then the default channel.
func resolveChannel(data model.NotificationData) string {
	if knownChannels[data.ChannelID] {
		return data.ChannelID
	}
	if knownChannels[data.Type] {
		return data.Type
	}
	return model.ChannelDefault
}

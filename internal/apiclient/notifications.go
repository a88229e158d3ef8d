package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vantage-invest/pushkit/internal/model"
)

const basePath = "/api/notifications"

// RegisterPushToken creates or updates this device's registration. The
// backend upserts by (deviceId, platform), so re-registering with a fresh
// token replaces the previous record.
func (c *Client) RegisterPushToken(ctx context.Context, reg model.DeviceRegistration) error {
	return c.do(ctx, http.MethodPost, basePath+"/push-token", "register_push_token", reg, nil)
}

// UnregisterPushToken removes the registration holding token.
func (c *Client) UnregisterPushToken(ctx context.Context, token string) error {
	body := map[string]string{"token": token}
	return c.do(ctx, http.MethodDelete, basePath+"/push-token", "unregister_push_token", body, nil)
}

// UnreadCount fetches the authoritative unread notification count.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var data struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, basePath+"/unread-count", "unread_count", nil, &data); err != nil {
		return 0, err
	}
	return data.Count, nil
}

// History fetches one page of the notification feed.
func (c *Client) History(ctx context.Context, page, limit int, unreadOnly bool) (*model.NotificationPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("limit", fmt.Sprintf("%d", limit))
	if unreadOnly {
		q.Set("unreadOnly", "true")
	}

	var data model.NotificationPage
	if err := c.do(ctx, http.MethodGet, basePath+"/history?"+q.Encode(), "history", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MarkRead marks one notification as read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, basePath+"/"+url.PathEscape(id)+"/read", "mark_read", nil, nil)
}

// MarkAllRead marks the whole feed as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, basePath+"/mark-all-read", "mark_all_read", nil, nil)
}

// TrackClick records a notification tap for engagement tracking.
func (c *Client) TrackClick(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, basePath+"/"+url.PathEscape(id)+"/click", "track_click", nil, nil)
}

// DeleteNotification removes one notification from the feed.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, basePath+"/"+url.PathEscape(id), "delete_notification", nil, nil)
}

// Preferences fetches the user's channel opt-in state.
func (c *Client) Preferences(ctx context.Context) (*model.Preferences, error) {
	var data model.Preferences
	if err := c.do(ctx, http.MethodGet, basePath+"/preferences", "get_preferences", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UpdatePreferences replaces the user's channel opt-in state.
func (c *Client) UpdatePreferences(ctx context.Context, prefs model.Preferences) error {
	return c.do(ctx, http.MethodPatch, basePath+"/preferences", "update_preferences", prefs, nil)
}

// SendTestPush asks the backend to deliver a test notification to this user.
func (c *Client) SendTestPush(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, basePath+"/test", "send_test_push", nil, nil)
}

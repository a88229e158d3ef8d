// Package integration hosts an in-memory fake of the notification backend.
// The real backend is out of scope for this repository; the fake implements
// just enough of its REST surface, envelope included, to drive the whole
// subsystem end to end in tests.
package integration

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vantage-invest/pushkit/internal/model"
)

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, response{Success: false, Message: message})
}

// Backend is the fake notification backend.
type Backend struct {
	mu            sync.Mutex
	registrations map[string]model.DeviceRegistration
	notifications []model.NotificationRecord
	preferences   model.Preferences
	clicks        []string
	testPushes    int
}

// NewBackend creates an empty fake backend.
func NewBackend() *Backend {
	return &Backend{
		registrations: map[string]model.DeviceRegistration{},
		preferences: model.Preferences{
			Enabled:  true,
			Channels: map[string]bool{},
		},
	}
}

// Seed adds a notification to the feed.
func (b *Backend) Seed(n model.NotificationRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append(b.notifications, n)
}

// Registrations returns the current registration records keyed by device id.
func (b *Backend) Registrations() map[string]model.DeviceRegistration {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]model.DeviceRegistration, len(b.registrations))
	for k, v := range b.registrations {
		out[k] = v
	}
	return out
}

// Clicks returns the notification ids that received click tracking.
func (b *Backend) Clicks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.clicks))
	copy(out, b.clicks)
	return out
}

// TestPushes returns how many test pushes were requested.
func (b *Backend) TestPushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.testPushes
}

func (b *Backend) unread() int {
	count := 0
	for _, n := range b.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// Router builds the gin engine serving the fake API.
func (b *Backend) Router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api/notifications")
	api.Use(func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			respondError(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
		}
	})

	api.POST("/push-token", b.registerDevice)
	api.DELETE("/push-token", b.unregisterDevice)
	api.GET("/unread-count", b.unreadCount)
	api.GET("/history", b.history)
	api.PATCH("/:id/read", b.markRead)
	api.POST("/mark-all-read", b.markAllRead)
	api.POST("/:id/click", b.trackClick)
	api.DELETE("/:id", b.deleteNotification)
	api.GET("/preferences", b.getPreferences)
	api.PATCH("/preferences", b.updatePreferences)
	api.POST("/test", b.testPush)

	return r
}

func (b *Backend) registerDevice(c *gin.Context) {
	var reg model.DeviceRegistration
	if err := c.ShouldBindJSON(&reg); err != nil {
		respondError(c, http.StatusBadRequest, "invalid registration")
		return
	}
	if reg.Token == "" || reg.DeviceID == "" {
		respondError(c, http.StatusBadRequest, "token and deviceId are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	// At most one active registration per (deviceId, platform).
	b.registrations[reg.DeviceID+"/"+string(reg.Platform)] = reg
	respondSuccess(c, nil)
}

func (b *Backend) unregisterDevice(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, reg := range b.registrations {
		if reg.Token == body.Token {
			delete(b.registrations, key)
		}
	}
	respondSuccess(c, nil)
}

func (b *Backend) unreadCount(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	respondSuccess(c, gin.H{"count": b.unread()})
}

func (b *Backend) history(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	unreadOnly := c.Query("unreadOnly") == "true"

	b.mu.Lock()
	defer b.mu.Unlock()
	var filtered []model.NotificationRecord
	for _, n := range b.notifications {
		if unreadOnly && n.Read {
			continue
		}
		filtered = append(filtered, n)
	}

	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	respondSuccess(c, model.NotificationPage{
		Notifications: filtered[start:end],
		Page:          page,
		Limit:         limit,
		Total:         len(filtered),
	})
}

func (b *Backend) markRead(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notifications {
		if n.ID == c.Param("id") {
			b.notifications[i].Read = true
			respondSuccess(c, nil)
			return
		}
	}
	respondError(c, http.StatusNotFound, "notification not found")
}

func (b *Backend) markAllRead(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.notifications {
		b.notifications[i].Read = true
	}
	respondSuccess(c, nil)
}

func (b *Backend) trackClick(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clicks = append(b.clicks, c.Param("id"))
	respondSuccess(c, nil)
}

func (b *Backend) deleteNotification(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notifications {
		if n.ID == c.Param("id") {
			b.notifications = append(b.notifications[:i], b.notifications[i+1:]...)
			respondSuccess(c, nil)
			return
		}
	}
	respondError(c, http.StatusNotFound, "notification not found")
}

func (b *Backend) getPreferences(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	respondSuccess(c, b.preferences)
}

func (b *Backend) updatePreferences(c *gin.Context) {
	var prefs model.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		respondError(c, http.StatusBadRequest, "invalid preferences")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.preferences = prefs
	respondSuccess(c, nil)
}

func (b *Backend) testPush(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.testPushes++
	respondSuccess(c, nil)
}

package provider

import (
	"context"
	"sync"
)

// Memory is an in-process Provider used by tests and development builds.
// Vendor adapters in the mobile shell replace it in production.
type Memory struct {
	name string

	mu          sync.Mutex
	token       string
	tokenErr    error
	deleteErr   error
	initial     *Message
	identity    *Identity
	subscribers []*subscriber
}

// subscriber serializes sends and close on its own mutex, so an emission
// concurrent with an unsubscribe never sends on a closed channel.
type subscriber struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *subscriber) send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ch <- ev
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

var (
	_ Provider       = (*Memory)(nil)
	_ IdentityMirror = (*Memory)(nil)
)

// NewMemory creates a memory provider with a fixed starting token.
func NewMemory(name, token string) *Memory {
	return &Memory{name: name, token: token}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return m.token, nil
}

func (m *Memory) DeleteToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.token = ""
	return nil
}

func (m *Memory) InitialNotification(ctx context.Context) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	initial := m.initial
	m.initial = nil
	return initial, nil
}

func (m *Memory) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 16)}
	m.mu.Lock()
	m.subscribers = append(m.subscribers, sub)
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			for i, s := range m.subscribers {
				if s == sub {
					m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
					break
				}
			}
			m.mu.Unlock()
			sub.close()
		})
	}
	return sub.ch, cancel
}

func (m *Memory) Login(ctx context.Context, id Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = &id
	return nil
}

func (m *Memory) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = nil
	return nil
}

func (m *Memory) SetTags(ctx context.Context, tags map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		m.identity = &Identity{}
	}
	m.identity.Tags = tags
	return nil
}

// Identity returns the currently mirrored identity, or nil after logout.
func (m *Memory) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// SetTokenError makes subsequent Token calls fail.
func (m *Memory) SetTokenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenErr = err
}

// SetDeleteError makes subsequent DeleteToken calls fail.
func (m *Memory) SetDeleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// SetInitialNotification arms the cold-launch notification returned by the
// next InitialNotification call.
func (m *Memory) SetInitialNotification(msg *Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initial = msg
}

// EmitMessage delivers a foreground or background message event.
func (m *Memory) EmitMessage(kind EventKind, msg Message) {
	m.emit(Event{Provider: m.name, Kind: kind, Message: &msg})
}

// EmitOpened delivers a notification-opened event.
func (m *Memory) EmitOpened(msg Message) {
	m.emit(Event{Provider: m.name, Kind: EventOpened, Message: &msg})
}

// RefreshToken replaces the current token and delivers a token-refresh
// event carrying the new one.
func (m *Memory) RefreshToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	m.emit(Event{Provider: m.name, Kind: EventTokenRefresh, Token: token})
}

func (m *Memory) emit(ev Event) {
	m.mu.Lock()
	subs := make([]*subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.send(ev)
	}
}

// Package circuitbreaker guards calls to the notification backend. After a
// run of consecutive failures the breaker opens and callers skip the network
// round trip entirely, falling straight through to their safe defaults until
// the cooldown elapses.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned in place of a network error while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// State of the breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Settings tune a Breaker. Zero values fall back to the defaults.
type Settings struct {
	// Threshold is the number of consecutive failures that opens the
	// breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before allowing a
	// probe request through.
	Cooldown time.Duration
}

const (
	defaultThreshold = 5
	defaultCooldown  = 30 * time.Second
)

// Breaker is a consecutive-failure circuit breaker. Safe for concurrent use.
type Breaker struct {
	threshold int
	cooldown  time.Duration

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

// New creates a closed Breaker.
func New(settings Settings) *Breaker {
	b := &Breaker{
		threshold: settings.Threshold,
		cooldown:  settings.Cooldown,
		state:     StateClosed,
	}
	if b.threshold <= 0 {
		b.threshold = defaultThreshold
	}
	if b.cooldown <= 0 {
		b.cooldown = defaultCooldown
	}
	return b
}

// Allow reports whether a request may proceed. While open it returns false
// until the cooldown has elapsed, at which point the breaker moves to
// half-open and lets a single probe through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailure) < b.cooldown {
			return false
		}
		b.state = StateHalfOpen
		return true
	case StateHalfOpen:
		// One probe at a time; further callers wait for its outcome.
		return false
	default:
		return true
	}
}

// Success records a completed request and closes the breaker.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = StateClosed
}

// Failure records a failed request. A failed half-open probe reopens the
// breaker immediately.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = time.Now()
	if b.state == StateHalfOpen || b.failures >= b.threshold {
		b.state = StateOpen
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

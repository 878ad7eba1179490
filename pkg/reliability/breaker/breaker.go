// Package breaker implements the per-(provider, tool) circuit breaker:
// a three-state machine (Closed/Open/HalfOpen) that trips after a
// windowed failure count and self-heals through a half-open trial
// period. Generalizes the consecutive-failure health tracking in
// pkg/providers/http_provider.go (updateHealth) from a single bool
// into a full state machine, with an optional state-change callback
// (OnStateChange). The breaker itself does no logging.
package breaker

import (
	"sync"
	"time"

	"steer-sdk/core/pkg/providers"
)

// State is one of the three circuit states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Config configures one breaker.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout time.Duration
	HalfOpenRequests int
	WindowSize time.Duration
}

// DefaultConfig is a conservative starting point: five failures inside a
// minute trips the breaker, and it waits 30s before probing again.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout: 30 * time.Second,
		HalfOpenRequests: 1,
		WindowSize: time.Minute,
	}
}

// OnStateChange is invoked whenever the breaker transitions.
type OnStateChange func(key string, from, to State)

// Breaker tracks circuit state for every (provider, tool) key.
type Breaker struct {
	mu sync.Mutex
	config Config
	circuits map[string]*circuit
	onChange OnStateChange
}

type circuit struct {
	state State
	failureTimestamps []time.Time
	consecutiveSuccesses int
	consecutiveFailures int
	openedAt time.Time
	halfOpenInFlight int
}

// New creates a breaker with the given config. A zero Config is replaced
// with DefaultConfig.
func New(config Config) *Breaker {
	if config.FailureThreshold == 0 {
		config = DefaultConfig()
	}
	return &Breaker{
		config: config,
		circuits: make(map[string]*circuit),
	}
}

// OnStateChange registers a callback fired after every transition.
func (b *Breaker) OnStateChange(fn OnStateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Key builds the (provider, tool?) key circuits are indexed by.
func Key(provider, tool string) string {
	if tool == "" {
		return provider
	}
	return provider + "::" + tool
}

func (b *Breaker) circuitFor(key string) *circuit {
	c, ok := b.circuits[key]
	if !ok {
		c = &circuit{state: Closed}
		b.circuits[key] = c
	}
	return c
}

// Call runs fn under the breaker's protection: it acquires permission,
// executes, then records the outcome.
func (b *Breaker) Call(key string, fn func() error) error {
	if err := b.acquire(key); err != nil {
		return err
	}
	err := fn()
	b.record(key, err == nil)
	return err
}

// acquire implements the permission check: denied with a 503
// ProviderError when Open with an unexpired timeout, or HalfOpen with no
// permits left.
func (b *Breaker) acquire(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(key)
	switch c.state {
	case Closed:
		return nil
	case Open:
		if time.Since(c.openedAt) >= b.config.Timeout {
			b.transition(key, c, HalfOpen)
			c.halfOpenInFlight = 1
			return nil
		}
		return circuitOpenError(key)
	case HalfOpen:
		if c.halfOpenInFlight >= b.config.HalfOpenRequests {
			return circuitOpenError(key)
		}
		c.halfOpenInFlight++
		return nil
	}
	return nil
}

func circuitOpenError(key string) error {
	return &providers.ProviderError{
		Provider: key,
		StatusCodeValue: 503,
		Message: "circuit breaker open for " + key,
	}
}

// record updates failure/success counters and applies the state
// transition table below.
func (b *Breaker) record(key string, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(key)
	now := time.Now()

	if success {
		c.consecutiveFailures = 0
		c.consecutiveSuccesses++
		if c.state == HalfOpen {
			c.halfOpenInFlight = 0
			if c.consecutiveSuccesses >= b.config.SuccessThreshold {
				b.transition(key, c, Closed)
				c.failureTimestamps = nil
			}
		}
		return
	}

	c.consecutiveSuccesses = 0
	c.consecutiveFailures++
	c.failureTimestamps = append(c.failureTimestamps, now)
	c.failureTimestamps = withinWindow(c.failureTimestamps, now, b.config.WindowSize)

	switch c.state {
	case HalfOpen:
		c.halfOpenInFlight = 0
		b.transition(key, c, Open)
		c.openedAt = now
	case Closed:
		if len(c.failureTimestamps) >= b.config.FailureThreshold {
			b.transition(key, c, Open)
			c.openedAt = now
		}
	}
}

func withinWindow(timestamps []time.Time, now time.Time, window time.Duration) []time.Time {
	if window <= 0 {
		return timestamps
	}
	cutoff := now.Add(-window)
	out := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

func (b *Breaker) transition(key string, c *circuit, to State) {
	from := c.state
	c.state = to
	if from == to {
		return
	}
	if b.onChange != nil {
		cb := b.onChange
		go cb(key, from, to)
	}
}

// State returns the current state for key (Closed if never seen).
func (b *Breaker) State(key string) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.circuits[key]; ok {
		return c.state
	}
	return Closed
}

// Reset returns the circuit for key to Closed and clears its stats.
func (b *Breaker) Reset(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.circuitFor(key)
	c.state = Closed
	c.failureTimestamps = nil
	c.consecutiveFailures = 0
	c.consecutiveSuccesses = 0
	c.halfOpenInFlight = 0
}

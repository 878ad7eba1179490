// Package streamstate implements streaming connection retry and
// checkpointing: a stream function is wrapped so a dropped connection
// reconnects with backoff, resuming from the last checkpoint and
// preserving the partial response already delivered to the caller.
// The exponential-backoff loop mirrors pkg/reliability/retry's
// non-streaming version; chunk bookkeeping mirrors the token
// accounting pkg/streaming uses for usage estimation.
package streamstate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"steer-sdk/core/pkg/classify"
)

// Config configures one streaming retry wrapper.
type Config struct {
	MaxConnectionAttempts int
	ConnectionTimeout time.Duration
	ReadTimeout time.Duration
	ReconnectOnError bool
	PreservePartialResponse bool
	BackoffMultiplier float64
	InitialBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultConfig is a conservative baseline: three reconnect attempts,
// doubling backoff from 500ms to 10s.
func DefaultConfig() Config {
	return Config{
		MaxConnectionAttempts: 3,
		ConnectionTimeout: 10 * time.Second,
		ReadTimeout: 30 * time.Second,
		ReconnectOnError: true,
		PreservePartialResponse: true,
		BackoffMultiplier: 2.0,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff: 10 * time.Second,
	}
}

// Checkpoint records the stream's resume position ("every tenth
// chunk creates a checkpoint").
type Checkpoint struct {
	ChunkIndex int
	ByteCount int
}

// Chunk is one unit read from the underlying stream function.
type Chunk struct {
	Index int
	Data []byte
	ContentType string
}

// State tracks one in-flight (or completed) stream's chunks and
// checkpoints, keyed by requestID.
type State struct {
	RequestID string
	Chunks []Chunk
	Checksums []string
	Checkpoints []Checkpoint
	LastUpdated time.Time
	Completed bool
}

func (s *State) partialPreview(maxBytes int) []byte {
	var buf []byte
	for _, c := range s.Chunks {
		buf = append(buf, c.Data...)
	}
	if maxBytes > 0 && len(buf) > maxBytes {
		buf = buf[:maxBytes]
	}
	return buf
}

// Manager owns the set of in-flight/completed StreamStates and their
// TTL-based eviction ("Stream states older than TTL are evicted
// on cleanup").
type Manager struct {
	mu sync.Mutex
	states map[string]*State
	ttl time.Duration
}

// NewManager creates a manager with the given state TTL (
// STEER_STREAMING_STATE_TTL, default 900s).
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 900 * time.Second
	}
	return &Manager{states: make(map[string]*State), ttl: ttl}
}

// StreamFunc reads the stream starting at resumeFrom (a chunk index, or
// 0 for a fresh start), sending chunks to the out channel and returning
// when the stream ends or errors.
type StreamFunc func(ctx context.Context, resumeFrom int, out chan<- Chunk) error

// Run wraps streamFn with the reconnect/checkpoint behavior of,
// delivering chunks to out as they arrive and returning the final
// error (nil on a clean end-of-stream).
func (m *Manager) Run(ctx context.Context, requestID string, config Config, streamFn StreamFunc, out chan<- Chunk) error {
	state := m.getOrCreate(requestID)

	var lastErr error
	for attempt := 0; attempt < maxAttempts(config); attempt++ {
		if attempt > 0 {
			backoff := backoffFor(config, attempt-1)
			slog.Warn("streaming retry: reconnecting",
				"request_id", requestID, "attempt", attempt, "backoff", backoff,
				"partial_preview", string(state.partialPreview(256)))

			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		resumeFrom := resumePosition(state)
		innerCtx, cancel := context.WithTimeout(ctx, config.ConnectionTimeout)
		relay := make(chan Chunk, 16)
		done := make(chan error, 1)

		go func() {
			done <- streamFn(innerCtx, resumeFrom, relay)
			close(relay)
		}()

		var streamErr error
		for chunk := range relay {
			m.record(state, chunk)
			select {
			case out <- chunk:
			case <-ctx.Done():
				cancel()
				return ctx.Err()
			}
		}
		streamErr = <-done
		cancel()

		if streamErr == nil {
			m.mu.Lock()
			state.Completed = true
			state.LastUpdated = time.Now()
			m.mu.Unlock()
			return nil
		}

		lastErr = streamErr
		classification := classify.Classify(streamErr)
		if !config.ReconnectOnError || !classification.IsRetryable {
			return streamErr
		}
	}

	return lastErr
}

func maxAttempts(config Config) int {
	if config.MaxConnectionAttempts <= 0 {
		return 1
	}
	return config.MaxConnectionAttempts
}

func backoffFor(config Config, attempt int) time.Duration {
	base := config.InitialBackoff
	mult := config.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	d := base
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
	}
	if config.MaxBackoff > 0 && d > config.MaxBackoff {
		d = config.MaxBackoff
	}
	return d
}

func resumePosition(state *State) int {
	if len(state.Checkpoints) > 0 {
		return state.Checkpoints[len(state.Checkpoints)-1].ChunkIndex + 1
	}
	return len(state.Chunks)
}

func (m *Manager) getOrCreate(requestID string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[requestID]
	if !ok {
		s = &State{RequestID: requestID, LastUpdated: time.Now()}
		m.states[requestID] = s
	}
	return s
}

// record appends a chunk to state, computes its md5, and creates a
// checkpoint every tenth chunk.
func (m *Manager) record(state *State, chunk Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state.Chunks = append(state.Chunks, chunk)
	sum := md5.Sum(chunk.Data)
	state.Checksums = append(state.Checksums, hex.EncodeToString(sum[:]))
	state.LastUpdated = time.Now()

	if (chunk.Index+1)%10 == 0 {
		total := 0
		for _, c := range state.Chunks {
			total += len(c.Data)
		}
		state.Checkpoints = append(state.Checkpoints, Checkpoint{ChunkIndex: chunk.Index, ByteCount: total})
	}
}

// HasPartialResponse reports whether any bytes were captured for requestID.
func (m *Manager) HasPartialResponse(requestID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[requestID]
	return ok && len(s.Chunks) > 0
}

// GetPartialResponse returns the concatenated bytes captured so far for
// requestID, or an error if nothing was captured.
func (m *Manager) GetPartialResponse(requestID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[requestID]
	if !ok || len(s.Chunks) == 0 {
		return nil, errors.New("no partial response recorded for " + requestID)
	}
	return s.partialPreview(0), nil
}

// CleanupExpired evicts states whose LastUpdated exceeds the manager's TTL.
func (m *Manager) CleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-m.ttl)
	for id, s := range m.states {
		if s.LastUpdated.Before(cutoff) {
			delete(m.states, id)
		}
	}
}

// Package events implements typed event fan-out: a single Manager per
// request holds up to five optional callbacks
// (onStart/onDelta/onUsage/onComplete/onError), enriching every event
// it constructs with request-wide metadata (requestID, traceID,
// sdkVersion) before dispatch, mirroring pkg/streaming.Adapter's
// per-call state object (one instance per call, sequential emission).
// Request/trace IDs are generated with github.com/google/uuid.
package events

import (
	"time"

	"github.com/google/uuid"

	"steer-sdk/core/pkg/core"
)

// SDKVersion is reported on every event's metadata.
const SDKVersion = "0.1.0"

// Event is the payload delivered to a Manager's callbacks. It wraps a
// core.StreamEvent (for generation/streaming event kinds) or an
// orchestration-level kind ( Start/Complete/Error at the tool
// level) with the enrichment fields requires on every event.
type Event struct {
	Kind core.StreamEventKind
	RequestID string
	TraceID string
	SDKVersion string
	Timestamp time.Time

	// Stream carries the underlying generation event when this Event
	// wraps one (Delta/Usage/Complete/Error from a provider stream).
	Stream core.StreamEvent

	// Fields carries orchestration-level event data, tagging
	// source=toolName, tool_type=bundle where applicable, for
	// events that are not simple stream passthroughs.
	Fields map[string]any
}

// CreateEventHook lets a caller rewrite an event's Fields just before
// dispatch ( `onCreateEvent(type, fields) → fields`).
type CreateEventHook func(kind core.StreamEventKind, fields map[string]any) map[string]any

// Manager fans a single request's events out to up to five typed
// callbacks. A nil callback is simply skipped; Manager never requires
// every hook to be set.
type Manager struct {
	RequestID string
	TraceID string

	OnStart func(Event)
	OnDelta func(Event)
	OnUsage func(Event)
	OnComplete func(Event)
	OnError func(Event)

	OnCreateEvent CreateEventHook

	// OnAny receives every event whose Kind is not one of the five
	// generation kinds above ( bundle_started/replicate_done/
	// partial_summary/bundle_ready), in addition to the typed callback
	// when both apply.
	OnAny func(Event)
}

// NewManager creates a Manager for one request. An empty requestID
// gets a generated uuid so every event is still traceable.
func NewManager(requestID, traceID string) *Manager {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &Manager{RequestID: requestID, TraceID: traceID}
}

// newEvent builds the enrichment envelope ("enriching each with
// timestamp, request id, sdk version, trace id").
func (m *Manager) newEvent(kind core.StreamEventKind, fields map[string]any) Event {
	if m.OnCreateEvent != nil {
		fields = m.OnCreateEvent(kind, fields)
	}
	return Event{
		Kind: kind,
		RequestID: m.RequestID,
		TraceID: m.TraceID,
		SDKVersion: SDKVersion,
		Timestamp: time.Now(),
		Fields: fields,
	}
}

// EmitStream wraps a core.StreamEvent as produced by pkg/streaming and
// dispatches it to the matching callback by Kind.
func (m *Manager) EmitStream(se core.StreamEvent) {
	e := m.newEvent(se.Kind, nil)
	e.Stream = se
	m.dispatch(se.Kind, e)
}

// EmitStart emits an orchestration-level Start event,
// carrying source/tool_type style tags in fields.
func (m *Manager) EmitStart(fields map[string]any) {
	m.dispatch(core.EventStart, m.newEvent(core.EventStart, fields))
}

// EmitComplete emits an orchestration-level Complete event.
func (m *Manager) EmitComplete(fields map[string]any) {
	m.dispatch(core.EventComplete, m.newEvent(core.EventComplete, fields))
}

// EmitError emits an orchestration-level Error event.
func (m *Manager) EmitError(fields map[string]any) {
	m.dispatch(core.EventError, m.newEvent(core.EventError, fields))
}

// Emit dispatches an event of an arbitrary kind, for bundle-tool
// streaming events (bundle_started, replicate_done, partial_summary,
// bundle_ready —) that fall outside the five generation kinds.
// These always route through OnAny rather than one of the typed
// callbacks.
func (m *Manager) Emit(kind core.StreamEventKind, fields map[string]any) {
	m.dispatch(kind, m.newEvent(kind, fields))
}

// dispatch runs the matching callback, if any. Emission is sequential
// per stream; callers that want concurrency fan out themselves.
func (m *Manager) dispatch(kind core.StreamEventKind, e Event) {
	var cb func(Event)
	switch kind {
	case core.EventStart:
		cb = m.OnStart
	case core.EventDelta:
		cb = m.OnDelta
	case core.EventUsage:
		cb = m.OnUsage
	case core.EventComplete:
		cb = m.OnComplete
	case core.EventError:
		cb = m.OnError
	default:
		cb = m.OnAny
	}
	if cb != nil {
		cb(e)
	}
}

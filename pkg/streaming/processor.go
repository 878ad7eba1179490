package streaming

import (
	"log/slog"
	"time"

	"steer-sdk/core/pkg/core"
)

// Filter decides whether an event should continue through the
// pipeline. A panic in a filter or transformer is logged and the event
// is dropped.
type Filter func(core.StreamEvent) bool

// Transformer mutates an event in place (correlation id, timestamp,
// metrics) before it reaches the caller.
type Transformer func(core.StreamEvent) core.StreamEvent

// ByKind returns a Filter that only passes events of the given kinds.
func ByKind(kinds ...core.StreamEventKind) Filter {
	allowed := make(map[core.StreamEventKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	return func(e core.StreamEvent) bool { return allowed[e.Kind] }
}

// ByProvider returns a Filter that only passes events from the given
// provider.
func ByProvider(provider string) Filter {
	return func(e core.StreamEvent) bool { return e.Provider == provider }
}

// WithCorrelationID returns a Transformer that stamps a correlation id
// into an event's metadata.
func WithCorrelationID(id string) Transformer {
	return func(e core.StreamEvent) core.StreamEvent {
		if e.Metadata == nil {
			e.Metadata = map[string]any{}
		}
		e.Metadata["correlation_id"] = id
		return e
	}
}

// EventProcessor runs a configured pipeline of filters and transformers
// over a stream's events. It can deliver inline (synchronous,
// the default) or via a background queue with batched delivery, a max
// batch size, and a flush timeout; either mode MUST NOT block the
// stream path longer than BatchTimeout.
type EventProcessor struct {
	filters []Filter
	transformers []Transformer

	background bool
	batchSize int
	batchTimeout time.Duration

	in chan core.StreamEvent
	out chan []core.StreamEvent
	done chan struct{}
}

// ProcessorOption configures an EventProcessor.
type ProcessorOption func(*EventProcessor)

// WithFilters appends filters to the pipeline.
func WithFilters(filters ...Filter) ProcessorOption {
	return func(p *EventProcessor) { p.filters = append(p.filters, filters...) }
}

// WithTransformers appends transformers to the pipeline.
func WithTransformers(transformers ...Transformer) ProcessorOption {
	return func(p *EventProcessor) { p.transformers = append(p.transformers, transformers...) }
}

// WithBackgroundQueue switches the processor into batched background
// delivery mode: events are queued and released in batches of
// batchSize, or whenever timeout elapses since the last flush,
// whichever comes first.
func WithBackgroundQueue(batchSize int, timeout time.Duration) ProcessorOption {
	return func(p *EventProcessor) {
		p.background = true
		p.batchSize = batchSize
		p.batchTimeout = timeout
	}
}

// NewEventProcessor builds a processor from the given options.
func NewEventProcessor(opts ...ProcessorOption) *EventProcessor {
	p := &EventProcessor{batchSize: 16, batchTimeout: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(p)
	}
	if p.background {
		p.in = make(chan core.StreamEvent, p.batchSize*4)
		p.out = make(chan []core.StreamEvent, 4)
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Process runs one event through the filter/transform pipeline,
// returning the (possibly transformed) event and whether it survived
// filtering. In background mode the event is queued for batched
// delivery instead and Process always returns (zero-value, false); use
// Batches() to consume delivered batches.
func (p *EventProcessor) Process(e core.StreamEvent) (core.StreamEvent, bool) {
	for _, f := range p.filters {
		if !safeFilter(f, e) {
			return core.StreamEvent{}, false
		}
	}
	for _, t := range p.transformers {
		var ok bool
		if e, ok = safeTransform(t, e); !ok {
			return core.StreamEvent{}, false
		}
	}
	if p.background {
		select {
		case p.in <- e:
		default:
			slog.Warn("streaming: event processor queue full, dropping event", "kind", e.Kind)
		}
		return core.StreamEvent{}, false
	}
	return e, true
}

// Batches returns the channel of delivered batches when running in
// background mode; nil otherwise.
func (p *EventProcessor) Batches() <-chan []core.StreamEvent {
	return p.out
}

// Stop flushes any partial batch and stops the background consumer.
// Flush on stop is mandatory.
func (p *EventProcessor) Stop() {
	if !p.background {
		return
	}
	close(p.done)
}

func (p *EventProcessor) drain() {
	batch := make([]core.StreamEvent, 0, p.batchSize)
	timer := time.NewTimer(p.batchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		out := batch
		batch = make([]core.StreamEvent, 0, p.batchSize)
		select {
		case p.out <- out:
		case <-p.done:
		}
	}

	for {
		select {
		case e, ok := <-p.in:
			if !ok {
				flush()
				close(p.out)
				return
			}
			batch = append(batch, e)
			if len(batch) >= p.batchSize {
				flush()
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(p.batchTimeout)
			}
		case <-timer.C:
			flush()
			timer.Reset(p.batchTimeout)
		case <-p.done:
			// flush() would race its send against the closed done
			// channel, so the final batch is sent unconditionally.
			if len(batch) > 0 {
				p.out <- batch
			}
			close(p.out)
			return
		}
	}
}

func safeFilter(f Filter, e core.StreamEvent) (pass bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("streaming: filter panicked, dropping event", "recover", r)
			pass = false
		}
	}()
	return f(e)
}

func safeTransform(t Transformer, e core.StreamEvent) (out core.StreamEvent, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("streaming: transformer panicked, dropping event", "recover", r)
			out, ok = core.StreamEvent{}, false
		}
	}()
	return t(e), true
}

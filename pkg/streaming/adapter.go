// Package streaming implements the provider-agnostic streaming
// pipeline: Adapter tracks one streaming call's bookkeeping
// (chunk count, duration, optional JSON repair and usage aggregation)
// and turns a provider's raw chunk channel into the core.StreamEvent
// sequence the Router/Client surface to callers. Provider adapters
// parse each provider's own SSE envelope and emit providers.StreamChunk;
// this package owns the provider-agnostic normalization on top (event
// envelopes, JSON structured-output assembly, usage estimation for
// providers that don't report it).
package streaming

import (
	"context"
	"sync"
	"time"

	"steer-sdk/core/pkg/classify"
	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/providers"
)

// Adapter is one streaming call's state ("One instance per
// streaming call").
type Adapter struct {
	provider string
	model string
	requestID string

	mu sync.Mutex
	chunkCount int
	totalChars int
	startTime time.Time
	streamCompleted bool

	jsonHandler *JSONStreamHandler
	usageAggregator UsageAggregator
	eventProcessor *EventProcessor
}

// Option configures an Adapter at construction.
type Option func(*Adapter)

// WithJSONRepair enables incremental JSON parsing of text deltas, for
// providers emitting structured (json_schema) output over a text
// stream.
func WithJSONRepair() Option {
	return func(a *Adapter) { a.jsonHandler = NewJSONStreamHandler() }
}

// WithUsageEstimation configures the usage aggregator for providers
// whose stream does not report usage (xAI; optionally others).
func WithUsageEstimation(agg UsageAggregator) Option {
	return func(a *Adapter) { a.usageAggregator = agg }
}

// WithProcessor attaches an EventProcessor's filter/transform pipeline.
func WithProcessor(p *EventProcessor) Option {
	return func(a *Adapter) { a.eventProcessor = p }
}

// NewAdapter creates the per-call streaming state.
func NewAdapter(provider, model, requestID string, opts ...Option) *Adapter {
	a := &Adapter{provider: provider, model: model, requestID: requestID, startTime: time.Now()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run consumes chunks (as produced by a pkg/providers adapter's
// StreamCompletion) and returns a channel of core.StreamEvent observing
// the ordering: one Start, then Deltas with a strictly
// increasing chunkIndex, at most one Usage, then exactly one terminal
// Complete xor Error. messages seeds the usage aggregator's prompt
// estimate, when one is configured.
func (a *Adapter) Run(ctx context.Context, chunks <-chan *providers.StreamChunk, messages []providers.Message) <-chan core.StreamEvent {
	out := make(chan core.StreamEvent)

	go func() {
		defer close(out)

		if a.usageAggregator != nil {
			a.usageAggregator.AddPrompt(messages, a.model)
		}

		a.emit(ctx, out, a.envelope(core.EventStart, func(e *core.StreamEvent) {
					e.StreamID = a.requestID
				}))

		idx := 0
		var usageEmitted bool
		var finalUsage *core.Usage

		for {
			select {
			case <-ctx.Done():
				a.emit(ctx, out, a.errorEvent(ctx.Err(), false))
				return
			case chunk, ok := <-chunks:
				if !ok {
					a.finish(ctx, out, idx, finalUsage)
					return
				}
				if chunk.Error != nil {
					classification := classify.Classify(chunk.Error)
					a.emit(ctx, out, a.errorEvent(chunk.Error, classification.IsRetryable))
					return
				}

				delta := a.normalizeDelta(chunk)
				a.trackChunk(len(chunk.Delta))
				a.emit(ctx, out, a.envelope(core.EventDelta, func(e *core.StreamEvent) {
							e.Delta = delta
							e.ChunkIndex = idx
						}))
				idx++

				if a.usageAggregator != nil && delta.Kind == core.DeltaText {
					a.usageAggregator.AddCompletionChunk(chunk.Delta)
				}

				if chunk.Usage != nil && !usageEmitted {
					usage := *chunk.Usage
					usage.Normalize()
					finalUsage = &usage
					usageEmitted = true
					a.emit(ctx, out, a.envelope(core.EventUsage, func(e *core.StreamEvent) {
								e.Usage = usage
								e.IsEstimated = false
								e.Confidence = 1.0
							}))
				}

				if chunk.FinishReason != "" {
					if !usageEmitted && a.usageAggregator != nil {
						estimated := a.usageAggregator.Usage().ToCore()
						finalUsage = &estimated
						a.emit(ctx, out, a.envelope(core.EventUsage, func(e *core.StreamEvent) {
									e.Usage = estimated
									e.IsEstimated = true
									e.Confidence = estimated.CacheInfo.EstimationConfidence
								}))
					}
					a.finish(ctx, out, idx, finalUsage)
					return
				}
			}
		}
	}()

	return out
}

// normalizeDelta implements the normalizeDelta: the provider adapter
// has already pulled text out of its wire envelope into
// providers.StreamChunk.Delta, so the remaining job here is to decide
// whether the text completes a JSON value (structured-output streams)
// and, if so, replace it with a JSON-kind delta.
func (a *Adapter) normalizeDelta(chunk *providers.StreamChunk) core.StreamDelta {
	delta := core.StreamDelta{Kind: core.DeltaText, Value: chunk.Delta, Provider: a.provider, RawEvent: chunk}

	if a.jsonHandler != nil {
		if obj, complete := a.jsonHandler.Feed(chunk.Delta); complete {
			delta.Kind = core.DeltaJSON
			delta.Value = obj
			delta.Metadata = map[string]any{"complete_json": true}
		}
	}
	return delta
}

func (a *Adapter) trackChunk(size int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunkCount++
	a.totalChars += size
}

func (a *Adapter) finish(ctx context.Context, out chan<- core.StreamEvent, chunks int, usage *core.Usage) {
	a.mu.Lock()
	if a.streamCompleted {
		a.mu.Unlock()
		return
	}
	a.streamCompleted = true
	duration := time.Since(a.startTime)
	a.mu.Unlock()

	if a.jsonHandler != nil {
		if obj, repaired := a.jsonHandler.End(); repaired {
			a.emit(ctx, out, a.envelope(core.EventDelta, func(e *core.StreamEvent) {
						e.Delta = core.StreamDelta{Kind: core.DeltaJSON, Value: obj, Provider: a.provider, Metadata: map[string]any{"complete_json": true, "repaired": true}}
						e.ChunkIndex = chunks
					}))
			chunks++
		}
	}

	a.emit(ctx, out, a.envelope(core.EventComplete, func(e *core.StreamEvent) {
				e.TotalChunks = chunks
				e.DurationMs = duration.Milliseconds()
				e.FinalUsage = usage
			}))
}

func (a *Adapter) errorEvent(err error, retryable bool) core.StreamEvent {
	return a.envelope(core.EventError, func(e *core.StreamEvent) {
			e.Err = err
			e.ErrorType = classify.Classify(err).Category.String()
			e.IsRetryable = retryable
		})
}

func (a *Adapter) envelope(kind core.StreamEventKind, fill func(*core.StreamEvent)) core.StreamEvent {
	e := core.StreamEvent{
		Kind: kind,
		Provider: a.provider,
		Model: a.model,
		RequestID: a.requestID,
		Timestamp: time.Now(),
	}
	fill(&e)
	return e
}

// emit runs the event through the optional processor pipeline, then
// delivers it unless the processor dropped it or the context ended
// first.
func (a *Adapter) emit(ctx context.Context, out chan<- core.StreamEvent, e core.StreamEvent) {
	if a.eventProcessor != nil {
		processed, ok := a.eventProcessor.Process(e)
		if !ok {
			return
		}
		e = processed
	}
	select {
	case out <- e:
	case <-ctx.Done():
	}
}

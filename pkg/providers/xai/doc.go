// Package xai implements the provider adapter for xAI's Grok models
// over the Chat Completions-shaped API at api.x.ai.
//
// xAI's streaming responses never include a usage field; callers that
// need an estimate should pair this adapter's StreamCompletion with
// pkg/streaming's UsageAggregator, e.g.
//
//	agg := streaming.NewUsageAggregator("xai", model)
//	adapter := streaming.NewAdapter("xai", model, requestID, streaming.WithUsageEstimation(agg))
package xai

package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/events"
)

// defaultSeeds is the deterministic seed table a bundle falls back to
// when the caller doesn't supply its own: a fixed, reproducible
// sequence rather than real randomness, since deterministic
// replicates matter more here than random ones.
var defaultSeeds = []int{11, 23, 47, 59, 71, 83, 97, 113, 127, 139}

func seedsFor(k int, provided []int) []int {
	if len(provided) >= k {
		return provided[:k]
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		if i < len(defaultSeeds) {
			out[i] = defaultSeeds[i]
		} else {
			out[i] = defaultSeeds[i%len(defaultSeeds)] + i
		}
	}
	return out
}

// BundleOptions configures one bundle-tool run.
type BundleOptions struct {
	K int
	Seeds []int
	Epsilon float64
	SchemaURI string
	PerReplicateBudget *Budget
	GlobalBudget *Budget
	MaxParallel int
	TimeoutMs int64
	TraceID string
	RequestID string
}

// DefaultBundleOptions returns the default k=3/epsilon=0.2.
func DefaultBundleOptions() BundleOptions {
	return BundleOptions{K: 3, Epsilon: 0.2, MaxParallel: 10}
}

// bundleOptionsFromMap reads the keys an orchestrator merges into a
// tool's options map (mergedToolOptions/mergeOptions) back into a
// BundleOptions, falling back to DefaultBundleOptions for anything
// absent.
func bundleOptionsFromMap(options map[string]any) BundleOptions {
	o := DefaultBundleOptions()
	if k := optionInt(options, "k", o.K); k > 0 {
		o.K = k
	}
	if mp := optionInt(options, "max_parallel", o.MaxParallel); mp > 0 {
		o.MaxParallel = mp
	}
	if eps, ok := options["epsilon"].(float64); ok {
		o.Epsilon = eps
	}
	if uri, ok := options["schema_uri"].(string); ok {
		o.SchemaURI = uri
	}
	if tid, ok := options["trace_id"].(string); ok {
		o.TraceID = tid
	}
	if rid, ok := options["request_id"].(string); ok {
		o.RequestID = rid
	}
	if tms, ok := options["timeout_ms"]; ok {
		o.TimeoutMs = int64(toInt(tms))
	}
	if seeds, ok := options["seeds"].([]int); ok {
		o.Seeds = seeds
	}
	return o
}

// ReplicateRunner executes one sub-agent call for a bundle replicate.
// GenerationRunner below is the concrete implementation wired to
// pkg/client; tests can substitute their own.
type ReplicateRunner interface {
	RunReplicate(ctx context.Context, req Request, seed int, options map[string]any) (data any, usage core.Usage, model string, err error)
}

// Generator is the subset of *client.Client's surface a
// GenerationRunner needs ( "Bundle Tool" replicates are plain
// generate() calls against the normalized client, not a separate
// sub-agent runtime).
type Generator interface {
	Generate(ctx context.Context, modelID string, messages []core.Message, params core.GenerationParams) (*core.GenerationResponse, error)
}

// GenerationRunner implements ReplicateRunner on top of a Generator,
// grounded on simple_bundle.py's `_run_replicate`, which called
// AgentRunner.run with a per-replicate seed and deterministic=true; the
// Go equivalent is one Generate call per replicate with Seed set.
type GenerationRunner struct {
	Client Generator
}

func (g *GenerationRunner) RunReplicate(ctx context.Context, req Request, seed int, options map[string]any) (any, core.Usage, string, error) {
	model := req.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	messages := req.Messages
	if len(messages) == 0 {
		messages = []core.Message{{Role: core.RoleUser, Content: req.Query}}
	}
	params := core.GenerationParams{Model: model, Seed: &seed}
	resp, err := g.Client.Generate(ctx, model, messages, params)
	if err != nil {
		return nil, core.Usage{}, model, err
	}
	return resp.Text, resp.Usage, model, nil
}

// BundleTool runs K replicates of a ReplicateRunner in parallel,
// validates each, and computes a statistical summary.
type BundleTool struct {
	NameValue string
	VersionValue string
	DescriptionValue string
	Runner ReplicateRunner
	Validate func(data any) ReplicateQuality
	Task string
	Metrics *Metrics

	// DisableEarlyStop defaults to false so early stop is enabled
	// unless explicitly turned off.
	DisableEarlyStop bool
}

func (b *BundleTool) supportsEarlyStop() bool { return !b.DisableEarlyStop }

func (b *BundleTool) Name() string { return b.NameValue }
func (b *BundleTool) Version() string { return b.VersionValue }
func (b *BundleTool) Description() string { return b.DescriptionValue }

// Execute implements Tool: a bundle tool's Execute returns a Result
// wrapping an EvidenceBundle.
func (b *BundleTool) Execute(ctx context.Context, req Request, options map[string]any, em *events.Manager) (Result, error) {
	bundle, err := b.runBundle(ctx, req, bundleOptionsFromMap(options), em)
	if err != nil {
		return Result{}, &ToolExecutionError{ToolName: b.Name(), Cause: err, IsRetryable: false}
	}
	return BundleResult(bundle), nil
}

type replicateOutcome struct {
	id string
	data any
	quality ReplicateQuality
	usage core.Usage
	elapsedMs int64
	seed int
	model string
	err error
	cancelled bool
}

// cancelledOutcome marks a replicate that never launched because early
// stop fired before it could acquire a semaphore slot.
func cancelledOutcome(id string, seed int) replicateOutcome {
	return replicateOutcome{
		id: id,
		quality: ReplicateQuality{Valid: false, Errors: []string{"cancelled: bundle early-stopped"}},
		seed: seed,
		cancelled: true,
	}
}

// maxPairwiseDistance is the largest distance (0 when identical, 1
// otherwise) across every pair of valid outputs seen so far.
func maxPairwiseDistance(validOutputs []any) float64 {
	var max float64
	for i := 0; i < len(validOutputs); i++ {
		for j := i + 1; j < len(validOutputs); j++ {
			if fmt.Sprintf("%v", validOutputs[i]) != fmt.Sprintf("%v", validOutputs[j]) {
				max = 1.0
			}
		}
	}
	return max
}

// runBundle fans out K replicates under a semaphore, validates each,
// computes the summary, and aggregates usage/cost. It also supports
// early stop: once two or more valid replicates agree within epsilon,
// remaining not-yet-started replicates are cancelled.
func (b *BundleTool) runBundle(ctx context.Context, req Request, opts BundleOptions, em *events.Manager) (*EvidenceBundle, error) {
	start := time.Now()
	emit(em, "bundle_started", map[string]any{"k": opts.K, "query": req.Query})

	seeds := seedsFor(opts.K, opts.Seeds)
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 10
	}

	// runCtx is cancelled the moment early stop triggers so replicates
	// still waiting on the semaphore abandon their launch instead of
	// starting a sub-agent call that nobody will read ( "Early
	// stop:... further launches are cancelled").
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	outcomes := make([]replicateOutcome, opts.K)
	launched := make([]bool, opts.K)
	sem := make(chan struct{}, maxParallel)
	results := make(chan int, opts.K)
	var wg sync.WaitGroup

	for i := 0; i < opts.K; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-runCtx.Done():
				outcomes[i] = cancelledOutcome(fmt.Sprintf("r%d", i+1), seeds[i])
				results <- i
				return
			}
			defer func() { <-sem }()
			if runCtx.Err() != nil {
				outcomes[i] = cancelledOutcome(fmt.Sprintf("r%d", i+1), seeds[i])
				results <- i
				return
			}
			launched[i] = true
			outcomes[i] = b.runOne(runCtx, req, fmt.Sprintf("r%d", i+1), seeds[i])
			emit(em, "replicate_done", map[string]any{
					"replicate_id": outcomes[i].id,
					"valid": outcomes[i].quality.Valid,
					"elapsed_ms": outcomes[i].elapsedMs,
				})
			results <- i
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Consume completions as they arrive (not in launch order) so the
	// early-stop check below sees the true completion sequence
	// requires ("after any replicate completes").
	replicates := make([]Replicate, opts.K)
	var validOutputs []any
	var earlyStopped bool
	var earlyStopReason string
	completedCount := 0

	for idx := range results {
		o := outcomes[idx]
		completedCount++
		replicates[idx] = Replicate{
			ID: o.id,
			Data: o.data,
			Quality: o.quality,
			Usage: usagePtr(o.usage),
			ElapsedMs: o.elapsedMs,
			Seed: o.seed,
			Model: o.model,
		}
		if o.quality.Valid {
			validOutputs = append(validOutputs, o.data)
		}

		if !earlyStopped && b.supportsEarlyStop() && len(validOutputs) >= 2 {
			if maxPairwiseDistance(validOutputs) <= opts.Epsilon {
				earlyStopped = true
				earlyStopReason = fmt.Sprintf("max pairwise distance <= epsilon (%.2f) after %d replicates", opts.Epsilon, completedCount)
				cancelRun()
			}
		}
	}

	// Trim to only the replicates that actually launched or were
	// explicitly cancelled; KCompleted in the meta below reflects the
	// launched subset.
	kept := replicates[:0]
	for i, r := range replicates {
		if launched[i] || outcomes[i].cancelled {
			kept = append(kept, r)
		}
	}
	replicates = kept

	summary := computeSummary(replicates, validOutputs)

	if b.Metrics != nil {
		for i, o := range outcomes {
			if launched[i] {
				b.Metrics.RecordBundleReplicate(b.Name(), time.Duration(o.elapsedMs)*time.Millisecond)
			}
		}
		b.Metrics.RecordBundleConfidence(b.Name(), summary.Confidence)
	}

	if opts.K > 2 && len(validOutputs) >= 2 {
		emit(em, "partial_summary", map[string]any{"confidence": summary.Confidence})
	}

	usageTotal := aggregateUsage(replicates)
	costTotal := estimateReplicateCost(usageTotal)

	task := b.Task
	if task == "" {
		task = "bundle_analysis"
	}
	model := req.Model
	if model == "" && len(replicates) > 0 {
		model = replicates[0].Model
	}

	launchedCount := 0
	for _, ok := range launched {
		if ok {
			launchedCount++
		}
	}

	bundle := &EvidenceBundle{
		Meta: BundleMeta{
			Task: task,
			K: opts.K,
			KCompleted: launchedCount,
			Model: model,
			Seeds: seeds,
			EarlyStopped: earlyStopped,
			EarlyStopReason: earlyStopReason,
			TotalElapsedMs: time.Since(start).Milliseconds(),
			SchemaURI: opts.SchemaURI,
		},
		Replicates: replicates,
		Summary: summary,
		UsageTotal: &usageTotal,
		CostTotalUSD: costTotal,
		Metadata: map[string]any{"tool": b.Name(), "version": b.Version()},
	}

	emit(em, "bundle_ready", map[string]any{
			"replicate_count": len(replicates),
			"valid_count": len(validOutputs),
			"confidence": summary.Confidence,
		})

	return bundle, nil
}

func (b *BundleTool) runOne(ctx context.Context, req Request, id string, seed int) replicateOutcome {
	start := time.Now()
	options := map[string]any{"replicate_id": id, "bundle_tool": b.Name(), "deterministic": true}

	data, usage, model, err := b.Runner.RunReplicate(ctx, req, seed, options)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return replicateOutcome{
			id: id,
			data: map[string]any{"error": err.Error()},
			quality: ReplicateQuality{Valid: false, Errors: []string{err.Error()}},
			elapsedMs: elapsed,
			seed: seed,
		}
	}

	quality := ReplicateQuality{Valid: true}
	if b.Validate != nil {
		quality = b.Validate(data)
	} else if data == nil || data == "" {
		quality = ReplicateQuality{Valid: false, Errors: []string{"empty content"}}
	}

	return replicateOutcome{id: id, data: data, quality: quality, usage: usage, elapsedMs: elapsed, seed: seed, model: model}
}

// computeSummary derives string-equality consensus, pairwise 0/1
// distance, and a confidence score from agreement across valid
// replicates. This deliberately keeps a placeholder distance metric
// rather than inventing semantic distance (see DESIGN.md).
func computeSummary(replicates []Replicate, validOutputs []any) BundleSummary {
	var confidence float64
	switch {
	case len(validOutputs) == 0:
		confidence = 0.0
	case len(validOutputs) == 1:
		confidence = 0.5
	default:
		allSame := true
		first := fmt.Sprintf("%v", validOutputs[0])
		for _, v := range validOutputs[1:] {
			if fmt.Sprintf("%v", v) != first {
				allSame = false
				break
			}
		}
		if allSame {
			confidence = 0.95
		} else {
			confidence = 0.7
		}
	}

	var disagreements []Disagreement
	if len(validOutputs) > 1 {
		seen := map[string]bool{}
		var unique []string
		for _, v := range validOutputs {
			s := fmt.Sprintf("%v", v)
			if !seen[s] {
				seen[s] = true
				unique = append(unique, s)
			}
		}
		sort.Strings(unique)
		if len(unique) > 1 {
			if len(unique) > 3 {
				unique = unique[:3]
			}
			var ids []string
			for _, r := range replicates {
				if r.Quality.Valid {
					ids = append(ids, r.ID)
				}
				if len(ids) >= 3 {
					break
				}
			}
			disagreements = append(disagreements, Disagreement{Field: "content", Values: unique, ReplicateIDs: ids})
		}
	}

	n := len(replicates)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if replicates[i].Quality.Valid && replicates[j].Quality.Valid &&
			fmt.Sprintf("%v", replicates[i].Data) != fmt.Sprintf("%v", replicates[j].Data) {
				dist[i][j] = 1.0
				dist[j][i] = 1.0
			}
		}
	}

	var consensus any
	if len(validOutputs) > 0 && len(disagreements) == 0 {
		consensus = validOutputs[0]
	}

	return BundleSummary{
		Consensus: consensus,
		Disagreements: disagreements,
		PairwiseDistance: dist,
		Distributions: map[string]any{},
		Confidence: confidence,
		Truncated: false,
	}
}

func aggregateUsage(replicates []Replicate) core.Usage {
	var total core.Usage
	for _, r := range replicates {
		if r.Usage == nil {
			continue
		}
		total.PromptTokens += r.Usage.PromptTokens
		total.CompletionTokens += r.Usage.CompletionTokens
		total.TotalTokens += r.Usage.TotalTokens
	}
	return total
}

// estimateReplicateCost mirrors simple_bundle.py's `_calculate_cost`
// placeholder ($0.001/1k tokens) for a bundle tool that has no
// per-model pricing of its own to consult; a tool wired to a specific
// model's registry.Pricing should compute its own cost instead and set
// Result.CostUSD directly.
func estimateReplicateCost(usage core.Usage) *float64 {
	if usage.TotalTokens <= 0 {
		return nil
	}
	cost := float64(usage.TotalTokens) * 0.001 / 1000
	return &cost
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func usagePtr(u core.Usage) *core.Usage {
	if u.TotalTokens == 0 && u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return nil
	}
	return &u
}

func emit(em *events.Manager, kind string, data map[string]any) {
	if em == nil {
		return
	}
	em.Emit(core.StreamEventKind(kind), data)
}

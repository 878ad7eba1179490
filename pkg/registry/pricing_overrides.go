package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// PricingOverride is one model's override entry.
type PricingOverride struct {
	InputCostPer1KTokens *float64 `json:"input_cost_per_1k_tokens,omitempty"`
	OutputCostPer1KTokens *float64 `json:"output_cost_per_1k_tokens,omitempty"`
	CachedInputCostPer1KTokens *float64 `json:"cached_input_cost_per_1k_tokens,omitempty"`
	CostPer1KTokens *float64 `json:"cost_per_1k_tokens,omitempty"`
}

// PricingOverrideLoader loads pricing overrides in precedence order:
// inline JSON env var, then a file path env var, then
// ~/.steer/pricing_overrides.json. It is gated by
// STEER_INTERNAL_PRICING_OVERRIDES_ENABLED and, when sourced from a file,
// watches it with fsnotify so a pricing update needs no process restart.
type PricingOverrideLoader struct {
	mu sync.RWMutex
	current map[string]PricingOverride
	filePath string
	watcher *fsnotify.Watcher
}

// NewPricingOverrideLoader loads overrides once according to the
// documented precedence. It returns a loader with an empty override set
// when the feature flag is unset.
func NewPricingOverrideLoader() (*PricingOverrideLoader, error) {
	l := &PricingOverrideLoader{current: map[string]PricingOverride{}}

	if os.Getenv("STEER_INTERNAL_PRICING_OVERRIDES_ENABLED") != "true" {
		return l, nil
	}

	if inline := os.Getenv("STEER_PRICING_OVERRIDES_JSON"); inline != "" {
		return l, l.loadJSON([]byte(inline))
	}

	if path := os.Getenv("STEER_PRICING_OVERRIDES_FILE"); path != "" {
		return l, l.loadFile(path)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(home, ".steer", "pricing_overrides.json")
		if _, statErr := os.Stat(path); statErr == nil {
			return l, l.loadFile(path)
		}
	}

	return l, nil
}

func (l *PricingOverrideLoader) loadJSON(data []byte) error {
	var parsed map[string]PricingOverride
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("pricing overrides: invalid JSON: %w", err)
	}
	l.mu.Lock()
	l.current = parsed
	l.mu.Unlock()
	return nil
}

func (l *PricingOverrideLoader) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pricing overrides: read %s: %w", path, err)
	}
	if err := l.loadJSON(data); err != nil {
		return err
	}
	l.filePath = path
	return l.watch()
}

func (l *PricingOverrideLoader) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("pricing overrides: watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(l.filePath)); err != nil {
		w.Close()
		return fmt.Errorf("pricing overrides: watch dir: %w", err)
	}
	l.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Name != l.filePath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if data, err := os.ReadFile(l.filePath); err == nil {
					if err := l.loadJSON(data); err != nil {
						slog.Warn("pricing overrides: reload failed", "error", err)
					} else {
						slog.Info("pricing overrides: reloaded", "path", l.filePath)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("pricing overrides: watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Apply merges a model's override on top of its registry pricing.
func (l *PricingOverrideLoader) Apply(modelID string, base Pricing) Pricing {
	l.mu.RLock()
	defer l.mu.RUnlock()

	override, ok := l.current[modelID]
	if !ok {
		return base
	}
	result := base
	if override.InputCostPer1KTokens != nil {
		result.InputPer1K = *override.InputCostPer1KTokens
	}
	if override.OutputCostPer1KTokens != nil {
		result.OutputPer1K = *override.OutputCostPer1KTokens
	}
	if override.CachedInputCostPer1KTokens != nil {
		result.CachedPer1K = *override.CachedInputCostPer1KTokens
	}
	if override.CostPer1KTokens != nil {
		result.InputPer1K = *override.CostPer1KTokens
		result.OutputPer1K = *override.CostPer1KTokens
	}
	return result
}

// Close stops the file watcher, if any.
func (l *PricingOverrideLoader) Close() error {
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

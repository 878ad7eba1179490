package orchestrator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// RuleOperator is one of the condition operators names:
// "equals|contains|regex|exists|gt|lt|custom on a dotted attribute path".
type RuleOperator string

const (
	OpEquals RuleOperator = "equals"
	OpContains RuleOperator = "contains"
	OpRegex RuleOperator = "regex"
	OpExists RuleOperator = "exists"
	OpGT RuleOperator = "gt"
	OpLT RuleOperator = "lt"
	OpCustom RuleOperator = "custom"
)

// RuleCondition matches one attribute of a Request's Options against a
// value. The
// dotted AttributePath walks nested map[string]any the way the Python
// source walks nested dicts.
type RuleCondition struct {
	AttributePath string
	Operator RuleOperator
	Value any
	Custom func(any) bool
}

// matches evaluates the condition against req's options tree.
func (c RuleCondition) matches(req Request) bool {
	value := lookupPath(req.Options, c.AttributePath)

	if c.Operator == OpCustom && c.Custom != nil {
		return c.Custom(value)
	}
	if c.Operator == OpExists {
		return value != nil
	}
	if value == nil {
		return false
	}

	switch c.Operator {
	case OpEquals:
		return fmt.Sprintf("%v", value) == fmt.Sprintf("%v", c.Value)
	case OpContains:
		return strings.Contains(fmt.Sprintf("%v", value), fmt.Sprintf("%v", c.Value))
	case OpRegex:
		pattern, _ := c.Value.(string)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(fmt.Sprintf("%v", value))
	case OpGT:
		return compareNumeric(value, c.Value) > 0
	case OpLT:
		return compareNumeric(value, c.Value) < 0
	default:
		return false
	}
}

func lookupPath(m map[string]any, path string) any {
	if m == nil {
		return nil
	}
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = asMap[p]
		if !ok {
			return nil
		}
	}
	return cur
}

func compareNumeric(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// RuleAction is what a matching rule does: select a tool, its options
// (optionally transformed from the request), and fallbacks.
type RuleAction struct {
	ToolName string
	ToolOptions map[string]any
	FallbackTools []string
	ExecutionStrategy ExecutionStrategy
	OptionTransformer func(req Request) map[string]any
}

func (a RuleAction) build(req Request) (string, map[string]any, []string, ExecutionStrategy) {
	options := a.ToolOptions
	if a.OptionTransformer != nil {
		options = a.OptionTransformer(req)
	}
	strategy := a.ExecutionStrategy
	if strategy == "" {
		strategy = StrategySingle
	}
	return a.ToolName, options, a.FallbackTools, strategy
}

// PlanningRule is one prioritized rule: if every condition matches, its
// action is applied ( "each rule has conditions... and an
// action").
type PlanningRule struct {
	Name string
	Priority int
	Conditions []RuleCondition
	Action *RuleAction
	Description string
}

func (r PlanningRule) matches(req Request) bool {
	for _, c := range r.Conditions {
		if !c.matches(req) {
			return false
		}
	}
	return true
}

// RuleBasedPlanner evaluates prioritized rules in priority order,
// falling back to a conservative default when none match (
// "RuleBasedPlanner evaluates prioritized rules... Default rule: pick
// the first viable tool with conservative defaults (k=3, epsilon=0.2,
// lowering k to 2 when budget is tight)").
type RuleBasedPlanner struct {
	rules []PlanningRule
}

// NewRuleBasedPlanner builds a planner from rules, sorted by descending
// priority.
func NewRuleBasedPlanner(rules ...PlanningRule) *RuleBasedPlanner {
	p := &RuleBasedPlanner{}
	for _, r := range rules {
		p.AddRule(r)
	}
	return p
}

// AddRule appends rule and re-sorts by priority (descending).
func (p *RuleBasedPlanner) AddRule(rule PlanningRule) {
	p.rules = append(p.rules, rule)
	sort.SliceStable(p.rules, func(i, j int) bool { return p.rules[i].Priority > p.rules[j].Priority })
}

// Plan implements Planner. Circuit-broken tools are skipped:
// first the rule's primary tool, then its fallbacks in order; a rule
// whose primary and every fallback are unavailable is skipped entirely
// in favor of the next rule.
func (p *RuleBasedPlanner) Plan(req Request, availableTools map[string]ToolMetadata, ctx PlanContext) (PlanDecision, error) {
	for _, rule := range p.rules {
		if rule.Action == nil || !rule.matches(req) {
			continue
		}

		toolName, toolOptions, fallbacks, strategy := rule.Action.build(req)

		if !validateToolAvailability(toolName, availableTools, ctx) {
			resolved := ""
			for _, fb := range fallbacks {
				if validateToolAvailability(fb, availableTools, ctx) {
					resolved = fb
					break
				}
			}
			if resolved == "" {
				continue
			}
			toolName = resolved
		}

		md := availableTools[toolName]
		finalOptions := mergeOptions(md.DefaultOptions, toolOptions)

		return PlanDecision{
			SelectedTool: toolName,
			ToolOptions: finalOptions,
			FallbackTools: fallbacks,
			ExecutionStrategy: strategy,
			EstimatedCost: estimateCost(finalOptions, md),
			EstimatedDurationMs: estimateDuration(finalOptions, md),
			Confidence: 1.0,
			Reasoning: "matched rule: " + rule.Name,
			Metadata: map[string]any{"matched_rule": rule.Name},
		}, nil
	}

	return p.defaultPlan(availableTools, ctx)
}

// defaultPlan implements the "Default rule": pick the first viable
// (non-circuit-broken) tool, k=3/epsilon=0.2, lowering k to 2 under a
// tight budget.
func (p *RuleBasedPlanner) defaultPlan(availableTools map[string]ToolMetadata, ctx PlanContext) (PlanDecision, error) {
	if len(availableTools) == 0 {
		return PlanDecision{}, &Error{Code: "NO_TOOLS", Message: "no tools available for planning"}
	}

	names := make([]string, 0, len(availableTools))
	for name := range availableTools {
		names = append(names, name)
	}
	sort.Strings(names)

	viable := make([]string, 0, len(names))
	for _, name := range names {
		if ctx.CircuitBreakerStates[name] != "open" {
			viable = append(viable, name)
		}
	}
	if len(viable) == 0 {
		viable = names
	}

	selected := viable[0]
	md := availableTools[selected]

	k := 3
	if ctx.Budget != nil {
		if ctx.Budget.hasTokens && ctx.Budget.Tokens < 1000 {
			k = 2
		}
		if ctx.Budget.hasCostUSD && ctx.Budget.CostUSD < 0.05 {
			k = 2
		}
	}

	finalOptions := mergeOptions(md.DefaultOptions, map[string]any{
			"k": k,
			"epsilon": 0.2,
			"max_parallel": 10,
		})

	fallbackTools := []string{}
	if len(viable) > 1 {
		end := 3
		if end > len(viable) {
			end = len(viable)
		}
		fallbackTools = append(fallbackTools, viable[1:end]...)
	}

	return PlanDecision{
		SelectedTool: selected,
		ToolOptions: finalOptions,
		FallbackTools: fallbackTools,
		ExecutionStrategy: StrategySingle,
		EstimatedCost: estimateCost(finalOptions, md),
		EstimatedDurationMs: estimateDuration(finalOptions, md),
		Confidence: 0.5,
		Reasoning: "no matching rules, using default selection",
		Metadata: map[string]any{"selection_method": "default"},
	}, nil
}

func mergeOptions(defaults, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

package registry

import "steer-sdk/core/pkg/core"

// CalculateCost implements the cost formula, charging cached tokens at
// the cached rate and non-cached input at the input rate.
//
//	cost = (promptTokens-cachedTokens)/1000*inRate + cachedTokens/1000*cachedRate + completionTokens/1000*outRate
//
// Never negative.
func CalculateCost(usage core.Usage, pricing Pricing) core.CostBreakdown {
	cached := usage.CacheInfo.CachedTokens
	if cached > usage.PromptTokens {
		cached = usage.PromptTokens
	}
	uncached := usage.PromptTokens - cached

	promptCost := tokenCost(uncached, pricing.InputPer1K)
	if cached > 0 && pricing.CachedPer1K > 0 {
		promptCost += tokenCost(cached, pricing.CachedPer1K)
	} else if cached > 0 {
		// No cached rate configured: cached tokens fall back to the
		// input rate, which is equivalent to no discount.
		promptCost += tokenCost(cached, pricing.InputPer1K)
	}

	completionCost := tokenCost(usage.CompletionTokens, pricing.OutputPer1K)

	total := promptCost + completionCost
	if total < 0 {
		total = 0
	}

	return core.CostBreakdown{
		PromptCost: promptCost,
		CompletionCost: completionCost,
		TotalCost: total,
		Currency: "USD",
	}
}

func tokenCost(tokens int, ratePer1K float64) float64 {
	if tokens <= 0 {
		return 0
	}
	return (float64(tokens) / 1000.0) * ratePer1K
}

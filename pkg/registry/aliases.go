package registry

// aliases folds versioned/dated model ids to their base entry in the
// registry table.'s open question on alias strategy is resolved here
// in favor of an explicit table over prefix matching: the source mixed
// both, which makes collisions (e.g. "gpt-4.1" vs "gpt-4.1-mini")
// ambiguous under pure prefix folding. An explicit table has one
// collision rule: last write wins at table-construction time, and
// resolution is an O(1) exact lookup with no surprise partial matches.
var aliases = map[string]string{
	"gpt-4.1-mini-2025-04-14": "gpt-4.1-mini",
	"gpt-4.1-2025-04-14": "gpt-4.1",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt-4o-2024-08-06": "gpt-4o",
	"gpt-4o-2024-05-13": "gpt-4o",
	"o4-mini-2025-04-16": "o4-mini",
	"o3-2025-04-16": "o3",
	"claude-3-5-sonnet-20241022": "claude-3-5-sonnet",
	"claude-3-5-haiku-20241022": "claude-3-5-haiku",
	"claude-3-opus-20240229": "claude-3-opus",
}

// resolveAlias folds a versioned id to its base id, returning the input
// unchanged when no alias applies.
func resolveAlias(id string) string {
	if base, ok := aliases[id]; ok {
		return base
	}
	return id
}

// RegisterAlias adds or overrides an alias at runtime. Nothing in this
// module calls it; the pricing-override loader does not register aliases.
func RegisterAlias(versioned, base string) {
	aliases[versioned] = base
}

package runtime

import "github.com/arborworks/arbor/pkg/domain"

// publishFunc stores one declared output field in the namespace a node's
// category prescribes. The closed set below replaces a per-write category
// switch: the policy is picked once, at node construction.
type publishFunc func(ec *domain.ExecutionContext, key string, value any)

func toCache(ec *domain.ExecutionContext, key string, value any) {
	ec.SetCache(key, value)
}

func toOutput(ec *domain.ExecutionContext, key string, value any) {
	ec.SetOutput(key, value)
}

// policyFor selects the publish policy for a category. Exit nodes publish to
// the caller-visible output namespace; everything else hands off through the
// cache. After nodes publishing to the cache is deliberate: their products are
// bookkeeping for later runs' collaborators, never caller-visible.
func policyFor(c domain.Category) publishFunc {
	if c == domain.CategoryExit {
		return toOutput
	}
	return toCache
}

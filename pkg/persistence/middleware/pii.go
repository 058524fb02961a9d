package middleware

import (
	"context"
	"regexp"

	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/ports"
)

type piiMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching
// the patterns before a record reaches the store. Params, outputs and the
// per-node inputs and outputs are all scrubbed; the in-memory record the
// engine holds is left untouched.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RunStore) ports.RunStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, record *domain.RunRecord) error {
	// Deep clone to avoid side effects on the record used by the engine.
	cloned := *record
	cloned.Params = deepCopyMap(record.Params)
	cloned.Output = deepCopyMap(record.Output)
	cloned.Results = make([]domain.ExecutionResult, len(record.Results))
	for i, res := range record.Results {
		res.Input = deepCopyMap(res.Input)
		res.Output = deepCopyMap(res.Output)
		cloned.Results[i] = res
	}

	maskMap(cloned.Params, m.patterns)
	maskMap(cloned.Output, m.patterns)
	for i := range cloned.Results {
		maskMap(cloned.Results[i].Input, m.patterns)
		maskMap(cloned.Results[i].Output, m.patterns)
	}

	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, runID)
}

func (m *piiMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		// Handle nested maps
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		// Check key against patterns
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}

package operators

import "github.com/Azure/cosmos-query-engine-go/pkg/cqerr"

// Hybrid wraps the rest of the tree for a hybrid-search plan (spec.md
// §4.3 step 7, §9): reciprocal-rank fusion across the component full-text
// and vector scores the gateway attaches to each contribution. The fusion
// itself is out of scope for this engine's first cut; NewHybrid rejects
// with UnsupportedQueryPlan unless the caller has enabled the feature,
// exactly as query_supported_features() advertises via spec.md §6.
type Hybrid struct {
	inner Operator
}

// NewHybrid wraps inner for a hybrid-search plan. enabled must come from
// the engine's FeatureSet; Validate already rejected the plan earlier if
// the feature is off, so reaching here with enabled false is a caller
// bug, not a plan error.
func NewHybrid(inner Operator, enabled bool) (*Hybrid, error) {
	if !enabled {
		return nil, cqerr.New(cqerr.UnsupportedQueryPlan, "operators: hybrid search is not supported")
	}
	return &Hybrid{inner: inner}, nil
}

func (h *Hybrid) Poll(budget int) PollResult { return h.inner.Poll(budget) }

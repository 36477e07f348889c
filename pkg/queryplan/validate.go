package queryplan

import (
	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
)

// MaxOrderByKeys is the platform limit spec.md §4.3 alludes to: "order-by
// with more than N sort keys above a platform limit" is rejected before
// any data request is emitted.
const MaxOrderByKeys = 16

// FeatureSet gates operators the engine can refuse to build, per spec.md
// §4.3's rejection policy and §6's query_supported_features() export.
type FeatureSet struct {
	Hybrid bool
}

// Validate rejects plans the engine cannot execute, before any operator
// is built or data request emitted (spec.md §4.3, §4.9).
func (p *Plan) Validate(features FeatureSet) error {
	if p.Version < 1 {
		return cqerr.New(cqerr.UnsupportedQueryPlan, "queryplan: unsupported partitionedQueryExecutionInfoVersion %d", p.Version)
	}
	if len(p.QueryInfo.OrderBy) > MaxOrderByKeys {
		return cqerr.New(cqerr.UnsupportedQueryPlan, "queryplan: %d orderBy keys exceeds platform limit %d", len(p.QueryInfo.OrderBy), MaxOrderByKeys)
	}
	if p.HasHybrid() && !features.Hybrid {
		return cqerr.New(cqerr.UnsupportedQueryPlan, "queryplan: hybrid query requires the hybrid feature flag")
	}
	if len(p.QueryInfo.GroupByAliases) > 0 && len(p.QueryInfo.GroupByAliases) != len(p.QueryInfo.GroupByExpressions) {
		return cqerr.New(cqerr.InvalidGatewayResponse, "queryplan: groupByAliases length %d != groupByExpressions length %d", len(p.QueryInfo.GroupByAliases), len(p.QueryInfo.GroupByExpressions))
	}
	return nil
}

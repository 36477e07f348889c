package queryplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsVersionZero(t *testing.T) {
	p := &Plan{Version: 0}
	err := p.Validate(FeatureSet{})
	require.Error(t, err)
}

func TestValidateRejectsTooManyOrderByKeys(t *testing.T) {
	p := &Plan{Version: 1}
	for i := 0; i < MaxOrderByKeys+1; i++ {
		p.QueryInfo.OrderBy = append(p.QueryInfo.OrderBy, Ascending)
	}
	require.Error(t, p.Validate(FeatureSet{}))
}

func TestValidateRejectsHybridWithoutFeatureFlag(t *testing.T) {
	p := &Plan{Version: 1, QueryInfo: QueryInfo{Hybrid: &HybridInfo{}}}
	require.Error(t, p.Validate(FeatureSet{Hybrid: false}))
	require.NoError(t, p.Validate(FeatureSet{Hybrid: true}))
}

func TestValidateRejectsMismatchedGroupByAliases(t *testing.T) {
	p := &Plan{Version: 1}
	p.QueryInfo.GroupByExpressions = rawList("a", "b")
	p.QueryInfo.GroupByAliases = []string{"onlyOne"}
	require.Error(t, p.Validate(FeatureSet{}))
}

func TestValidateAcceptsWellFormedPlan(t *testing.T) {
	p := &Plan{Version: 1}
	p.QueryInfo.OrderBy = []SortOrder{Ascending, Descending}
	assert.NoError(t, p.Validate(FeatureSet{}))
}

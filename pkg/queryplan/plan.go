// Package queryplan is the typed representation of the gateway's
// PartitionedQueryExecutionInfo (spec.md §3), generalized from the
// teacher's HTTP-query-string-derived sqltypes.ListOptions/Sort/Filter/
// Pagination (pkg/stores/sqlpartition/listprocessor) to a JSON-derived
// plan model.
package queryplan

import (
	"encoding/json"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
)

// SortOrder is one direction of an orderBy clause.
type SortOrder string

const (
	Ascending  SortOrder = "Ascending"
	Descending SortOrder = "Descending"
)

// IsDescending reports whether o is the Descending direction.
func (o SortOrder) IsDescending() bool { return o == Descending }

// Aggregate is one of the aggregate functions spec.md §3 lists.
type Aggregate string

const (
	Average  Aggregate = "Average"
	Count    Aggregate = "Count"
	Max      Aggregate = "Max"
	Min      Aggregate = "Min"
	Sum      Aggregate = "Sum"
	MakeSet  Aggregate = "MakeSet"
	MakeList Aggregate = "MakeList"
)

// DistinctType selects how the Distinct operator behaves.
type DistinctType string

const (
	DistinctNone      DistinctType = "None"
	DistinctOrdered   DistinctType = "Ordered"
	DistinctUnordered DistinctType = "Unordered"
)

// DCountInfo carries the alias for a distinct-count projection.
type DCountInfo struct {
	DCountAlias string `json:"dCountAlias"`
}

// HybridInfo is opaque hybrid-search plan data. Its mere presence signals
// that the Hybrid operator must be composed (spec.md §4.3); the engine
// does not interpret its fields (it is gated behind a feature flag and
// rejected with UnsupportedQueryPlan when the flag is off, per §4.3/§7).
type HybridInfo struct {
	Raw json.RawMessage `json:"-"`
}

func (h *HybridInfo) UnmarshalJSON(data []byte) error {
	h.Raw = append(h.Raw[:0], data...)
	return nil
}

func (h HybridInfo) MarshalJSON() ([]byte, error) {
	if len(h.Raw) == 0 {
		return []byte("null"), nil
	}
	return h.Raw, nil
}

// QueryInfo mirrors spec.md §3's queryInfo object. Unknown JSON fields are
// ignored by encoding/json's default behavior, which is exactly the
// forward-compatibility rule spec.md §9 requires.
type QueryInfo struct {
	RewrittenQuery     string            `json:"rewrittenQuery"`
	OrderBy            []SortOrder       `json:"orderBy"`
	OrderByExpressions []json.RawMessage `json:"orderByExpressions"`
	GroupByExpressions []json.RawMessage `json:"groupByExpressions"`
	GroupByAliases     []string          `json:"groupByAliases"`
	Aggregates         []Aggregate       `json:"aggregates"`
	DistinctType       DistinctType      `json:"distinctType"`
	Offset             *int64            `json:"offset"`
	Limit              *int64            `json:"limit"`
	Top                *int64            `json:"top"`
	HasSelectValue     bool              `json:"hasSelectValue"`
	DCountInfo         *DCountInfo       `json:"dCountInfo"`
	Hybrid             *HybridInfo       `json:"hybridSearchQueryInfo"`
}

// LogicalRange is one entry of the plan's queryRanges: an interval over
// the hex EPK space.
type LogicalRange struct {
	Min            string `json:"min"`
	Max            string `json:"max"`
	IsMinInclusive bool   `json:"isMinInclusive"`
	IsMaxInclusive bool   `json:"isMaxInclusive"`
}

// Plan is the engine's typed view of PartitionedQueryExecutionInfo.
type Plan struct {
	Version     int            `json:"partitionedQueryExecutionInfoVersion"`
	QueryInfo   QueryInfo      `json:"queryInfo"`
	QueryRanges []LogicalRange `json:"queryRanges"`
}

// Parse decodes a gateway plan payload. It does not validate feature
// support; call Validate for that (spec.md §4.9 keeps the two concerns
// separate so create() can report DeserializationError distinctly from
// UnsupportedQueryPlan).
func Parse(raw []byte) (*Plan, error) {
	if len(raw) == 0 {
		return nil, cqerr.New(cqerr.ArgumentNull, "queryplan: empty plan payload")
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, cqerr.Wrap(cqerr.DeserializationError, err, "queryplan: parse")
	}
	return &p, nil
}

// HasOrderBy reports whether the plan requires the OrderBy operator.
func (p *Plan) HasOrderBy() bool { return len(p.QueryInfo.OrderBy) > 0 }

// HasGroupByOrAggregate reports whether the plan requires the
// GroupBy/Aggregate operator (spec.md §4.3 step 3: "groupByExpressions is
// non-empty or aggregates is non-empty").
func (p *Plan) HasGroupByOrAggregate() bool {
	return len(p.QueryInfo.GroupByExpressions) > 0 || len(p.QueryInfo.Aggregates) > 0
}

// HasDistinct reports whether the plan requires the Distinct operator.
func (p *Plan) HasDistinct() bool {
	return p.QueryInfo.DistinctType != "" && p.QueryInfo.DistinctType != DistinctNone
}

// HasOffsetLimit reports whether the plan requires the OffsetLimit operator.
func (p *Plan) HasOffsetLimit() bool {
	return p.QueryInfo.Offset != nil || p.QueryInfo.Limit != nil
}

// HasTop reports whether the plan requires the Top operator.
func (p *Plan) HasTop() bool { return p.QueryInfo.Top != nil }

// HasHybrid reports whether the plan carries hybrid-search info.
func (p *Plan) HasHybrid() bool { return p.QueryInfo.Hybrid != nil }

// GroupByIsOrderedPrefix reports whether orderBy is a prefix of
// groupByExpressions, the condition spec.md §4.6/§9 uses to pick the
// streaming (vs. buffered) group-by discipline. Since orderByExpressions
// and groupByExpressions are opaque JSON, we compare them by exact
// marshaled text, which is sufficient because the gateway always emits
// the same literal expression text for the same logical column.
func (p *Plan) GroupByIsOrderedPrefix() bool {
	ob := p.QueryInfo.OrderByExpressions
	gb := p.QueryInfo.GroupByExpressions
	if len(ob) == 0 || len(ob) > len(gb) {
		return len(ob) == 0
	}
	for i := range ob {
		if string(ob[i]) != string(gb[i]) {
			return false
		}
	}
	return true
}

// RewrittenQueryOr returns QueryInfo.RewrittenQuery if non-empty, else
// falls back to the original query text, per spec.md §3/§6.
func (p *Plan) RewrittenQueryOr(original string) string {
	if p.QueryInfo.RewrittenQuery != "" {
		return p.QueryInfo.RewrittenQuery
	}
	return original
}

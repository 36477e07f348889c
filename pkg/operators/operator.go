// Package operators implements the pull-driven operator tree spec.md §4.3
// composes over a buffer.Set: Parallel Scan at the leaves, then Streaming
// OrderBy, GroupBy/Aggregate, Distinct, OffsetLimit, Top and Hybrid wrapping
// it in the order the gateway's queryInfo requires. Every operator is a
// synchronous, single-threaded state machine — callers drive it with Poll,
// never a goroutine of its own, per spec.md §5's "no internal concurrency".
package operators

import (
	"github.com/Azure/cosmos-query-engine-go/pkg/buffer"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"
)

// Item is one document as it flows through the operator tree: its
// payload plus whatever order-by/group-by projection the gateway
// attached (spec.md §3's per-partition document envelope). Operators
// that only care about the payload (Distinct(Unordered), OffsetLimit,
// Top) ignore the projection fields; OrderBy and GroupBy read them.
// Reusing buffer.Entry here means nothing is lost converting a buffered
// document into the value operators pass to each other.
type Item = buffer.Entry

// PollResult is what one Poll call produces: zero or more items in emission
// order, zero or more range ids that need a new DataRequest issued against
// their buffer's current Continuation(), and whether the operator has
// permanently finished (will never emit again regardless of future data).
type PollResult struct {
	Items        []Item
	WantRequests []string
	Completed    bool
}

// Operator is the pull interface every stage of the tree implements.
// Poll(budget) must emit at most budget items and must not block: if it
// cannot make progress without more data it returns WantRequests and yields,
// exactly as spec.md §4.4's run() loop expects.
type Operator interface {
	Poll(budget int) PollResult
}

// wantIfNotOutstanding appends rangeID to want only when its buffer has no
// request already in flight, so Build()'s operators never over-request.
func wantIfNotOutstanding(b *buffer.Buffer, rangeID string, want []string) []string {
	if !b.HasOutstanding() {
		return append(want, rangeID)
	}
	return want
}

// Build composes the operator tree for plan over buffers, per spec.md
// §4.3's fixed composition order: Parallel Scan, then OrderBy, then
// GroupBy/Aggregate, then Distinct, then OffsetLimit, then Top, then
// Hybrid. Validate must have already accepted plan against features.
func Build(plan *queryplan.Plan, buffers *buffer.Set, features queryplan.FeatureSet) (Operator, error) {
	var op Operator = NewParallel(buffers)

	if plan.HasOrderBy() {
		descending := make([]bool, len(plan.QueryInfo.OrderBy))
		for i, o := range plan.QueryInfo.OrderBy {
			descending[i] = o.IsDescending()
		}
		op = NewOrderBy(buffers, descending)
	}

	if plan.HasGroupByOrAggregate() {
		scalar := len(plan.QueryInfo.GroupByExpressions) == 0
		op = NewGroupBy(op, plan.QueryInfo.Aggregates, plan.QueryInfo.GroupByAliases, plan.QueryInfo.HasSelectValue, scalar, plan.HasOrderBy() && plan.GroupByIsOrderedPrefix())
	}

	if plan.HasDistinct() {
		op = NewDistinct(op, plan.QueryInfo.DistinctType == queryplan.DistinctOrdered)
	}

	if plan.HasOffsetLimit() {
		var offset, limit int64
		if plan.QueryInfo.Offset != nil {
			offset = *plan.QueryInfo.Offset
		}
		if plan.QueryInfo.Limit != nil {
			limit = *plan.QueryInfo.Limit
			op = NewOffsetLimit(op, offset, &limit)
		} else {
			op = NewOffsetLimit(op, offset, nil)
		}
	}

	if plan.HasTop() {
		op = NewTop(op, *plan.QueryInfo.Top)
	}

	if plan.HasHybrid() {
		return NewHybrid(op, features.Hybrid)
	}

	return op, nil
}

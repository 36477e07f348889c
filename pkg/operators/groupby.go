package operators

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/jsonvalue"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"
)

// GroupBy is spec.md §4.3 step 3's GROUP BY / aggregate stage. It groups
// items by their groupByItems tuple (spec.md §4.6), the same
// per-document projection the gateway attaches alongside orderByItems,
// and maintains one AggregateAccumulator per group per declared
// aggregate. A group's payload carries whatever partial aggregate state
// the gateway has already rolled up for that group within one
// partition's page; no partition knows the cross-partition total, so
// this operator folds partials rather than re-deriving them from raw
// rows.
//
// When the query has no aggregate functions (a bare GROUP BY used only
// to de-duplicate by key) each item's payload is instead the group's
// representative document, and the first one seen wins.
//
// orderedPrefix selects between the two disciplines spec.md §4.6
// distinguishes: when the orderBy keys are a prefix of the group-by
// keys, groups arrive from upstream already fully formed one after
// another and can be flushed as soon as a new key appears (streaming,
// bounded memory); otherwise every group must be held until upstream
// reports Completed, since a later document could still belong to an
// already-seen group (buffered, unbounded memory — same tradeoff the
// teacher's listprocessor.SortList accepts for a full in-memory sort).
type GroupBy struct {
	upstream       Operator
	aggregates     []queryplan.Aggregate
	groupByAliases []string
	hasSelectValue bool
	scalar         bool
	orderedPrefix  bool

	order []string
	acc   map[string]*groupAccumulator

	flushed    []Item
	completed  bool
	flushedAll bool
}

type groupAccumulator struct {
	key      []jsonvalue.Value
	repr     json.RawMessage
	haveRepr bool
	aggs     []aggState
}

type aggState struct {
	kind     queryplan.Aggregate
	count    int64
	sum      float64
	min, max jsonvalue.Value
	haveMM   bool
	set      []jsonvalue.Value
	seenSet  map[[32]byte]bool
}

// NewGroupBy creates a GroupBy/Aggregate operator. scalar is true when the
// query has no GROUP BY clause (one implicit group over the whole result).
// groupByAliases names the projected field for each groupByExpressions
// component, in order (spec.md §4.6's "parallel lists", validated in
// pkg/queryplan); hasSelectValue unwraps the single projected field
// instead of emitting a `{alias: value}` object.
func NewGroupBy(upstream Operator, aggregates []queryplan.Aggregate, groupByAliases []string, hasSelectValue, scalar, orderedPrefix bool) *GroupBy {
	return &GroupBy{
		upstream:       upstream,
		aggregates:     aggregates,
		groupByAliases: groupByAliases,
		hasSelectValue: hasSelectValue,
		scalar:         scalar,
		orderedPrefix:  orderedPrefix,
		acc:            make(map[string]*groupAccumulator),
	}
}

func (g *GroupBy) Poll(budget int) PollResult {
	for !g.completed && len(g.flushed) < budget {
		r := g.upstream.Poll(budget)
		for _, it := range r.Items {
			if err := g.ingest(it); err != nil {
				continue
			}
		}
		if len(r.WantRequests) > 0 {
			break
		}
		if r.Completed {
			g.completed = true
			break
		}
		if len(r.Items) == 0 {
			break
		}
	}

	if g.completed && !g.flushedAll {
		g.flushAll()
		g.flushedAll = true
	}

	if len(g.flushed) == 0 {
		return PollResult{}
	}
	n := budget
	if n > len(g.flushed) {
		n = len(g.flushed)
	}
	out := g.flushed[:n]
	g.flushed = g.flushed[n:]
	return PollResult{Items: out, Completed: g.completed && len(g.flushed) == 0}
}

// ingest folds one buffered document into its group's accumulator,
// keyed by its groupByItems tuple (spec.md §4.6's "InvalidGatewayResponse
// if a document lacks required groupByItems/orderByItems").
func (g *GroupBy) ingest(entry Item) error {
	if entry.GroupByItems == nil && !g.scalar {
		return cqerr.New(cqerr.InvalidGatewayResponse, "groupby: document missing groupByItems")
	}
	digest := groupDigest(entry.GroupByItems)

	a, ok := g.acc[digest]
	if !ok {
		if g.orderedPrefix && len(g.order) > 0 {
			// Upstream delivers groups in key order: the previously open
			// group can never receive another contribution, so flush it
			// now instead of holding it until Completed.
			prevDigest := g.order[len(g.order)-1]
			if prev, stillOpen := g.acc[prevDigest]; stillOpen {
				g.flushed = append(g.flushed, g.renderGroup(prev))
				delete(g.acc, prevDigest)
			}
		}
		a = &groupAccumulator{key: entry.GroupByItems, aggs: make([]aggState, len(g.aggregates))}
		for i, kind := range g.aggregates {
			a.aggs[i] = aggState{kind: kind}
			if kind == queryplan.MakeSet {
				a.aggs[i].seenSet = make(map[[32]byte]bool)
			}
		}
		g.acc[digest] = a
		g.order = append(g.order, digest)
	}

	if len(g.aggregates) == 0 {
		if !a.haveRepr {
			a.repr = entry.Payload
			a.haveRepr = true
		}
		return nil
	}

	var partials []json.RawMessage
	if err := json.Unmarshal(entry.Payload, &partials); err != nil || len(partials) != len(g.aggregates) {
		return cqerr.New(cqerr.InvalidGatewayResponse, "groupby: aggregate partial count mismatch")
	}
	for i := range a.aggs {
		if err := foldPartial(&a.aggs[i], partials[i]); err != nil {
			return err
		}
	}
	return nil
}

func foldPartial(st *aggState, raw json.RawMessage) error {
	var partial struct {
		Item  *json.RawMessage `json:"item"`
		Count *int64           `json:"count"`
		Sum   *float64         `json:"sum"`
	}
	if err := json.Unmarshal(raw, &partial); err != nil {
		return cqerr.Wrap(cqerr.InvalidGatewayResponse, err, "groupby: partial %s", st.kind)
	}
	switch st.kind {
	case queryplan.Count:
		if partial.Count != nil {
			st.count += *partial.Count
		}
	case queryplan.Sum:
		if partial.Sum != nil {
			st.sum += *partial.Sum
		}
	case queryplan.Average:
		if partial.Sum != nil {
			st.sum += *partial.Sum
		}
		if partial.Count != nil {
			st.count += *partial.Count
		}
	case queryplan.Min, queryplan.Max:
		if partial.Item == nil {
			return nil
		}
		v, err := jsonvalue.Parse(*partial.Item)
		if err != nil {
			return err
		}
		if !st.haveMM {
			st.min, st.max = v, v
			st.haveMM = true
			return nil
		}
		if jsonvalue.Compare(v, st.min) < 0 {
			st.min = v
		}
		if jsonvalue.Compare(v, st.max) > 0 {
			st.max = v
		}
	case queryplan.MakeList:
		if partial.Item == nil {
			return nil
		}
		v, err := jsonvalue.Parse(*partial.Item)
		if err != nil {
			return err
		}
		st.set = append(st.set, v)
	case queryplan.MakeSet:
		if partial.Item == nil {
			return nil
		}
		v, err := jsonvalue.Parse(*partial.Item)
		if err != nil {
			return err
		}
		d := jsonvalue.CanonicalDigest(v)
		if !st.seenSet[d] {
			st.seenSet[d] = true
			st.set = append(st.set, v)
		}
	}
	return nil
}

func (g *GroupBy) flushAll() {
	for _, digest := range g.order {
		a, ok := g.acc[digest]
		if !ok {
			continue // already flushed early by the streaming discipline
		}
		g.flushed = append(g.flushed, g.renderGroup(a))
	}
	g.acc = nil
}

// groupField is one named entry of a rendered GroupBy/Aggregate row, kept
// in declared order since the final projection is an ordered composition
// (groupByAliases, then aggregates) rather than an arbitrary JSON object.
type groupField struct {
	alias string
	value json.RawMessage
}

// renderGroup produces the final emitted Item for a completed group,
// following spec.md §4.6's projection: `{alias: value, ...}` over
// groupByAliases (one entry per groupByExpressions component, read off
// a.key positionally) followed by the aggregate results in declared
// order. groupByAliases only names the grouping tuple, not the
// aggregates, so each aggregate field is keyed by its 1-based ordinal
// position instead ("$1", "$2", ...). hasSelectValue unwraps the single
// projected field instead of emitting an object. A bare GROUP BY with no
// aggregates skips projection entirely and passes the group's
// representative document through unchanged — the projection shape is
// the gateway's own SELECT rewrite in that case, not this operator's.
//
// The projected row itself has no orderByItems/groupByItems of its own —
// any Distinct/OffsetLimit/Top stage above GroupBy acts on the rendered
// payload alone.
func (g *GroupBy) renderGroup(a *groupAccumulator) Item {
	if len(a.aggs) == 0 {
		return Item{Payload: a.repr}
	}

	fields := make([]groupField, 0, len(g.groupByAliases)+len(a.aggs))
	for i, alias := range g.groupByAliases {
		kv := json.RawMessage("null")
		if i < len(a.key) {
			if encoded, err := json.Marshal(a.key[i]); err == nil {
				kv = encoded
			}
		}
		fields = append(fields, groupField{alias: alias, value: kv})
	}
	for i, st := range a.aggs {
		fields = append(fields, groupField{alias: fmt.Sprintf("$%d", i+1), value: renderAgg(st)})
	}

	if g.hasSelectValue {
		if len(fields) == 0 {
			return Item{Payload: json.RawMessage("null")}
		}
		return Item{Payload: fields[0].value}
	}
	return Item{Payload: renderRow(fields)}
}

// renderRow marshals fields as a JSON object preserving declaration
// order, since encoding/json's map marshaling would otherwise sort keys
// alphabetically and scramble "groupByAliases then aggregates" ordering.
func renderRow(fields []groupField) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.alias)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return append(json.RawMessage(nil), buf.Bytes()...)
}

func renderAgg(st aggState) json.RawMessage {
	var v any
	switch st.kind {
	case queryplan.Count:
		v = st.count
	case queryplan.Sum:
		v = st.sum
	case queryplan.Average:
		if st.count == 0 {
			v = nil
		} else {
			v = st.sum / float64(st.count)
		}
	case queryplan.Min:
		if st.haveMM {
			v = st.min
		}
	case queryplan.Max:
		if st.haveMM {
			v = st.max
		}
	case queryplan.MakeList, queryplan.MakeSet:
		v = st.set
	}
	out, _ := json.Marshal(v)
	return out
}

func groupDigest(key []jsonvalue.Value) string {
	d := jsonvalue.CanonicalDigest(jsonvalue.Array(key))
	return string(d[:])
}

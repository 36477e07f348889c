// Package pipeline implements the caller-facing state machine spec.md
// §4.9 describes: create/query/run/provide_data/free over a composed
// operator tree. It is the pull-driven analogue of the teacher's
// pkg/server.Run(ctx, config) lifecycle — instead of an HTTP server
// owning its own event loop, a Pipeline hands control back to its
// caller after every turn and is driven by repeated run()/provide_data()
// calls rather than blocking I/O.
package pipeline

import (
	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Azure/cosmos-query-engine-go/pkg/buffer"
	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/operators"
	pkr "github.com/Azure/cosmos-query-engine-go/pkg/partitionkeyrange"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"
	"github.com/Azure/cosmos-query-engine-go/pkg/rangeselector"
	"github.com/Azure/cosmos-query-engine-go/pkg/tracing"
)

// Config carries the tunables a Pipeline needs beyond the plan and
// ranges themselves: the per-turn item budget run() enforces, and which
// optional operator features are enabled (spec.md §9's
// query_supported_features()).
type Config struct {
	// ItemBudget bounds how many items a single run() call emits. Zero
	// means "use DefaultItemBudget".
	ItemBudget int
	Features   queryplan.FeatureSet
}

// DefaultItemBudget is the run() emission budget used when Config leaves
// ItemBudget unset, chosen to keep a single turn's borrowed-memory
// surface small without forcing pathologically small pages.
const DefaultItemBudget = 1000

func (c Config) itemBudget() int {
	if c.ItemBudget > 0 {
		return c.ItemBudget
	}
	return DefaultItemBudget
}

// DataRequest is one engine-to-caller fetch instruction (spec.md §3).
// Id increases monotonically across a pipeline's lifetime so the caller
// (and provide_data's continuation-monotonicity check) can correlate a
// QueryResponse back to the request that produced it.
type DataRequest struct {
	ID                  uint64
	PartitionKeyRangeID string
	Continuation        string
	Query               string
	IncludeParameters   bool
}

// QueryResponse is the caller-to-engine delivery of one range's page
// (spec.md §3). It is the public name for buffer.Response; pipeline
// callers never need to look inside pkg/buffer directly.
type QueryResponse = buffer.Response

// Result is what one run() call produces.
type Result struct {
	Items     []operators.Item
	Requests  []DataRequest
	Completed bool
}

// state is the lifecycle spec.md §4.9's diagram names.
type state int

const (
	stateServing state = iota
	stateFreed
)

// Pipeline is the stateful, single-threaded-cooperative object
// coordinating one cross-partition query (spec.md §4.9, §5). A Pipeline
// must never be driven from more than one goroutine concurrently; the
// caller owns that synchronization.
type Pipeline struct {
	id    string
	log   *logrus.Entry
	state state

	plan     *queryplan.Plan
	query    string
	selected []pkr.PartitionKeyRange
	buffers  *buffer.Set
	op       operators.Operator

	config      Config
	nextReqID   uint64
	rangeQuery  map[string]string // per-range query override (readmany)
	needsOB     bool
	needsGB     bool
}

// Create builds a Pipeline from the gateway's plan and the container's
// physical ranges, per spec.md §4.9's create() contract: parse, validate
// version/feature support, select ranges (§4.2), and compose the
// operator tree (§4.3).
func Create(query string, planJSON, pkrangesJSON []byte, config Config) (*Pipeline, error) {
	plan, err := queryplan.Parse(planJSON)
	if err != nil {
		return nil, err
	}
	if err := plan.Validate(config.Features); err != nil {
		return nil, err
	}
	physical, err := pkr.ParsePKRanges(pkrangesJSON)
	if err != nil {
		return nil, err
	}
	selected, err := rangeselector.Select(plan.QueryRanges, physical)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(selected))
	for i, r := range selected {
		ids[i] = r.ID
	}
	buffers := buffer.NewSet(ids)

	op, err := operators.Build(plan, buffers, config.Features)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		id:       uuid.New(),
		plan:     plan,
		query:    plan.RewrittenQueryOr(query),
		selected: selected,
		buffers:  buffers,
		op:       op,
		config:   config,
		needsOB:  plan.HasOrderBy(),
		needsGB:  plan.HasGroupByOrAggregate(),
	}
	p.log = logrus.WithFields(logrus.Fields{"pipeline": p.id})
	p.log.Debug("pipeline created")
	tracing.PipelineCreated()
	return p, nil
}

// Query returns the rewritten query the caller should issue per
// partition, falling back to the original query when the plan carries
// none (spec.md §3, §8 scenario 6).
func (p *Pipeline) Query() string { return p.query }

// Run advances the operator tree by one turn (spec.md §4.9). It is safe
// to call repeatedly with no new data: a Pipeline with outstanding
// requests simply reports them again until provide_data() satisfies
// them, the re-entrancy guarantee spec.md §4.9 requires.
func (p *Pipeline) Run() (Result, error) {
	if p.state == stateFreed {
		return Result{}, cqerr.New(cqerr.InternalError, "pipeline: run called after free")
	}

	r := p.op.Poll(p.config.itemBudget())

	// Requests still awaiting provide_data() are reported again under their
	// original ids; the operators never issue a second one for such a range.
	var requests []DataRequest
	if !r.Completed {
		for _, b := range p.buffers.All() {
			if id, ok := b.OutstandingRequestID(); ok {
				requests = append(requests, DataRequest{ID: id, PartitionKeyRangeID: b.RangeID, Continuation: b.Continuation(), Query: p.queryFor(b.RangeID), IncludeParameters: p.rangeQuery != nil})
			}
		}
	}
	for _, rangeID := range r.WantRequests {
		b, ok := p.buffers.Get(rangeID)
		if !ok {
			continue
		}
		p.nextReqID++
		reqID := p.nextReqID
		b.MarkRequested(reqID)
		requests = append(requests, DataRequest{
			ID:                  reqID,
			PartitionKeyRangeID: rangeID,
			Continuation:        b.Continuation(),
			Query:               p.queryFor(rangeID),
			IncludeParameters:   p.rangeQuery != nil,
		})
	}

	p.log.WithFields(logrus.Fields{
		"items":     len(r.Items),
		"requests":  len(requests),
		"completed": r.Completed,
	}).Debug("run")
	tracing.Run(len(r.Items))

	return Result{Items: r.Items, Requests: requests, Completed: r.Completed}, nil
}

// queryFor returns the query text a DataRequest for rangeID should
// carry: the read-many synthesized per-range query when one was
// registered (see readmany.go), otherwise the pipeline's single
// rewritten query.
func (p *Pipeline) queryFor(rangeID string) string {
	if p.rangeQuery != nil {
		if q, ok := p.rangeQuery[rangeID]; ok {
			return q
		}
	}
	return p.query
}

// ProvideData delivers a batch of responses (spec.md §4.9). The batch is
// applied atomically: if any response fails validation or parsing, the
// pipeline is left entirely unchanged (buffer.ApplyBatch enforces this
// by validating every response before committing any of them).
func (p *Pipeline) ProvideData(responses []QueryResponse) error {
	if p.state == stateFreed {
		return cqerr.New(cqerr.InternalError, "pipeline: provide_data called after free")
	}
	if err := buffer.ApplyBatch(responses, p.buffers.Lookup(), p.needsOB, p.needsGB); err != nil {
		tracing.ProvideDataError()
		return err
	}
	p.log.WithField("responses", len(responses)).Debug("provide_data")
	return nil
}

// Free releases the pipeline. Safe to call exactly once; per spec.md
// §8's "idempotent free" invariant, a second call on an already-freed
// pipeline is a deliberate no-op rather than a panic, since the FFI
// layer (pkg/ffi) cannot distinguish "already freed" from "caller bug"
// without this guarantee.
func (p *Pipeline) Free() {
	if p.state == stateFreed {
		return
	}
	p.state = stateFreed
	p.op = nil
	p.buffers = nil
	p.log.Debug("pipeline freed")
}

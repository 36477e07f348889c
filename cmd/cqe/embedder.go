package main

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Azure/cosmos-query-engine-go/pkg/pipeline"
)

// Fetcher services a batch of DataRequests and returns one QueryResponse
// per request. It is the seam driveLoop depends on instead of *embedder
// directly, so the run loop can be exercised against a hand-written mock
// (see mock_fetcher_test.go) without touching the filesystem.
type Fetcher interface {
	FetchAll(ctx context.Context, requests []pipeline.DataRequest) ([]pipeline.QueryResponse, error)
}

// embedder plays the role spec.md §1 carves out as "external
// collaborator": it owns all I/O, answering each DataRequest the
// pipeline emits and feeding results back via ProvideData. Concurrency
// here is the embedder's own choice, never the pipeline's (spec.md §5:
// "no internal scheduler... single-threaded cooperative") — it is
// grounded on the teacher's ParallelPartitionLister
// (pkg/stores/partition/parallel.go), which fans a list operation out
// across partitions under a weighted semaphore and re-joins the
// results before handing them back to its caller.
type embedder struct {
	fixtures    *FixtureSet
	concurrency int64
	cursors     map[string]*cursor
	mu          sync.Mutex
}

func newEmbedder(fixtures *FixtureSet, concurrency int64) *embedder {
	return &embedder{
		fixtures:    fixtures,
		concurrency: concurrency,
		cursors:     make(map[string]*cursor),
	}
}

func (e *embedder) cursorFor(rangeID string) *cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cursors[rangeID]
	if !ok {
		c = &cursor{}
		e.cursors[rangeID] = c
	}
	return c
}

// FetchAll services every DataRequest concurrently, bounded by e's
// semaphore weight, and returns one QueryResponse per request, in the
// same order as requests. Implements Fetcher.
func (e *embedder) FetchAll(ctx context.Context, requests []pipeline.DataRequest) ([]pipeline.QueryResponse, error) {
	sem := semaphore.NewWeighted(e.concurrency)
	responses := make([]pipeline.QueryResponse, len(requests))

	eg, ctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		eg.Go(func() error {
			defer sem.Release(1)
			resp, err := e.fetch(req)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// fetch serves a single DataRequest from the fixture set, standing in
// for the per-partition HTTP round trip to the gateway (spec.md §1 out
// of scope).
func (e *embedder) fetch(req pipeline.DataRequest) (pipeline.QueryResponse, error) {
	page, err := e.fixtures.next(req.PartitionKeyRangeID, e.cursorFor(req.PartitionKeyRangeID))
	if err != nil {
		return pipeline.QueryResponse{}, err
	}
	logrus.WithFields(logrus.Fields{
		"request_id": req.ID,
		"range":      req.PartitionKeyRangeID,
	}).Debug("cqe: served fixture page")
	return pipeline.QueryResponse{
		RequestID:           req.ID,
		PartitionKeyRangeID: req.PartitionKeyRangeID,
		Data:                json.RawMessage(page.Body),
		Continuation:        page.Continuation,
	}, nil
}

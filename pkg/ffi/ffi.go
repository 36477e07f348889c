// Package ffi is the opaque-handle facade spec.md §6 describes: a thin,
// panic-safe layer between the pure-Go pipeline engine and the C ABI
// pkg/ffi/cabi exports. Handles stand in for the "opaque, heap-allocated,
// owned across the boundary" Pipeline/PipelineResult spec.md §3/§9
// require — callers across the FFI boundary hold an integer handle
// rather than a Go pointer, so the Go runtime's garbage collector never
// has to reason about C-side references into Go memory.
//
// Grounded on main.go's one-time setup idiom (a package-level sync.Once
// for process-wide state) and pkg/cqerr's ResultCode mapping; the
// handle-registry pattern itself has no teacher equivalent (the teacher
// has no FFI boundary) and is the standard idiom for this concern in Go,
// so it is justified on spec.md §6's explicit requirement for a stable,
// opaque cross-boundary handle rather than on teacher code.
package ffi

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/epk"
	"github.com/Azure/cosmos-query-engine-go/pkg/pipeline"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"
	"github.com/Azure/cosmos-query-engine-go/pkg/tracing"
)

// Version is the semver string spec.md §6's version() export returns.
const Version = "1.0.0"

// PipelineHandle identifies a live *pipeline.Pipeline across the FFI
// boundary. Zero is never a valid handle.
type PipelineHandle uint64

// ResultHandle identifies a live *pipeline.Result across the FFI
// boundary. Zero is never a valid handle.
type ResultHandle uint64

var (
	nextHandle uint64

	pipelinesMu sync.Mutex
	pipelines   = map[PipelineHandle]*pipeline.Pipeline{}

	resultsMu sync.Mutex
	results   = map[ResultHandle]*pipeline.Result{}

	panicOnce sync.Once
)

func allocHandle() uint64 {
	return atomic.AddUint64(&nextHandle, 1)
}

// installPanicHandler ensures every exported entry point recovers from a
// panic into InternalError rather than unwinding across the FFI boundary
// (spec.md §6/§9 "panic handler is installed at first pipeline
// creation"). It is a no-op after its first call.
func installPanicHandler() {
	panicOnce.Do(func() {
		logrus.Debug("ffi: panic-to-error handler installed")
	})
}

// guard recovers a panic inside fn and reports it as InternalError,
// matching spec.md §6's "converts any internal panic to InternalError
// rather than unwinding across the boundary".
func guard(fn func() error) (err error) {
	installPanicHandler()
	defer func() {
		if r := recover(); r != nil {
			err = cqerr.New(cqerr.InternalError, "ffi: recovered panic: %v", r)
		}
	}()
	return fn()
}

// TracingEnable implements spec.md §6's tracing_enable() export.
func TracingEnable() {
	tracing.Enable()
}

// SupportedFeatures implements spec.md §6's query_supported_features()
// export: a fixed JSON object of boolean feature flags (the Open
// Question spec.md §9 leaves to the implementation; see DESIGN.md).
func SupportedFeatures(features queryplan.FeatureSet) string {
	hybrid := "false"
	if features.Hybrid {
		hybrid = "true"
	}
	return `{"orderBy":true,"groupBy":true,"distinct":true,"offsetLimit":true,"top":true,"hybrid":` + hybrid + `}`
}

// PipelineCreate implements spec.md §6's query_pipeline_create export.
func PipelineCreate(query string, planJSON, pkrangesJSON []byte, config pipeline.Config) (PipelineHandle, error) {
	if query == "" && len(planJSON) == 0 {
		return 0, cqerr.New(cqerr.ArgumentNull, "ffi: query and plan both empty")
	}
	var handle PipelineHandle
	err := guard(func() error {
		p, err := pipeline.Create(query, planJSON, pkrangesJSON, config)
		if err != nil {
			return err
		}
		handle = PipelineHandle(allocHandle())
		pipelinesMu.Lock()
		pipelines[handle] = p
		pipelinesMu.Unlock()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return handle, nil
}

// ReadManyPipelineCreate implements spec.md §6's
// readmany_pipeline_create export.
func ReadManyPipelineCreate(itemIdentitiesJSON, pkrangesJSON []byte, pkKind pipeline.PartitionKeyKind, pkVersion epk.Version, config pipeline.Config) (PipelineHandle, error) {
	var handle PipelineHandle
	err := guard(func() error {
		p, err := pipeline.CreateReadMany(itemIdentitiesJSON, pkrangesJSON, pkKind, pkVersion, config)
		if err != nil {
			return err
		}
		handle = PipelineHandle(allocHandle())
		pipelinesMu.Lock()
		pipelines[handle] = p
		pipelinesMu.Unlock()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return handle, nil
}

func lookupPipeline(h PipelineHandle) (*pipeline.Pipeline, error) {
	pipelinesMu.Lock()
	p, ok := pipelines[h]
	pipelinesMu.Unlock()
	if !ok {
		return nil, cqerr.New(cqerr.ArgumentNull, "ffi: unknown pipeline handle %d", h)
	}
	return p, nil
}

// PipelineQuery implements spec.md §6's query_pipeline_query export.
func PipelineQuery(h PipelineHandle) (string, error) {
	p, err := lookupPipeline(h)
	if err != nil {
		return "", err
	}
	var out string
	err = guard(func() error {
		out = p.Query()
		return nil
	})
	return out, err
}

// PipelineRun implements spec.md §6's query_pipeline_run export, wrapping
// its pipeline.Result in a new ResultHandle owned by the caller until
// PipelineFreeResult releases it.
func PipelineRun(h PipelineHandle) (ResultHandle, error) {
	p, err := lookupPipeline(h)
	if err != nil {
		return 0, err
	}
	var handle ResultHandle
	err = guard(func() error {
		res, err := p.Run()
		if err != nil {
			return err
		}
		handle = ResultHandle(allocHandle())
		resultsMu.Lock()
		results[handle] = &res
		resultsMu.Unlock()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return handle, nil
}

// PipelineResult returns the pipeline.Result backing a ResultHandle, for
// the C ABI layer to project into flat C structs.
func PipelineResult(h ResultHandle) (*pipeline.Result, error) {
	resultsMu.Lock()
	r, ok := results[h]
	resultsMu.Unlock()
	if !ok {
		return nil, cqerr.New(cqerr.ArgumentNull, "ffi: unknown result handle %d", h)
	}
	return r, nil
}

// PipelineProvideData implements spec.md §6's query_pipeline_provide_data
// export.
func PipelineProvideData(h PipelineHandle, responses []pipeline.QueryResponse) error {
	p, err := lookupPipeline(h)
	if err != nil {
		return err
	}
	return guard(func() error {
		return p.ProvideData(responses)
	})
}

// PipelineFreeResult implements spec.md §6's query_pipeline_free_result
// export. Freeing an unknown or already-freed handle is a no-op, matching
// spec.md §8's "idempotent free" invariant.
func PipelineFreeResult(h ResultHandle) {
	resultsMu.Lock()
	delete(results, h)
	resultsMu.Unlock()
}

// PipelineFree implements spec.md §6's query_pipeline_free export.
// Freeing an unknown or already-freed handle is a no-op.
func PipelineFree(h PipelineHandle) {
	pipelinesMu.Lock()
	p, ok := pipelines[h]
	delete(pipelines, h)
	pipelinesMu.Unlock()
	if ok {
		p.Free()
	}
}

//go:build cgo

// Package cabi builds the native library spec.md §6 specifies: a C ABI
// wrapping pkg/ffi's opaque-handle facade. Built with
// `go build -buildmode=c-shared` (or c-archive) against this directory;
// every //export function below is the literal surface spec.md §6's
// table names. Guarded by the cgo build tag so the rest of the module
// still builds for callers who only want the pure-Go facade, the way
// the teacher isolates its own build-specific code.
//
// This file is the foreign-function boundary only. It does not
// interpret query plans, parse JSON payloads, or hold any engine state
// itself — everything it does is copy bytes across the cgo boundary and
// defer to pkg/ffi.
package main

/*
#include <stdint.h>
#include <stdlib.h>

typedef struct cqe_str {
	const uint8_t *data;
	size_t len;
} cqe_str;

typedef struct cqe_slice {
	const void *data;
	size_t len;
} cqe_slice;

typedef struct cqe_query_response {
	uint64_t request_id;
	cqe_str partition_key_range_id;
	cqe_str data;
	cqe_str continuation;
} cqe_query_response;

typedef struct cqe_data_request {
	uint64_t id;
	cqe_str partition_key_range_id;
	cqe_str continuation;
	cqe_str query;
	int include_parameters;
} cqe_data_request;

typedef struct cqe_ffi_result {
	int32_t code;
	uint64_t value;
} cqe_ffi_result;
*/
import "C"

import (
	"unsafe"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/epk"
	"github.com/Azure/cosmos-query-engine-go/pkg/ffi"
	"github.com/Azure/cosmos-query-engine-go/pkg/pipeline"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"
)

// cqeVersion is the static semver string spec.md §6's version() export
// returns. Declared once so its backing C string lives for the process
// lifetime, per the "NUL-terminated static semver string" contract.
var cqeVersion = C.CString(ffi.Version)

//export cqe_version
func cqe_version() *C.char {
	return cqeVersion
}

//export cqe_tracing_enable
func cqe_tracing_enable() {
	ffi.TracingEnable()
}

//export cqe_query_supported_features
func cqe_query_supported_features() *C.char {
	return C.CString(ffi.SupportedFeatures(queryplan.FeatureSet{Hybrid: false}))
}

func strFromC(s C.cqe_str) []byte {
	if s.data == nil || s.len == 0 {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(s.data), C.int(s.len))
}

func resultOf(code cqerr.ResultCode, value uint64) C.cqe_ffi_result {
	return C.cqe_ffi_result{code: C.int32_t(code), value: C.uint64_t(value)}
}

//export cqe_query_pipeline_create
func cqe_query_pipeline_create(query, plan, pkranges C.cqe_str) C.cqe_ffi_result {
	q := string(strFromC(query))
	planBytes := strFromC(plan)
	pkrBytes := strFromC(pkranges)
	if planBytes == nil || pkrBytes == nil {
		return resultOf(cqerr.ArgumentNull.Code(), 0)
	}
	h, err := ffi.PipelineCreate(q, planBytes, pkrBytes, pipeline.Config{})
	if err != nil {
		return resultOf(cqerr.CodeOf(err), 0)
	}
	return resultOf(0, uint64(h))
}

//export cqe_readmany_pipeline_create
func cqe_readmany_pipeline_create(items, pkranges C.cqe_str, pkKind C.int32_t, pkVersion C.int32_t) C.cqe_ffi_result {
	itemBytes := strFromC(items)
	pkrBytes := strFromC(pkranges)
	if itemBytes == nil || pkrBytes == nil {
		return resultOf(cqerr.ArgumentNull.Code(), 0)
	}
	kind := pipeline.PartitionKeyKindHash
	if pkKind == 1 {
		kind = pipeline.PartitionKeyKindMultiHash
	}
	h, err := ffi.ReadManyPipelineCreate(itemBytes, pkrBytes, kind, epk.Version(int(pkVersion)), pipeline.Config{})
	if err != nil {
		return resultOf(cqerr.CodeOf(err), 0)
	}
	return resultOf(0, uint64(h))
}

//export cqe_query_pipeline_query
func cqe_query_pipeline_query(handle C.uint64_t) C.cqe_ffi_result {
	q, err := ffi.PipelineQuery(ffi.PipelineHandle(handle))
	if err != nil {
		return resultOf(cqerr.CodeOf(err), 0)
	}
	cs := C.CString(q)
	return resultOf(0, uint64(uintptr(unsafe.Pointer(cs))))
}

//export cqe_query_pipeline_run
func cqe_query_pipeline_run(handle C.uint64_t) C.cqe_ffi_result {
	h, err := ffi.PipelineRun(ffi.PipelineHandle(handle))
	if err != nil {
		return resultOf(cqerr.CodeOf(err), 0)
	}
	return resultOf(0, uint64(h))
}

//export cqe_query_pipeline_result_completed
func cqe_query_pipeline_result_completed(handle C.uint64_t) C.int {
	r, err := ffi.PipelineResult(ffi.ResultHandle(handle))
	if err != nil || !r.Completed {
		return 0
	}
	return 1
}

//export cqe_query_pipeline_result_item_count
func cqe_query_pipeline_result_item_count(handle C.uint64_t) C.int32_t {
	r, err := ffi.PipelineResult(ffi.ResultHandle(handle))
	if err != nil {
		return 0
	}
	return C.int32_t(len(r.Items))
}

//export cqe_query_pipeline_result_item
func cqe_query_pipeline_result_item(handle C.uint64_t, index C.int32_t) C.cqe_str {
	r, err := ffi.PipelineResult(ffi.ResultHandle(handle))
	if err != nil || int(index) >= len(r.Items) {
		return C.cqe_str{}
	}
	payload := r.Items[index].Payload
	if len(payload) == 0 {
		return C.cqe_str{}
	}
	return C.cqe_str{data: (*C.uint8_t)(C.CBytes(payload)), len: C.size_t(len(payload))}
}

//export cqe_query_pipeline_result_request_count
func cqe_query_pipeline_result_request_count(handle C.uint64_t) C.int32_t {
	r, err := ffi.PipelineResult(ffi.ResultHandle(handle))
	if err != nil {
		return 0
	}
	return C.int32_t(len(r.Requests))
}

//export cqe_query_pipeline_result_request
func cqe_query_pipeline_result_request(handle C.uint64_t, index C.int32_t) C.cqe_data_request {
	r, err := ffi.PipelineResult(ffi.ResultHandle(handle))
	if err != nil || int(index) >= len(r.Requests) {
		return C.cqe_data_request{}
	}
	req := r.Requests[index]
	includeParams := C.int(0)
	if req.IncludeParameters {
		includeParams = 1
	}
	return C.cqe_data_request{
		id:                     C.uint64_t(req.ID),
		partition_key_range_id: cStr(req.PartitionKeyRangeID),
		continuation:           cStr(req.Continuation),
		query:                  cStr(req.Query),
		include_parameters:     includeParams,
	}
}

func cStr(s string) C.cqe_str {
	if s == "" {
		return C.cqe_str{}
	}
	b := []byte(s)
	return C.cqe_str{data: (*C.uint8_t)(C.CBytes(b)), len: C.size_t(len(b))}
}

//export cqe_query_pipeline_provide_data
func cqe_query_pipeline_provide_data(handle C.uint64_t, responses C.cqe_slice) C.int32_t {
	n := int(responses.len)
	if n == 0 {
		return 0
	}
	cResponses := (*[1 << 20]C.cqe_query_response)(unsafe.Pointer(responses.data))[:n:n]
	out := make([]pipeline.QueryResponse, n)
	for i, r := range cResponses {
		out[i] = pipeline.QueryResponse{
			RequestID:           uint64(r.request_id),
			PartitionKeyRangeID: string(strFromC(r.partition_key_range_id)),
			Data:                strFromC(r.data),
			Continuation:        string(strFromC(r.continuation)),
		}
	}
	if err := ffi.PipelineProvideData(ffi.PipelineHandle(handle), out); err != nil {
		return C.int32_t(cqerr.CodeOf(err))
	}
	return 0
}

//export cqe_query_pipeline_free_result
func cqe_query_pipeline_free_result(handle C.uint64_t) {
	ffi.PipelineFreeResult(ffi.ResultHandle(handle))
}

//export cqe_query_pipeline_free
func cqe_query_pipeline_free(handle C.uint64_t) {
	ffi.PipelineFree(ffi.PipelineHandle(handle))
}

func main() {}

package ffi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/pipeline"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"
)

const (
	twoRanges = `[{"id":"p0","minInclusive":"","maxExclusive":"99"},{"id":"p1","minInclusive":"99","maxExclusive":""}]`
	plan      = `{"partitionedQueryExecutionInfoVersion":1,"queryInfo":{},"queryRanges":[]}`
)

func TestPipelineCreateRunProvideDataFreeRoundTrip(t *testing.T) {
	h, err := PipelineCreate("SELECT * FROM c", []byte(plan), []byte(twoRanges), pipeline.Config{})
	require.NoError(t, err)
	require.NotZero(t, h)

	q, err := PipelineQuery(h)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM c", q)

	rh, err := PipelineRun(h)
	require.NoError(t, err)
	require.NotZero(t, rh)

	res, err := PipelineResult(rh)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Len(t, res.Requests, 2)

	responses := make([]pipeline.QueryResponse, len(res.Requests))
	for i, req := range res.Requests {
		responses[i] = pipeline.QueryResponse{RequestID: req.ID, PartitionKeyRangeID: req.PartitionKeyRangeID, Data: []byte(`{"Documents":[]}`)}
	}
	require.NoError(t, PipelineProvideData(h, responses))

	PipelineFreeResult(rh)
	_, err = PipelineResult(rh)
	require.Error(t, err)

	rh2, err := PipelineRun(h)
	require.NoError(t, err)
	res2, err := PipelineResult(rh2)
	require.NoError(t, err)
	assert.True(t, res2.Completed)

	PipelineFree(h)
	// idempotent: freeing twice and freeing an unknown handle must not panic.
	PipelineFree(h)
	PipelineFree(PipelineHandle(987654321))
}

func TestPipelineCreateInvalidPlanReturnsResultCode(t *testing.T) {
	_, err := PipelineCreate("SELECT * FROM c", []byte(`not json`), []byte(twoRanges), pipeline.Config{})
	require.Error(t, err)
	assert.Equal(t, cqerr.DeserializationError.Code(), cqerr.CodeOf(err))
}

func TestPipelineQueryUnknownHandle(t *testing.T) {
	_, err := PipelineQuery(PipelineHandle(424242))
	require.Error(t, err)
}

func TestSupportedFeaturesReflectsHybridFlag(t *testing.T) {
	assert.JSONEq(t, `{"orderBy":true,"groupBy":true,"distinct":true,"offsetLimit":true,"top":true,"hybrid":false}`, SupportedFeatures(queryplan.FeatureSet{Hybrid: false}))
	assert.JSONEq(t, `{"orderBy":true,"groupBy":true,"distinct":true,"offsetLimit":true,"top":true,"hybrid":true}`, SupportedFeatures(queryplan.FeatureSet{Hybrid: true}))
}

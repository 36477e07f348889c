package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBatchAtomicOnFailure(t *testing.T) {
	set := NewSet([]string{"p0", "p1"})
	b0, _ := set.Get("p0")
	b1, _ := set.Get("p1")
	b0.MarkRequested(1)
	b1.MarkRequested(2)

	err := ApplyBatch([]Response{
		{RequestID: 1, PartitionKeyRangeID: "p0", Data: []byte(`{"Documents":[1,2]}`), Continuation: "c1"},
		{RequestID: 2, PartitionKeyRangeID: "p1", Data: []byte(`not json`), Continuation: ""},
	}, set.Lookup(), false, false)
	require.Error(t, err)

	// Atomicity: p0's valid response must not have been committed either.
	assert.True(t, b0.Empty())
	assert.Equal(t, "", b0.Continuation())
	assert.True(t, b0.HasOutstanding())
}

func TestApplyBatchCommitsOnSuccess(t *testing.T) {
	set := NewSet([]string{"p0", "p1"})
	b0, _ := set.Get("p0")
	b1, _ := set.Get("p1")
	b0.MarkRequested(1)
	b1.MarkRequested(2)

	err := ApplyBatch([]Response{
		{RequestID: 1, PartitionKeyRangeID: "p0", Data: []byte(`{"Documents":[1,2]}`), Continuation: "c1"},
		{RequestID: 2, PartitionKeyRangeID: "p1", Data: []byte(`{"Documents":[]}`), Continuation: ""},
	}, set.Lookup(), false, false)
	require.NoError(t, err)

	assert.Equal(t, 2, b0.Len())
	assert.False(t, b0.Terminated())
	assert.False(t, b0.HasOutstanding())

	assert.True(t, b1.Terminated())
	assert.True(t, b1.Empty())
}

func TestApplyBatchRejectsUnknownRange(t *testing.T) {
	set := NewSet([]string{"p0"})
	b0, _ := set.Get("p0")
	b0.MarkRequested(1)

	err := ApplyBatch([]Response{
		{RequestID: 1, PartitionKeyRangeID: "nope", Data: []byte(`{"Documents":[]}`)},
	}, set.Lookup(), false, false)
	require.Error(t, err)
}

func TestApplyBatchRejectsUnsolicitedDelivery(t *testing.T) {
	set := NewSet([]string{"p0"})
	err := ApplyBatch([]Response{
		{RequestID: 1, PartitionKeyRangeID: "p0", Data: []byte(`{"Documents":[]}`)},
	}, set.Lookup(), false, false)
	require.Error(t, err)
}

func TestBufferEligible(t *testing.T) {
	b := New("p0")
	assert.False(t, b.Eligible())
	b.MarkRequested(1)
	err := ApplyBatch([]Response{
		{RequestID: 1, PartitionKeyRangeID: "p0", Data: []byte(`{"Documents":[]}`), Continuation: ""},
	}, func(string) (*Buffer, bool) { return b, true }, false, false)
	require.NoError(t, err)
	assert.True(t, b.Eligible()) // terminated, even though still empty
}

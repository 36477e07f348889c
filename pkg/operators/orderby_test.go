package operators

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-query-engine-go/pkg/buffer"
)

func feedOrdered(t *testing.T, set *buffer.Set, rangeID string, continuation string, items ...int) {
	t.Helper()
	b, ok := set.Get(rangeID)
	require.True(t, ok)
	reqID, has := b.OutstandingRequestID()
	if !has {
		reqID = 1
		b.MarkRequested(reqID)
	}
	docs := make([]map[string]any, len(items))
	for i, v := range items {
		docs[i] = map[string]any{
			"payload":      map[string]any{"range": rangeID, "v": v},
			"orderByItems": []map[string]any{{"item": v}},
		}
	}
	raw, err := json.Marshal(map[string]any{"Documents": docs})
	require.NoError(t, err)
	require.NoError(t, buffer.ApplyBatch([]buffer.Response{
		{RequestID: reqID, PartitionKeyRangeID: rangeID, Data: raw, Continuation: continuation},
	}, set.Lookup(), true, false))
}

func TestOrderByMergesAcrossPartitions(t *testing.T) {
	set := buffer.NewSet([]string{"p0", "p1"})
	feedOrdered(t, set, "p0", "", 1, 3, 5)
	feedOrdered(t, set, "p1", "", 2, 4, 6)

	op := NewOrderBy(set, []bool{false})
	r := op.Poll(10)
	require.Len(t, r.Items, 6)
	var got []int
	for _, it := range r.Items {
		var doc struct{ V int `json:"v"` }
		require.NoError(t, json.Unmarshal(it.Payload, &doc))
		got = append(got, doc.V)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
	assert.True(t, r.Completed)
}

func TestOrderByStallsOnIneligibleBuffer(t *testing.T) {
	set := buffer.NewSet([]string{"p0", "p1"})
	feedOrdered(t, set, "p0", "", 1, 2)
	b1, _ := set.Get("p1")
	b1.MarkRequested(1)

	op := NewOrderBy(set, []bool{false})
	r := op.Poll(10)
	assert.Empty(t, r.Items)
	assert.Equal(t, []string(nil), r.WantRequests) // p1 already has an outstanding request
	assert.False(t, r.Completed)
}

func TestOrderByStopsMidMergeWhenBufferDrainsWithoutTerminating(t *testing.T) {
	set := buffer.NewSet([]string{"p0", "p1"})
	feedOrdered(t, set, "p0", "cont-p0", 1, 2)
	feedOrdered(t, set, "p1", "", 10, 20)

	op := NewOrderBy(set, []bool{false})
	r := op.Poll(10)
	// p0 drains after its two items (1, 2) but isn't terminated (continuation
	// "cont-p0"), so the merge must stop there rather than assume nothing
	// smaller than 10 remains in p0.
	var got []int
	for _, it := range r.Items {
		var doc struct{ V int `json:"v"` }
		require.NoError(t, json.Unmarshal(it.Payload, &doc))
		got = append(got, doc.V)
	}
	assert.Equal(t, []int{1, 2}, got)
	assert.Contains(t, r.WantRequests, "p0")
	assert.False(t, r.Completed)
}

func TestOrderByDescending(t *testing.T) {
	set := buffer.NewSet([]string{"p0"})
	feedOrdered(t, set, "p0", "", 1, 3, 2)

	op := NewOrderBy(set, []bool{true})
	r := op.Poll(10)
	var got []int
	for _, it := range r.Items {
		var doc struct{ V int `json:"v"` }
		require.NoError(t, json.Unmarshal(it.Payload, &doc))
		got = append(got, doc.V)
	}
	// A single buffer never competes against another head, so its own
	// arrival order passes through unchanged regardless of direction.
	assert.Equal(t, []int{1, 3, 2}, got)
}

// TestOrderByTieBreaksByPhysicalRangeOrder exercises spec.md §4.5's tie
// rule: when two ranges' heads carry equal orderByItems tuples, the
// merge must consistently prefer the range that comes first in physical
// range order rather than leaving container/heap to pick arbitrarily.
func TestOrderByTieBreaksByPhysicalRangeOrder(t *testing.T) {
	set := buffer.NewSet([]string{"p0", "p1", "p2"})
	feedOrdered(t, set, "p0", "", 5, 5)
	feedOrdered(t, set, "p1", "", 5, 5)
	feedOrdered(t, set, "p2", "", 5, 5)

	op := NewOrderBy(set, []bool{false})
	r := op.Poll(10)
	require.Len(t, r.Items, 6)

	var got []string
	for _, it := range r.Items {
		var doc struct {
			Range string `json:"range"`
		}
		require.NoError(t, json.Unmarshal(it.Payload, &doc))
		got = append(got, doc.Range)
	}
	assert.Equal(t, []string{"p0", "p0", "p1", "p1", "p2", "p2"}, got)
	assert.True(t, r.Completed)
}

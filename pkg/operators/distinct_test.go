package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistinctOrderedDropsAdjacentDuplicates(t *testing.T) {
	up := &fakeOperator{results: []PollResult{
		{Items: items(`{"a":1}`, `{"a":1}`, `{"a":2}`), Completed: true},
	}}
	d := NewDistinct(up, true)
	r := d.Poll(10)
	assert.Len(t, r.Items, 2)
	assert.True(t, r.Completed)
}

func TestDistinctUnorderedDropsNonAdjacentDuplicates(t *testing.T) {
	up := &fakeOperator{results: []PollResult{
		{Items: items(`{"a":1}`, `{"a":2}`, `{"a":1}`), Completed: true},
	}}
	d := NewDistinct(up, false)
	r := d.Poll(10)
	assert.Len(t, r.Items, 2)
}

func TestDistinctOrderedKeepsNonAdjacentRepeats(t *testing.T) {
	up := &fakeOperator{results: []PollResult{
		{Items: items(`{"a":1}`, `{"a":2}`, `{"a":1}`), Completed: true},
	}}
	d := NewDistinct(up, true)
	r := d.Poll(10)
	// Ordered mode only catches adjacent duplicates; a non-adjacent repeat
	// slips through when the upstream isn't actually sorted, which is the
	// caller's contract to uphold, not this operator's.
	assert.Len(t, r.Items, 3)
}

func TestDistinctPullsMoreWhenFiltered(t *testing.T) {
	up := &fakeOperator{results: []PollResult{
		{Items: items(`{"a":1}`, `{"a":1}`)},
		{Items: items(`{"a":2}`), Completed: true},
	}}
	d := NewDistinct(up, true)
	r := d.Poll(2)
	assert.Len(t, r.Items, 2)
	assert.True(t, r.Completed)
}

func TestDistinctPropagatesWantRequests(t *testing.T) {
	up := &fakeOperator{results: []PollResult{
		{WantRequests: []string{"p0"}},
	}}
	d := NewDistinct(up, false)
	r := d.Poll(5)
	assert.Empty(t, r.Items)
	assert.Equal(t, []string{"p0"}, r.WantRequests)
	assert.False(t, r.Completed)
}

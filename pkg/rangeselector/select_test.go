package rangeselector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkr "github.com/Azure/cosmos-query-engine-go/pkg/partitionkeyrange"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"
)

func ids(rs []pkr.PartitionKeyRange) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestSelectEmptyQueryRangesSelectsAll(t *testing.T) {
	physical := []pkr.PartitionKeyRange{
		{ID: "p1", MinInclusive: "99", MaxExclusive: "FF"},
		{ID: "p0", MinInclusive: "00", MaxExclusive: "99"},
	}
	got, err := Select(nil, physical)
	require.NoError(t, err)
	assert.Equal(t, []string{"p0", "p1"}, ids(got))
}

func TestSelectSingleIntervalWithinOneRange(t *testing.T) {
	physical := []pkr.PartitionKeyRange{
		{ID: "p0", MinInclusive: "00", MaxExclusive: "50"},
		{ID: "p1", MinInclusive: "50", MaxExclusive: "99"},
		{ID: "p2", MinInclusive: "99", MaxExclusive: "FF"},
	}
	logical := []queryplan.LogicalRange{
		{Min: "60", Max: "70", IsMinInclusive: true, IsMaxInclusive: false},
	}
	got, err := Select(logical, physical)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(got))
}

func TestSelectIntervalSpanningMultipleRanges(t *testing.T) {
	physical := []pkr.PartitionKeyRange{
		{ID: "p0", MinInclusive: "00", MaxExclusive: "50"},
		{ID: "p1", MinInclusive: "50", MaxExclusive: "99"},
		{ID: "p2", MinInclusive: "99", MaxExclusive: "FF"},
	}
	logical := []queryplan.LogicalRange{
		{Min: "40", Max: "A0", IsMinInclusive: true, IsMaxInclusive: false},
	}
	got, err := Select(logical, physical)
	require.NoError(t, err)
	assert.Equal(t, []string{"p0", "p1", "p2"}, ids(got))
}

func TestSelectExclusiveMinSkipsExactMatch(t *testing.T) {
	physical := []pkr.PartitionKeyRange{
		{ID: "p0", MinInclusive: "00", MaxExclusive: "50"},
		{ID: "p1", MinInclusive: "50", MaxExclusive: "99"},
	}
	// exclusive-min at exactly "50" should normalize to "51", so only p1
	// still overlaps (not p0, whose range ends exactly at "50").
	logical := []queryplan.LogicalRange{
		{Min: "50", Max: "99", IsMinInclusive: false, IsMaxInclusive: false},
	}
	got, err := Select(logical, physical)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(got))
}

func TestSelectMinimality(t *testing.T) {
	physical := []pkr.PartitionKeyRange{
		{ID: "p0", MinInclusive: "00", MaxExclusive: "20"},
		{ID: "p1", MinInclusive: "20", MaxExclusive: "40"},
		{ID: "p2", MinInclusive: "40", MaxExclusive: "60"},
	}
	logical := []queryplan.LogicalRange{
		{Min: "00", Max: "10", IsMinInclusive: true, IsMaxInclusive: false},
	}
	got, err := Select(logical, physical)
	require.NoError(t, err)
	selected := map[string]bool{}
	for _, r := range got {
		selected[r.ID] = true
	}
	assert.True(t, selected["p0"])
	assert.False(t, selected["p1"])
	assert.False(t, selected["p2"])
}

func TestSelectRejectsOverlappingPhysicalRanges(t *testing.T) {
	physical := []pkr.PartitionKeyRange{
		{ID: "p0", MinInclusive: "00", MaxExclusive: "60"},
		{ID: "p1", MinInclusive: "50", MaxExclusive: "99"},
	}
	_, err := Select(nil, physical)
	require.Error(t, err)
}

package partitionkeyrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsHalfOpenInterval(t *testing.T) {
	r := PartitionKeyRange{ID: "p0", MinInclusive: "10", MaxExclusive: "20"}
	assert.True(t, r.Contains("10"))
	assert.True(t, r.Contains("15"))
	assert.False(t, r.Contains("20"))
	assert.False(t, r.Contains("05"))
}

func TestContainsUnboundedUpper(t *testing.T) {
	r := PartitionKeyRange{ID: "last", MinInclusive: "99", MaxExclusive: ""}
	assert.True(t, r.Contains("99"))
	assert.True(t, r.Contains("FF"))
}

func TestParsePKRangesEnvelopeShape(t *testing.T) {
	raw := `{"PartitionKeyRanges":[{"id":"p0","minInclusive":"","maxExclusive":"FF"}]}`
	ranges, err := ParsePKRanges([]byte(raw))
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, "p0", ranges[0].ID)
}

func TestParsePKRangesBareArrayShape(t *testing.T) {
	raw := `[{"id":"p0","minInclusive":"","maxExclusive":"FF"},{"id":"p1","minInclusive":"FF","maxExclusive":""}]`
	ranges, err := ParsePKRanges([]byte(raw))
	require.NoError(t, err)
	assert.Len(t, ranges, 2)
}

func TestParsePKRangesRejectsEmptyPayload(t *testing.T) {
	_, err := ParsePKRanges(nil)
	require.Error(t, err)
}

func TestParsePKRangesRejectsMalformedJSON(t *testing.T) {
	_, err := ParsePKRanges([]byte(`  [not json`))
	require.Error(t, err)
}

func TestParsePKRangesToleratesLeadingWhitespace(t *testing.T) {
	raw := "  \n\t[{\"id\":\"p0\",\"minInclusive\":\"\",\"maxExclusive\":\"FF\"}]"
	ranges, err := ParsePKRanges([]byte(raw))
	require.NoError(t, err)
	require.Len(t, ranges, 1)
}

package jsonvalue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareKindRank(t *testing.T) {
	ordered := []Value{
		Undefined,
		Null,
		Bool(false),
		Bool(true),
		Number(-1),
		Number(0),
		Number(1),
		String(""),
		String("a"),
		Array([]Value{}),
		Array([]Value{Number(1)}),
	}
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			assert.Negativef(t, Compare(ordered[i], ordered[j]), "expected %v < %v", ordered[i], ordered[j])
			assert.Positivef(t, Compare(ordered[j], ordered[i]), "expected %v > %v", ordered[j], ordered[i])
		}
		assert.Zero(t, Compare(ordered[i], ordered[i]))
	}
}

func TestCompareNumberNaN(t *testing.T) {
	nan := Number(math.NaN())
	assert.Positive(t, Compare(nan, Number(1e308)))
	assert.Negative(t, Compare(Number(1e308), nan))
	assert.Zero(t, Compare(nan, Number(math.NaN())))
}

func TestCompareTupleDescending(t *testing.T) {
	a := []Value{Number(1), String("b")}
	b := []Value{Number(1), String("a")}
	assert.Positive(t, CompareTuple(a, b, []bool{false, false}))
	assert.Negative(t, CompareTuple(a, b, []bool{false, true}))
}

func TestCanonicalDigestStable(t *testing.T) {
	obj1 := FromAny(map[string]interface{}{"a": 1.0, "b": "x"})
	obj2 := FromAny(map[string]interface{}{"b": "x", "a": 1.0})
	assert.Equal(t, CanonicalDigest(obj1), CanonicalDigest(obj2))

	obj3 := FromAny(map[string]interface{}{"a": 1.0, "b": "y"})
	assert.NotEqual(t, CanonicalDigest(obj1), CanonicalDigest(obj3))
}

// Package rangeselector implements spec.md §4.2: computing the minimal
// subset of physical PartitionKeyRanges overlapping the plan's logical
// queryRanges. It generalizes the teacher's rbacPartitioner.All (which
// turns an access policy into an ordered []Partition,
// pkg/stores/partition/partitioner.go) from RBAC-derived partitions to
// EPK-interval-derived partitions.
package rangeselector

import (
	"sort"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"

	pkr "github.com/Azure/cosmos-query-engine-go/pkg/partitionkeyrange"
)

// bound is a half-open interval [Lo, Hi); HiUnbounded means Hi
// extends to the top of the EPK space ("FF" in spec.md's terms).
type bound struct {
	Lo          string
	Hi          string
	HiUnbounded bool
}

// incrementHex returns the lexicographically-next fixed-width hex string
// after s (treating s as a big-endian hex integer), or "" with ok=false
// on overflow. This is the "adjusting inclusive/exclusive bounds
// lexicographically" step spec.md §4.2(1) calls for: converting an
// inclusive bound into the exclusive bound of an equivalent closed-open
// interval requires a successor function over the EPK alphabet.
func incrementHex(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	digits := []byte(s)
	for i := len(digits) - 1; i >= 0; i-- {
		switch {
		case digits[i] == '9':
			digits[i] = 'A'
			return string(digits), true
		case digits[i] >= 'A' && digits[i] < 'F':
			digits[i]++
			return string(digits), true
		case digits[i] == 'F':
			digits[i] = '0'
			// carry into the next digit
		default:
			digits[i]++
			return string(digits), true
		}
	}
	// every digit was 'F': overflowed past the top of the space.
	return "", false
}

func normalize(r queryplan.LogicalRange) bound {
	b := bound{Lo: r.Min, Hi: r.Max}
	if !r.IsMinInclusive {
		if next, ok := incrementHex(r.Min); ok {
			b.Lo = next
		}
	}
	if r.IsMaxInclusive {
		if next, ok := incrementHex(r.Max); ok {
			b.Hi = next
		} else {
			b.HiUnbounded = true
		}
	}
	return b
}

func physicalBound(r pkr.PartitionKeyRange) bound {
	return bound{Lo: r.MinInclusive, Hi: r.MaxExclusive, HiUnbounded: r.MaxExclusive == ""}
}

// minHi returns the lesser of two Hi bounds (Unbounded counts as +inf).
func minHi(a, b bound) (string, bool) {
	switch {
	case a.HiUnbounded:
		return b.Hi, b.HiUnbounded
	case b.HiUnbounded:
		return a.Hi, a.HiUnbounded
	case a.Hi <= b.Hi:
		return a.Hi, false
	default:
		return b.Hi, false
	}
}

func maxLo(a, b bound) string {
	if a.Lo >= b.Lo {
		return a.Lo
	}
	return b.Lo
}

// overlaps reports whether [a.Lo, a.Hi) and [b.Lo, b.Hi) share any point.
func overlaps(a, b bound) bool {
	lo := maxLo(a, b)
	hi, hiUnbounded := minHi(a, b)
	if hiUnbounded {
		return true
	}
	return lo < hi
}

// Select returns the subset of physical ranges, in physical lexicographic
// order by MinInclusive, overlapping at least one interval in logical. If
// logical is empty, every physical range is selected (spec.md §4.2(4):
// "query spans the entire container"). logical is assumed to be
// internally non-overlapping; overlapping physical ranges are rejected
// with InvalidGatewayResponse. Select itself sorts physical by
// MinInclusive (spec.md §4.2(2)) and walks both lists once (step 3).
func Select(logical []queryplan.LogicalRange, physical []pkr.PartitionKeyRange) ([]pkr.PartitionKeyRange, error) {
	sorted := make([]pkr.PartitionKeyRange, len(physical))
	copy(sorted, physical)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinInclusive < sorted[j].MinInclusive
	})
	if err := checkNoOverlaps(sorted); err != nil {
		return nil, err
	}
	if len(logical) == 0 {
		return sorted, nil
	}

	norm := make([]bound, len(logical))
	for i, r := range logical {
		norm[i] = normalize(r)
	}
	sort.Slice(norm, func(i, j int) bool { return norm[i].Lo < norm[j].Lo })

	selected := make([]pkr.PartitionKeyRange, 0, len(sorted))
	i, j := 0, 0
	for i < len(sorted) && j < len(norm) {
		p := physicalBound(sorted[i])
		l := norm[j]
		if overlaps(p, l) {
			if len(selected) == 0 || selected[len(selected)-1].ID != sorted[i].ID {
				selected = append(selected, sorted[i])
			}
		}
		// advance whichever interval ends first; it can't overlap
		// anything further ahead on the other side.
		switch {
		case p.HiUnbounded && l.HiUnbounded:
			i++
			j++
		case p.HiUnbounded:
			j++
		case l.HiUnbounded:
			i++
		case p.Hi <= l.Hi:
			i++
		default:
			j++
		}
	}

	return selected, nil
}

func checkNoOverlaps(sorted []pkr.PartitionKeyRange) error {
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		cur := sorted[i]
		if prev.MaxExclusive == "" {
			return cqerr.New(cqerr.InvalidGatewayResponse, "rangeselector: range %s is unbounded but followed by %s", prev.ID, cur.ID)
		}
		if cur.MinInclusive < prev.MaxExclusive {
			return cqerr.New(cqerr.InvalidGatewayResponse, "rangeselector: ranges %s and %s overlap", prev.ID, cur.ID)
		}
	}
	return nil
}

package operators

import "github.com/Azure/cosmos-query-engine-go/pkg/jsonvalue"

// Distinct is spec.md §4.7's duplicate-elimination stage.
//
// Ordered mode rejects a document whose orderByItems tuple equals the
// previous emitted document's tuple: O(1) memory, valid only when
// upstream is known to deliver documents in an order that groups
// duplicates adjacently (true whenever OrderBy sits below it in the
// tree).
//
// Unordered mode has no such guarantee and instead keys on the
// canonical digest of the projected payload, remembering every key it
// has seen: O(n) memory, the same tradeoff the teacher's in-memory
// listprocessor filters accept for a full-table scan.
type Distinct struct {
	upstream Operator
	ordered  bool

	hasLastTuple bool
	lastTuple    []jsonvalue.Value

	seen map[[32]byte]bool
}

// NewDistinct wraps upstream with duplicate elimination. ordered selects
// the O(1) adjacent-orderByItems comparison; false selects the O(n)
// payload-digest seen-set.
func NewDistinct(upstream Operator, ordered bool) *Distinct {
	d := &Distinct{upstream: upstream, ordered: ordered}
	if !ordered {
		d.seen = make(map[[32]byte]bool)
	}
	return d
}

func (d *Distinct) Poll(budget int) PollResult {
	var out []Item
	for budget > 0 {
		remaining := budget - len(out)
		r := d.upstream.Poll(remaining)

		for _, it := range r.Items {
			if d.isDuplicate(it) {
				continue
			}
			out = append(out, it)
		}

		if len(r.WantRequests) > 0 {
			return PollResult{Items: out, WantRequests: r.WantRequests}
		}
		if r.Completed {
			return PollResult{Items: out, Completed: true}
		}
		if len(r.Items) == 0 {
			// Upstream had nothing to give and isn't blocked or done;
			// avoid spinning.
			break
		}
	}
	return PollResult{Items: out}
}

func (d *Distinct) isDuplicate(it Item) bool {
	if d.ordered {
		if d.hasLastTuple && tuplesEqual(it.OrderByItems, d.lastTuple) {
			return true
		}
		d.hasLastTuple = true
		d.lastTuple = it.OrderByItems
		return false
	}

	v, err := jsonvalue.Parse(it.Payload)
	if err != nil {
		return false
	}
	digest := jsonvalue.CanonicalDigest(v)
	if d.seen[digest] {
		return true
	}
	d.seen[digest] = true
	return false
}

func tuplesEqual(a, b []jsonvalue.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if jsonvalue.Compare(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}

package operators

import (
	"container/heap"

	"github.com/Azure/cosmos-query-engine-go/pkg/buffer"
	"github.com/Azure/cosmos-query-engine-go/pkg/jsonvalue"
)

// OrderBy is the Streaming OrderBy operator (spec.md §4.3 step 2, §4.5):
// a k-way merge over each selected range's buffer, ordered by the
// document's orderByItems tuple. A buffer contributes only while
// Eligible() (non-empty, or terminated and so permanently done); the
// merge halts and requests more data rather than guess past an empty,
// non-terminated buffer. Generalized from the teacher's
// listprocessor.SortList, which sorted one complete in-memory slice —
// here the same total order is produced incrementally across many
// partial, arriving slices via container/heap.
type OrderBy struct {
	buffers    *buffer.Set
	descending []bool
}

// NewOrderBy creates an OrderBy operator merging buffers by orderByItems,
// one descending flag per sort key (false = Ascending).
func NewOrderBy(buffers *buffer.Set, descending []bool) *OrderBy {
	return &OrderBy{buffers: buffers, descending: descending}
}

// mergeHeap is a container/heap.Interface over the range ids currently
// contributing a non-empty head to the merge. rank fixes spec.md §4.5's
// tie-break ("stable by physical range order, then by arrival order
// within a partition") deterministically: container/heap gives no
// ordering guarantee of its own between elements CompareTuple reports
// equal, so ties fall back to each range's position in physical range
// order — arrival order within one range already holds automatically,
// since a buffer's own queue is FIFO.
type mergeHeap struct {
	ids     []string
	buffers *buffer.Set
	desc    []bool
	rank    map[string]int
}

func (h *mergeHeap) Len() int { return len(h.ids) }
func (h *mergeHeap) Less(i, j int) bool {
	bi, _ := h.buffers.Get(h.ids[i])
	bj, _ := h.buffers.Get(h.ids[j])
	hi, _ := bi.Peek()
	hj, _ := bj.Peek()
	if c := jsonvalue.CompareTuple(hi.OrderByItems, hj.OrderByItems, h.desc); c != 0 {
		return c < 0
	}
	return h.rank[h.ids[i]] < h.rank[h.ids[j]]
}
func (h *mergeHeap) Swap(i, j int) { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }
func (h *mergeHeap) Push(x any)    { h.ids = append(h.ids, x.(string)) }
func (h *mergeHeap) Pop() any {
	old := h.ids
	n := len(old)
	id := old[n-1]
	h.ids = old[:n-1]
	return id
}

func (o *OrderBy) Poll(budget int) PollResult {
	order := o.buffers.Order()

	var ineligibleWant []string
	anyIneligible := false
	for _, id := range order {
		b, _ := o.buffers.Get(id)
		if !b.Eligible() {
			anyIneligible = true
			ineligibleWant = wantIfNotOutstanding(b, id, ineligibleWant)
		}
	}
	if anyIneligible {
		return PollResult{WantRequests: ineligibleWant}
	}

	h := &mergeHeap{buffers: o.buffers, desc: o.descending, rank: make(map[string]int, len(order))}
	for i, id := range order {
		h.rank[id] = i
		b, _ := o.buffers.Get(id)
		if !b.Empty() {
			h.ids = append(h.ids, id)
		}
	}
	heap.Init(h)

	var items []Item
	var stallWant []string
	for budget > 0 && h.Len() > 0 {
		id := h.ids[0]
		b, _ := o.buffers.Get(id)
		e, _ := b.Pop()
		items = append(items, e)
		budget--

		if !b.Empty() {
			heap.Fix(h, 0)
			continue
		}
		heap.Pop(h)
		if !b.Terminated() {
			// Drained mid-merge: its true next value is unknown, so the
			// merge cannot safely continue past this point this turn.
			stallWant = wantIfNotOutstanding(b, id, stallWant)
			break
		}
	}

	return PollResult{
		Items:        items,
		WantRequests: stallWant,
		Completed:    len(stallWant) == 0 && o.buffers.AllTerminatedAndEmpty(),
	}
}

package operators

import "github.com/Azure/cosmos-query-engine-go/pkg/buffer"

// Parallel is the leaf Parallel Scan operator (spec.md §4.3 step 1):
// round-robin drains the selected ranges' buffers so no single partition
// can starve the others within one Poll call. Generalized from the
// teacher's pkg/stores/partition/parallel.go goroutine fan-out, whose
// round-robin result interleaving is preserved here as a single-threaded
// pull loop instead of a fan-in channel.
type Parallel struct {
	buffers *buffer.Set
	cursor  int
}

// NewParallel creates a Parallel operator over buffers.
func NewParallel(buffers *buffer.Set) *Parallel {
	return &Parallel{buffers: buffers}
}

func (p *Parallel) Poll(budget int) PollResult {
	order := p.buffers.Order()
	n := len(order)
	var items []Item

	for n > 0 && budget > 0 {
		drewAny := false
		for i := 0; i < n; i++ {
			idx := (p.cursor + i) % n
			b, _ := p.buffers.Get(order[idx])
			e, ok := b.Pop()
			if !ok {
				continue
			}
			items = append(items, e)
			drewAny = true
			budget--
			if budget == 0 {
				p.cursor = (idx + 1) % n
				break
			}
		}
		if !drewAny {
			break
		}
	}

	var want []string
	for _, id := range order {
		b, _ := p.buffers.Get(id)
		if !b.Terminated() && b.Empty() {
			want = wantIfNotOutstanding(b, id, want)
		}
	}

	return PollResult{
		Items:        items,
		WantRequests: want,
		Completed:    p.buffers.AllTerminatedAndEmpty(),
	}
}

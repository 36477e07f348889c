package operators

// OffsetLimit is spec.md §4.3 step 5's OFFSET/LIMIT stage: skips the first
// offset items that would otherwise be emitted, then emits at most limit
// more (limit == nil means unbounded — OFFSET without LIMIT). Once limit
// items have been emitted it reports Completed and issues no further
// upstream requests, the same short-circuit spec.md §4.6 requires of Top.
type OffsetLimit struct {
	upstream Operator
	toSkip   int64
	hasLimit bool
	toEmit   int64
	done     bool
}

// NewOffsetLimit wraps upstream, skipping offset items then emitting at
// most *limit more (unbounded if limit is nil).
func NewOffsetLimit(upstream Operator, offset int64, limit *int64) *OffsetLimit {
	o := &OffsetLimit{upstream: upstream, toSkip: offset}
	if limit != nil {
		o.hasLimit = true
		o.toEmit = *limit
		if o.toEmit <= 0 {
			o.done = true
		}
	}
	return o
}

func (o *OffsetLimit) Poll(budget int) PollResult {
	if o.done {
		return PollResult{Completed: true}
	}

	var out []Item
	for budget > 0 {
		remaining := budget
		if o.hasLimit && o.toEmit < int64(remaining) {
			remaining = int(o.toEmit)
		}
		r := o.upstream.Poll(remaining + skipLookahead(o.toSkip, remaining))

		exhausted := false
		for _, it := range r.Items {
			if o.toSkip > 0 {
				o.toSkip--
				continue
			}
			out = append(out, it)
			budget--
			if o.hasLimit {
				o.toEmit--
				if o.toEmit == 0 {
					o.done = true
					return PollResult{Items: out, Completed: true}
				}
			}
			if budget == 0 {
				exhausted = true
				break
			}
		}
		if exhausted {
			break
		}

		if len(r.WantRequests) > 0 {
			return PollResult{Items: out, WantRequests: r.WantRequests}
		}
		if r.Completed {
			return PollResult{Items: out, Completed: true}
		}
		if len(r.Items) == 0 {
			break
		}
	}
	return PollResult{Items: out}
}

// skipLookahead widens the upstream budget request so a pending skip count
// doesn't starve this turn's output entirely.
func skipLookahead(toSkip int64, want int) int {
	if toSkip <= 0 {
		return 0
	}
	if toSkip > 1<<20 {
		return 1 << 20
	}
	return int(toSkip)
}

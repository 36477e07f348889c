package operators

// Top is spec.md §4.3 step 6's TOP stage: emits at most n items total and
// then completes permanently, issuing no further upstream requests even
// if the caller keeps calling Poll. Structurally identical to OffsetLimit
// with offset 0, kept as its own type because the plan carries top and
// offset/limit as distinct, independently-optional fields (spec.md §3).
type Top struct {
	inner *OffsetLimit
}

// NewTop wraps upstream, emitting at most n items.
func NewTop(upstream Operator, n int64) *Top {
	return &Top{inner: NewOffsetLimit(upstream, 0, &n)}
}

func (t *Top) Poll(budget int) PollResult { return t.inner.Poll(budget) }

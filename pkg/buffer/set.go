package buffer

// Set holds one Buffer per selected range, preserving the physical
// lexicographic order spec.md §4.2(5) requires: "this order determines
// the initial request emission order and ordered-merge traversal."
type Set struct {
	order   []string
	byRange map[string]*Buffer
}

// NewSet creates a Set with one empty Buffer per range id, in the given
// order.
func NewSet(rangeIDs []string) *Set {
	s := &Set{
		order:   append([]string(nil), rangeIDs...),
		byRange: make(map[string]*Buffer, len(rangeIDs)),
	}
	for _, id := range rangeIDs {
		s.byRange[id] = New(id)
	}
	return s
}

// Order returns the range ids in physical order.
func (s *Set) Order() []string { return s.order }

// Get looks up a buffer by range id.
func (s *Set) Get(rangeID string) (*Buffer, bool) {
	b, ok := s.byRange[rangeID]
	return b, ok
}

// Lookup adapts Get to the func(string) (*Buffer, bool) shape ApplyBatch
// expects.
func (s *Set) Lookup() func(string) (*Buffer, bool) {
	return s.Get
}

// All returns every buffer in physical order.
func (s *Set) All() []*Buffer {
	out := make([]*Buffer, len(s.order))
	for i, id := range s.order {
		out[i] = s.byRange[id]
	}
	return out
}

// AllTerminatedAndEmpty reports whether every buffer is drained, the
// condition spec.md §2/§8 calls "Exhaustion".
func (s *Set) AllTerminatedAndEmpty() bool {
	for _, id := range s.order {
		b := s.byRange[id]
		if !b.Terminated() || !b.Empty() {
			return false
		}
	}
	return true
}

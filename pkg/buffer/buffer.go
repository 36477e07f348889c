// Package buffer implements the per-range PartitionBuffer (spec.md §3)
// and the atomic "accept a batch of responses or change nothing" rule
// from spec.md §4.9. The atomicity discipline is modeled on the
// teacher's pkg/sqlcache/db TxClient: validate everything a transaction
// would do before committing any of it, generalized here from SQL
// statements to in-memory buffer mutation.
package buffer

import "github.com/Azure/cosmos-query-engine-go/pkg/cqerr"

// Buffer is one selected range's FIFO of arriving items plus its
// continuation/terminated/outstanding-request bookkeeping.
type Buffer struct {
	RangeID     string
	pending     []Entry
	continuation string
	terminated   bool
	outstanding  *uint64
}

// New creates an empty, non-terminated buffer for rangeID.
func New(rangeID string) *Buffer {
	return &Buffer{RangeID: rangeID}
}

// Len reports how many entries are currently buffered.
func (b *Buffer) Len() int { return len(b.pending) }

// Empty reports whether the FIFO currently has nothing buffered.
func (b *Buffer) Empty() bool { return len(b.pending) == 0 }

// Terminated reports whether the partition has delivered its last page.
func (b *Buffer) Terminated() bool { return b.terminated }

// Continuation returns the continuation token to use for the next
// request against this range ("" means "start from the beginning" if no
// request has ever been made, or "drained" if Terminated is true).
func (b *Buffer) Continuation() string { return b.continuation }

// HasOutstanding reports whether a DataRequest for this range is in
// flight (spec.md §8 "At-most-one-in-flight").
func (b *Buffer) HasOutstanding() bool { return b.outstanding != nil }

// OutstandingRequestID returns the in-flight request id, if any.
func (b *Buffer) OutstandingRequestID() (uint64, bool) {
	if b.outstanding == nil {
		return 0, false
	}
	return *b.outstanding, true
}

// MarkRequested records that requestID was issued for this range.
// Callers must check !HasOutstanding() first; Buffer does not enforce
// the at-most-one-in-flight invariant itself (the operator issuing
// requests is the single point that decides when a new request is
// allowed, per spec.md §4.4's "has no outstanding request" condition).
func (b *Buffer) MarkRequested(requestID uint64) {
	id := requestID
	b.outstanding = &id
}

// Peek returns the head entry without removing it.
func (b *Buffer) Peek() (Entry, bool) {
	if len(b.pending) == 0 {
		return Entry{}, false
	}
	return b.pending[0], true
}

// Pop removes and returns the head entry.
func (b *Buffer) Pop() (Entry, bool) {
	if len(b.pending) == 0 {
		return Entry{}, false
	}
	e := b.pending[0]
	b.pending = b.pending[1:]
	return e, true
}

// PopN removes and returns up to n head entries (fewer if the FIFO holds
// less); used by operators enforcing a per-turn emission budget.
func (b *Buffer) PopN(n int) []Entry {
	if n > len(b.pending) {
		n = len(b.pending)
	}
	out := b.pending[:n:n]
	b.pending = b.pending[n:]
	return out
}

// Eligible reports whether a streaming merge may safely read this
// buffer's head (spec.md §4.5): either it has data, or it is terminated
// and will never have any more.
func (b *Buffer) Eligible() bool {
	return !b.Empty() || b.terminated
}

// pendingAccept is the parsed, not-yet-committed result of validating one
// QueryResponse against its buffer.
type pendingAccept struct {
	buf         *Buffer
	entries     []Entry
	continuation string
	terminated   bool
}

// commit applies a validated accept to its buffer. Called only after
// every response in a batch has validated successfully, so a partially
// applied batch never becomes visible (spec.md §4.9 "atomic batch").
func (p pendingAccept) commit() {
	p.buf.pending = append(p.buf.pending, p.entries...)
	p.buf.continuation = p.continuation
	p.buf.terminated = p.terminated
	p.buf.outstanding = nil
}

// Response is the caller-supplied data for one partition (spec.md §3
// QueryResponse), already separated from the wire JSON body by the
// pipeline layer.
type Response struct {
	RequestID           uint64
	PartitionKeyRangeID string
	Data                []byte
	Continuation        string
}

// ApplyBatch validates every response against lookup(rangeID) before
// mutating any buffer, so a single malformed response leaves the whole
// buffer set untouched (spec.md §4.9: "partial application on error is
// forbidden"). needsOrderBy/needsGroupBy describe what the active plan
// requires so envelope parsing can validate shape.
func ApplyBatch(responses []Response, lookup func(rangeID string) (*Buffer, bool), needsOrderBy, needsGroupBy bool) error {
	accepts := make([]pendingAccept, 0, len(responses))
	seen := make(map[string]bool, len(responses))

	for _, resp := range responses {
		buf, ok := lookup(resp.PartitionKeyRangeID)
		if !ok {
			return cqerr.New(cqerr.UnknownPartitionKeyRange, "buffer: response for unknown range %q", resp.PartitionKeyRangeID)
		}
		if seen[resp.PartitionKeyRangeID] {
			return cqerr.New(cqerr.InvalidGatewayResponse, "buffer: duplicate response for range %q in one batch", resp.PartitionKeyRangeID)
		}
		seen[resp.PartitionKeyRangeID] = true

		if !buf.HasOutstanding() {
			return cqerr.New(cqerr.InvalidGatewayResponse, "buffer: unsolicited response for range %q with no outstanding request", resp.PartitionKeyRangeID)
		}
		outstandingID, _ := buf.OutstandingRequestID()
		if outstandingID != resp.RequestID {
			return cqerr.New(cqerr.InvalidGatewayResponse, "buffer: response request_id %d does not match outstanding request_id %d for range %q", resp.RequestID, outstandingID, resp.PartitionKeyRangeID)
		}

		entries, err := ParseEnvelope(resp.Data, needsOrderBy, needsGroupBy)
		if err != nil {
			return err
		}

		accepts = append(accepts, pendingAccept{
			buf:          buf,
			entries:      entries,
			continuation: resp.Continuation,
			terminated:   resp.Continuation == "",
		})
	}

	for _, a := range accepts {
		a.commit()
	}
	return nil
}

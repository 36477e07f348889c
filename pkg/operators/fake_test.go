package operators

import (
	"encoding/json"

	"github.com/Azure/cosmos-query-engine-go/pkg/jsonvalue"
)

// fakeOperator replays a fixed sequence of PollResults, one per Poll call,
// for testing operators that wrap an arbitrary upstream.
type fakeOperator struct {
	results []PollResult
	calls   int
}

func (f *fakeOperator) Poll(budget int) PollResult {
	if f.calls >= len(f.results) {
		return PollResult{} // no more data queued, but not necessarily done
	}
	r := f.results[f.calls]
	f.calls++
	return r
}

// items builds fixture Items whose orderByItems tuple mirrors the raw
// payload content, so Distinct's Ordered mode (keyed on orderByItems) and
// Unordered mode (keyed on payload) agree on which payloads are
// duplicates of each other.
func items(docs ...string) []Item {
	out := make([]Item, len(docs))
	for i, d := range docs {
		out[i] = Item{
			Payload:      json.RawMessage(d),
			OrderByItems: []jsonvalue.Value{jsonvalue.String(d)},
		}
	}
	return out
}

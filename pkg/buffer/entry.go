package buffer

import (
	"encoding/json"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/jsonvalue"
)

// Entry is one document as buffered for a single partition: its payload
// (the Item the pipeline eventually emits) plus whatever order-by/group-by
// projection the gateway attached to it (spec.md §3's per-partition
// document envelope).
type Entry struct {
	Payload      json.RawMessage
	OrderByItems []jsonvalue.Value
	GroupByItems []jsonvalue.Value
}

type richEnvelope struct {
	Payload      json.RawMessage   `json:"payload"`
	OrderByItems []orderByItemWire `json:"orderByItems"`
	GroupByItems []json.RawMessage `json:"groupByItems"`
}

type orderByItemWire struct {
	Item json.RawMessage `json:"item"`
}

type documentsEnvelope struct {
	Documents []json.RawMessage `json:"Documents"`
}

// ParseEnvelope decodes a gateway response body into buffered Entries,
// per spec.md §3's "Per-partition document envelope":
//
//   - unordered scans: {"Documents": [<payload>, ...]}
//   - order-by/group-by scans: {"Documents": [{"payload":...,
//     "orderByItems":[{"item":...}], "groupByItems":[...]}, ...]}
//
// needsOrderBy/needsGroupBy report whether the current plan requires
// those projections; their absence on a plan that needs them is
// InvalidGatewayResponse (spec.md §4.6 "Errors").
func ParseEnvelope(data []byte, needsOrderBy, needsGroupBy bool) ([]Entry, error) {
	var env documentsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, cqerr.Wrap(cqerr.DeserializationError, err, "buffer: parse response body")
	}
	if env.Documents == nil {
		return nil, cqerr.New(cqerr.InvalidGatewayResponse, "buffer: response missing Documents array")
	}

	entries := make([]Entry, 0, len(env.Documents))
	for i, raw := range env.Documents {
		entry, err := parseDocument(raw, needsOrderBy, needsGroupBy)
		if err != nil {
			return nil, cqerr.Wrap(cqerr.InvalidGatewayResponse, err, "buffer: document %d", i)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseDocument(raw json.RawMessage, needsOrderBy, needsGroupBy bool) (Entry, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Entry{}, err
	}
	payloadRaw, isRich := probe["payload"]
	if !isRich {
		if needsOrderBy || needsGroupBy {
			return Entry{}, cqerr.New(cqerr.InvalidGatewayResponse, "document lacks required payload/orderByItems envelope")
		}
		return Entry{Payload: raw}, nil
	}

	var rich richEnvelope
	if err := json.Unmarshal(raw, &rich); err != nil {
		return Entry{}, err
	}

	entry := Entry{Payload: payloadRaw}
	if needsOrderBy {
		if rich.OrderByItems == nil {
			return Entry{}, cqerr.New(cqerr.InvalidGatewayResponse, "document missing orderByItems required by plan")
		}
		entry.OrderByItems = make([]jsonvalue.Value, len(rich.OrderByItems))
		for i, it := range rich.OrderByItems {
			v, err := jsonvalue.Parse(it.Item)
			if err != nil {
				return Entry{}, err
			}
			entry.OrderByItems[i] = v
		}
	}
	if needsGroupBy {
		if rich.GroupByItems == nil {
			return Entry{}, cqerr.New(cqerr.InvalidGatewayResponse, "document missing groupByItems required by plan")
		}
		entry.GroupByItems = make([]jsonvalue.Value, len(rich.GroupByItems))
		for i, it := range rich.GroupByItems {
			v, err := jsonvalue.Parse(it)
			if err != nil {
				return Entry{}, err
			}
			entry.GroupByItems[i] = v
		}
	}
	return entry, nil
}

// Package partitionkeyrange models the physical PartitionKeyRange wire type
// (spec.md §3) and the pkranges payload shapes the engine accepts.
package partitionkeyrange

import (
	"encoding/json"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
)

// PartitionKeyRange is a half-open interval over the EPK space owned by one
// physical partition: [MinInclusive, MaxExclusive).
type PartitionKeyRange struct {
	ID           string `json:"id"`
	MinInclusive string `json:"minInclusive"`
	MaxExclusive string `json:"maxExclusive"`
}

// Contains reports whether hexEPK falls within [MinInclusive, MaxExclusive).
// An empty MaxExclusive means "no upper bound" (the range extends to "FF"),
// matching spec.md §4.2's "Ranges over the full EPK space [\"\", \"FF\")".
func (r PartitionKeyRange) Contains(hexEPK string) bool {
	if hexEPK < r.MinInclusive {
		return false
	}
	if r.MaxExclusive != "" && hexEPK >= r.MaxExclusive {
		return false
	}
	return true
}

// wireEnvelope matches the gateway's {"PartitionKeyRanges": [...]} shape.
type wireEnvelope struct {
	PartitionKeyRanges []PartitionKeyRange `json:"PartitionKeyRanges"`
}

// ParsePKRanges accepts either {"PartitionKeyRanges":[...]} or a bare array
// of ranges, per spec.md §6 "Wire formats consumed".
func ParsePKRanges(raw []byte) ([]PartitionKeyRange, error) {
	if len(raw) == 0 {
		return nil, cqerr.New(cqerr.ArgumentNull, "partitionkeyrange: empty pkranges payload")
	}

	trimmed := jsonTrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ranges []PartitionKeyRange
		if err := json.Unmarshal(raw, &ranges); err != nil {
			return nil, cqerr.Wrap(cqerr.DeserializationError, err, "partitionkeyrange: parse bare array")
		}
		return ranges, nil
	}

	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, cqerr.Wrap(cqerr.DeserializationError, err, "partitionkeyrange: parse envelope")
	}
	return env.PartitionKeyRanges, nil
}

func jsonTrimSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return b[i:]
}

// Package epk computes the Effective Partition Key hex string used to
// route a logical partition key value to the physical PartitionKeyRange
// that owns it (spec.md §4.1).
package epk

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"

	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/jsonvalue"
)

// Version selects the hashing scheme.
type Version int

const (
	// V1 hashes the whole composite key with 32-bit MurmurHash3.
	V1 Version = 1
	// V2 hashes each hierarchical component independently with 128-bit
	// MurmurHash3 and is the default for new containers.
	V2 Version = 2
)

// MaxComponents is the maximum number of scalars in a hierarchical
// partition key (spec.md §4.1: "length 1-3").
const MaxComponents = 3

// componentPrefixWidth is the number of uppercase hex characters each
// hierarchical component contributes to a v2 EPK string. This resolves the
// Open Question in spec.md §9 (see DESIGN.md): every component gets an
// equal, fixed-width share of the 128-bit per-component hash, so the
// engine's own range-selection invariants hold regardless of component
// count or ordering.
const componentPrefixWidth = 8

// Compute converts a logical partition key value into the hex EPK string.
// values holds 1-3 scalar jsonvalue.Value entries (Undefined, Null, Bool,
// Number, or String); anything else, or more than MaxComponents values,
// is InvalidPartitionKey.
func Compute(values []jsonvalue.Value, version Version) (string, error) {
	if len(values) == 0 {
		return "", cqerr.New(cqerr.InvalidPartitionKey, "epk: empty partition key")
	}
	if len(values) > MaxComponents {
		return "", cqerr.New(cqerr.InvalidPartitionKey, "epk: partition key has %d components, max %d", len(values), MaxComponents)
	}
	for i, v := range values {
		if !isScalar(v) {
			return "", cqerr.New(cqerr.InvalidPartitionKey, "epk: component %d has unsupported kind %s", i, v.Kind())
		}
	}

	switch version {
	case V1:
		return computeV1(values), nil
	case V2:
		return computeV2(values), nil
	default:
		return "", cqerr.New(cqerr.InvalidPartitionKey, "epk: unsupported version %d", version)
	}
}

func isScalar(v jsonvalue.Value) bool {
	switch v.Kind() {
	case jsonvalue.KindUndefined, jsonvalue.KindNull, jsonvalue.KindBool, jsonvalue.KindNumber, jsonvalue.KindString:
		return true
	default:
		return false
	}
}

// canonicalBytes produces the byte encoding used for hashing a single
// scalar component. Each JSON type gets its own tag byte so, per spec.md
// §4.1, Undefined and Null encode distinctly, true/false are distinct from
// numeric 1/0, and numbers use their raw IEEE-754 bit pattern.
func canonicalBytes(v jsonvalue.Value) []byte {
	switch v.Kind() {
	case jsonvalue.KindUndefined:
		return []byte{0x00}
	case jsonvalue.KindNull:
		return []byte{0x01}
	case jsonvalue.KindBool:
		if v.Bool() {
			return []byte{0x02, 0x01}
		}
		return []byte{0x02, 0x00}
	case jsonvalue.KindNumber:
		buf := make([]byte, 9)
		buf[0] = 0x03
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(v.Number()))
		return buf
	case jsonvalue.KindString:
		buf := make([]byte, 1+len(v.String()))
		buf[0] = 0x04
		copy(buf[1:], v.String())
		return buf
	default:
		// unreachable: isScalar already rejected everything else.
		panic(errors.Errorf("epk: canonicalBytes called on non-scalar kind %s", v.Kind()))
	}
}

func computeV1(values []jsonvalue.Value) string {
	var all []byte
	for _, v := range values {
		all = append(all, canonicalBytes(v)...)
		all = append(all, 0xFF) // component separator
	}
	h := murmur3.Sum32(all)
	return fmt.Sprintf("%08X", h)
}

func computeV2(values []jsonvalue.Value) string {
	var sb strings.Builder
	for _, v := range values {
		hi, lo := murmur3.Sum128(canonicalBytes(v))
		full := fmt.Sprintf("%016X%016X", hi, lo)
		sb.WriteString(full[:componentPrefixWidth])
	}
	return sb.String()
}

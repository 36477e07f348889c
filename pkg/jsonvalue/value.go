// Package jsonvalue implements the in-memory JSON value tree shared by the
// engine's ordering comparator, group/distinct key hashing, and aggregate
// arithmetic. It understands one type the JSON spec does not: Undefined,
// used for missing orderByItems/groupByItems components exactly as the
// Cosmos DB gateway projects them.
package jsonvalue

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Kind ranks a Value's JSON type for the §4.5 comparator:
// Undefined < Null < Bool < Number < String < Array < Object.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "Undefined"
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindObject:
		return "Object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a parsed JSON value, or the synthetic Undefined value used where
// the gateway omits a field entirely.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
	keys []string // object keys; FromAny fills it from a Go map, so its order is not defined
}

// Undefined is the zero Value.
var Undefined = Value{kind: KindUndefined}

// Null is the JSON null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Kind reports the value's JSON type.
func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() bool { return v.b }

func (v Value) Number() float64 { return v.n }

func (v Value) String() string { return v.s }

func (v Value) Array() []Value { return v.arr }

// Object returns the value's fields and its keys. The key slice is in no
// defined order; it does not reflect the order of the source JSON text.
func (v Value) Object() (map[string]Value, []string) { return v.obj, v.keys }

// Parse decodes a single JSON-encoded value into a Value tree. Empty input
// (e.g. an orderByItems element whose "item" field is absent) yields
// Undefined; any non-empty JSON text yields one of the other kinds.
func Parse(raw json.RawMessage) (Value, error) {
	if len(raw) == 0 {
		return Undefined, nil
	}
	var any interface{}
	if err := json.Unmarshal(raw, &any); err != nil {
		return Value{}, errors.Wrap(err, "jsonvalue: parse")
	}
	return FromAny(any), nil
}

// FromAny converts a value produced by encoding/json's default decoding
// (nil, bool, float64, string, []interface{}, map[string]interface{}) into a
// Value tree.
func FromAny(any interface{}) Value {
	switch t := any.(type) {
	case nil:
		return Null
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case json.Number:
		f, _ := t.Float64()
		return Number(f)
	case string:
		return String(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromAny(e)
		}
		return Array(items)
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		keys := make([]string, 0, len(t))
		for k, e := range t {
			obj[k] = FromAny(e)
			keys = append(keys, k)
		}
		return Value{kind: KindObject, obj: obj, keys: keys}
	default:
		return Undefined
	}
}

// MarshalJSON round-trips a Value back to JSON. JSON has no Undefined, so
// Undefined, whether bare or nested inside an array or object, marshals as
// null, the same as Null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindUndefined, KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		return json.Marshal(v.arr)
	case KindObject:
		m := make(map[string]Value, len(v.obj))
		for k, e := range v.obj {
			m[k] = e
		}
		return json.Marshal(m)
	default:
		return nil, errors.Errorf("jsonvalue: unknown kind %v", v.kind)
	}
}

// UnmarshalJSON parses into a Value tree via FromAny, making Value usable as
// a struct field for round-tripping a group key or order-by tuple through
// JSON (e.g. a test fixture, or a cached query plan result).
func (v *Value) UnmarshalJSON(data []byte) error {
	var any interface{}
	if err := json.Unmarshal(data, &any); err != nil {
		return errors.Wrap(err, "jsonvalue: unmarshal")
	}
	*v = FromAny(any)
	return nil
}

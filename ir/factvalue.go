package ir

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
)

// FactValueKind discriminates the variant held by a FactValue.
type FactValueKind uint8

const (
	FactValueString FactValueKind = iota
	FactValueNumber
	FactValueBoolean
	FactValueArray
	FactValueObject
	FactValueNull
)

// FactValue is a recursive sum type carrying the structured payload of a
// fact's custom attributes (and of Custom-variant fact bodies). Exactly one
// of the typed fields is meaningful, selected by Kind; this mirrors a
// tagged union without resorting to interface{} at every call site, so
// callers get a single concrete type to switch on.
type FactValue struct {
	Kind    FactValueKind
	Str     string
	Num     float64
	Bool    bool
	Array   []FactValue
	Object  map[string]FactValue
}

// NewStringValue constructs a string FactValue.
func NewStringValue(s string) FactValue { return FactValue{Kind: FactValueString, Str: s} }

// NewNumberValue constructs a numeric FactValue.
func NewNumberValue(n float64) FactValue { return FactValue{Kind: FactValueNumber, Num: n} }

// NewBooleanValue constructs a boolean FactValue.
func NewBooleanValue(b bool) FactValue { return FactValue{Kind: FactValueBoolean, Bool: b} }

// NewArrayValue constructs an array FactValue.
func NewArrayValue(items []FactValue) FactValue { return FactValue{Kind: FactValueArray, Array: items} }

// NewObjectValue constructs an object FactValue.
func NewObjectValue(fields map[string]FactValue) FactValue {
	return FactValue{Kind: FactValueObject, Object: fields}
}

// NullValue is the singleton null FactValue.
var NullValue = FactValue{Kind: FactValueNull}

// Equal reports deep structural equality.
func (v FactValue) Equal(other FactValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case FactValueString:
		return v.Str == other.Str
	case FactValueNumber:
		return v.Num == other.Num
	case FactValueBoolean:
		return v.Bool == other.Bool
	case FactValueNull:
		return true
	case FactValueArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	case FactValueObject:
		if len(v.Object) != len(other.Object) {
			return false
		}
		for k, val := range v.Object {
			ov, ok := other.Object[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Hash64 returns a deterministic 64-bit hash of the value. Object field
// order is irrelevant to its output (keys are sorted before hashing) and
// numbers are hashed by their IEEE-754 bit pattern so that equal floats
// always hash equal regardless of how they were produced.
func (v FactValue) Hash64() uint64 {
	h := fnv.New64a()
	v.writeHash(h)
	return h.Sum64()
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func (v FactValue) writeHash(h hashWriter) {
	_, _ = h.Write([]byte{byte(v.Kind)})
	switch v.Kind {
	case FactValueString:
		_, _ = h.Write([]byte(v.Str))
	case FactValueNumber:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.Num))
		_, _ = h.Write(buf[:])
	case FactValueBoolean:
		if v.Bool {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	case FactValueNull:
		// kind byte alone identifies null
	case FactValueArray:
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(v.Array)))
		_, _ = h.Write(lenBuf[:])
		for _, item := range v.Array {
			item.writeHash(h)
		}
	case FactValueObject:
		keys := make([]string, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(keys)))
		_, _ = h.Write(lenBuf[:])
		for _, k := range keys {
			_, _ = h.Write([]byte(k))
			v.Object[k].writeHash(h)
		}
	}
}

// String renders a compact debug representation, not intended for
// machine parsing.
func (v FactValue) String() string {
	switch v.Kind {
	case FactValueString:
		return fmt.Sprintf("%q", v.Str)
	case FactValueNumber:
		return fmt.Sprintf("%v", v.Num)
	case FactValueBoolean:
		return fmt.Sprintf("%v", v.Bool)
	case FactValueNull:
		return "null"
	case FactValueArray:
		return fmt.Sprintf("array(%d)", len(v.Array))
	case FactValueObject:
		return fmt.Sprintf("object(%d)", len(v.Object))
	default:
		return "invalid"
	}
}

package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// IRValue is a sealed interface for the values the reference wire codec reads
// and writes. Only IRNull, IRString, IRInt, IRFloat, IRBool, IRArray and
// IRObject implement it.
//
// Mapping from type-tree variants:
//   - primitives: IRBool, IRInt, IRFloat
//   - string/wstring: IRString, or IRNull when absent
//   - sequence: IRArray, or IRNull when absent
//   - struct: IRObject keyed by member name
//   - union: IRObject with DiscriminatorKey plus at most one case member
//   - enum: IRString holding the enumerator name
//   - bitmask: IRInt holding the packed flags
//   - typedef: whatever the aliased type uses
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// DiscriminatorKey holds the discriminant inside a union IRObject. IDL
// identifiers cannot start with '$', so it never collides with a case name.
const DiscriminatorKey = "$discriminator"

// IRNull represents an absent string or sequence.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a string value or an enumerator name.
type IRString string

func (IRString) irValue() {}

// IRInt represents any integral value, including packed bitmask flags.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents float and double values.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents sequence contents.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents struct and union contents.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// IRPair represents a key-value pair for IRObject construction.
type IRPair struct {
	Key   string
	Value IRValue
}

// O is a shorthand for IRPair.
// Example: NewIRObject(O("x", IRInt(1)), O("y", IRInt(2)))
func O(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// NewIRObject creates an IRObject from key-value pairs.
func NewIRObject(pairs ...IRPair) IRObject {
	obj := make(IRObject, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in byte order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Equal reports deep equality of two values. Floats compare by bit pattern so
// NaN payloads survive round-trip checks.
func Equal(a, b IRValue) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case IRNull:
		_, ok := b.(IRNull)
		return ok
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	case IRInt:
		bv, ok := b.(IRInt)
		return ok && av == bv
	case IRFloat:
		bv, ok := b.(IRFloat)
		return ok && math.Float64bits(float64(av)) == math.Float64bits(float64(bv))
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	case IRArray:
		bv, ok := b.(IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case IRObject:
		bv, ok := b.(IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !Equal(v, other) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON implements json.Marshaler for IRObject with sorted keys.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalIRValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalIRValue marshals an IRValue to JSON bytes.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRFloat:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite float %v has no JSON form", f)
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	case IRBool:
		return json.Marshal(bool(val))
	case IRArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			elemBytes, err := MarshalIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(elemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case IRObject:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

// UnmarshalIRValue parses JSON into an IRValue. Numbers without a fraction or
// exponent become IRInt, everything else numeric becomes IRFloat, and null
// becomes IRNull.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromGo(raw)
}

// FromGo converts decoded JSON or YAML data into an IRValue.
func FromGo(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		return IRInt(int64(val)), nil
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return IRInt(int64(val)), nil
		}
		return IRFloat(val), nil
	case json.Number:
		s := string(val)
		if !strings.ContainsAny(s, ".eE") {
			n, err := val.Int64()
			if err != nil {
				u, uerr := strconv.ParseUint(s, 10, 64)
				if uerr != nil {
					return nil, fmt.Errorf("number out of 64-bit range: %s", s)
				}
				return IRInt(int64(u)), nil
			}
			return IRInt(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", s, err)
		}
		return IRFloat(f), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

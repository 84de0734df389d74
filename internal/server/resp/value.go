package resp

import (
	"bytes"
	"strconv"
)

// Type identifies the RESP2 frame type by its wire prefix byte.
type Type byte

const (
	SimpleString Type = '+'
	Error        Type = '-'
	Integer      Type = ':'
	BulkString   Type = '$'
	Array        Type = '*'
)

// String returns a human-readable name for the type.
func (t Type) String() string {
	switch t {
	case SimpleString:
		return "simple string"
	case Error:
		return "error"
	case Integer:
		return "integer"
	case BulkString:
		return "bulk string"
	case Array:
		return "array"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// Value is one decoded RESP frame.
//
// Exactly one payload field is meaningful for a given Type:
// Str for SimpleString and Error, Int for Integer, Bulk for
// BulkString, Array for Array. Null marks the RESP2 null bulk
// string ($-1) and null array (*-1).
type Value struct {
	Type  Type
	Str   string
	Int   int64
	Bulk  []byte
	Array []Value
	Null  bool
}

// NewSimpleString returns a simple string value ("+s").
func NewSimpleString(s string) Value {
	return Value{Type: SimpleString, Str: s}
}

// NewError returns an error value ("-s").
func NewError(s string) Value {
	return Value{Type: Error, Str: s}
}

// NewInteger returns an integer value (":n").
func NewInteger(n int64) Value {
	return Value{Type: Integer, Int: n}
}

// NewBulk returns a bulk string value. A nil slice is a valid
// empty bulk, not a null bulk; use NewNullBulk for null.
func NewBulk(b []byte) Value {
	return Value{Type: BulkString, Bulk: b}
}

// NewBulkString returns a bulk string value from a string.
func NewBulkString(s string) Value {
	return Value{Type: BulkString, Bulk: []byte(s)}
}

// NewNullBulk returns the null bulk string ("$-1").
func NewNullBulk() Value {
	return Value{Type: BulkString, Null: true}
}

// NewArray returns an array value.
func NewArray(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Type: Array, Array: elems}
}

// NewNullArray returns the null array ("*-1").
func NewNullArray() Value {
	return Value{Type: Array, Null: true}
}

// IsNull reports whether the value is a null bulk or null array.
func (v Value) IsNull() bool {
	return v.Null
}

// Equal reports semantic equality of two values. Nil and empty bulk
// payloads compare equal; null-ness does not.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type || v.Null != o.Null {
		return false
	}
	switch v.Type {
	case SimpleString, Error:
		return v.Str == o.Str
	case Integer:
		return v.Int == o.Int
	case BulkString:
		return v.Null == o.Null && bytes.Equal(v.Bulk, o.Bulk)
	case Array:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

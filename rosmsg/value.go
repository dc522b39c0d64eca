// Package rosmsg defines the data model for decoded ROS topic messages:
// scalar values with Integer/Float/String typing, flat dotted-path records
// as produced by the echo parser, and the nested record tree delivered to
// stream consumers.
package rosmsg

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the concrete type held by a Value.
type Kind int

const (
	// KindInteger is a 64-bit signed integer scalar
	KindInteger Kind = iota
	// KindFloat is a 64-bit floating point scalar
	KindFloat
	// KindString is an uninterpreted text scalar
	KindString
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a scalar decoded from one token of echo output. It is a tagged
// union over int64, float64, and string; use Kind to discriminate.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Integer constructs an integer Value.
func Integer(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// Float constructs a floating point Value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// String constructs a string Value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Kind returns the concrete type of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Int returns the integer payload. Only meaningful when Kind is KindInteger.
func (v Value) Int() int64 {
	return v.i
}

// Float64 returns the float payload. Only meaningful when Kind is KindFloat.
func (v Value) Float64() float64 {
	return v.f
}

// Text returns the string payload. Only meaningful when Kind is KindString.
func (v Value) Text() string {
	return v.s
}

// Interface returns the payload as an untyped Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	default:
		return v.s
	}
}

// MarshalJSON encodes the value as a bare JSON number or string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Coerce converts a raw text token to a typed scalar. It is total: every
// token coerces to some Value. Tokens without a '.' or exponent marker are
// tried as integers first; numeric-looking tokens that fail both parses
// come back unchanged as strings.
func Coerce(token string) Value {
	if !strings.ContainsAny(token, ".eE") {
		if i, err := strconv.ParseInt(token, 10, 64); err == nil {
			return Integer(i)
		}
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return Float(f)
	}
	return String(token)
}

package graph

import (
	"fmt"
	"strconv"
	"time"
)

// Kind represents the type of an attribute value
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

// Value is a typed attribute value. Keeping the representation closed to
// four kinds keeps serialization deterministic across output formats.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// Attributes maps attribute names to typed values.
type Attributes map[string]Value

// Helper functions to create typed values
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind returns the value's kind tag.
func (v Value) Kind() Kind {
	return v.kind
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("value is not a string")
	}
	return v.s, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, fmt.Errorf("value is not an int")
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, fmt.Errorf("value is not a float")
	}
	return v.f, nil
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.b, nil
}

// Text returns the canonical textual form of the value, used by both the
// GraphML and CSV serializers.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// FromAny converts a database driver value into a typed Value. The second
// return is false for nil (SQL NULL), which callers must skip.
func FromAny(raw any) (Value, bool) {
	switch x := raw.(type) {
	case nil:
		return Value{}, false
	case string:
		return StringValue(x), true
	case []byte:
		return StringValue(string(x)), true
	case int64:
		return IntValue(x), true
	case int32:
		return IntValue(int64(x)), true
	case int16:
		return IntValue(int64(x)), true
	case int:
		return IntValue(int64(x)), true
	case float64:
		return FloatValue(x), true
	case float32:
		return FloatValue(float64(x)), true
	case bool:
		return BoolValue(x), true
	case time.Time:
		return StringValue(x.Format(time.RFC3339)), true
	default:
		return StringValue(fmt.Sprint(x)), true
	}
}

// ParseValue reconstructs a Value of the given kind from its canonical text.
func ParseValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindString:
		return StringValue(text), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse int value %q: %w", text, err)
		}
		return IntValue(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse float value %q: %w", text, err)
		}
		return FloatValue(f), nil
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("parse bool value %q: %w", text, err)
		}
		return BoolValue(b), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %d", kind)
	}
}

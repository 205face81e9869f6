package spanlog

import (
	"fmt"
	"strconv"
)

// FieldKind identifies the value variant a Field carries.
type FieldKind uint8

const (
	FieldString FieldKind = iota + 1
	FieldInt
	FieldFloat
	FieldBool
	FieldDebug // value pre-rendered with %+v
)

// Field is a single key-value attribute attached to an event or span.
// Fields are immutable once constructed.
type Field struct {
	Key  string
	Kind FieldKind
	str  string
	num  int64
	fnum float64
	b    bool
}

// String builds a string-valued field.
func String(key, value string) Field {
	return Field{Key: key, Kind: FieldString, str: value}
}

// Int builds an integer-valued field.
func Int(key string, value int) Field {
	return Int64(key, int64(value))
}

// Int64 builds an integer-valued field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Kind: FieldInt, num: value}
}

// Float builds a float-valued field.
func Float(key string, value float64) Field {
	return Field{Key: key, Kind: FieldFloat, fnum: value}
}

// Bool builds a boolean-valued field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Kind: FieldBool, b: value}
}

// Debug builds a field whose value is rendered with %+v at construction.
// Use it for arbitrary values that only need a diagnostic representation.
func Debug(key string, value any) Field {
	return Field{Key: key, Kind: FieldDebug, str: fmt.Sprintf("%+v", value)}
}

// Value returns the field's value as an untyped Go value, for formatters
// that serialize records.
func (f Field) Value() any {
	switch f.Kind {
	case FieldInt:
		return f.num
	case FieldFloat:
		return f.fnum
	case FieldBool:
		return f.b
	default:
		return f.str
	}
}

// render returns the value as text for the human-readable formatter.
func (f Field) render() string {
	switch f.Kind {
	case FieldInt:
		return strconv.FormatInt(f.num, 10)
	case FieldFloat:
		return strconv.FormatFloat(f.fnum, 'g', -1, 64)
	case FieldBool:
		return strconv.FormatBool(f.b)
	default:
		return f.str
	}
}

// Fields is an ordered field set. Insertion order is preserved so output is
// deterministic.
type Fields []Field

// clone returns an independent copy so records never share backing arrays
// with still-mutable span state.
func (f Fields) clone() Fields {
	if len(f) == 0 {
		return nil
	}
	out := make(Fields, len(f))
	copy(out, f)
	return out
}

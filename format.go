package spanlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"
)

// TextFormatter renders records as human-readable lines:
//
//	15:04:05.000 INFO  → request [http] method=GET
//
// Span opens are marked with →, closes with ← (annotated with the span
// duration), events with •. Levels are colorized unless disabled; file
// sinks strip the codes again.
type TextFormatter struct {
	colors map[Level]*color.Color
	plain  bool
}

// NewTextFormatter returns a formatter with colored levels.
func NewTextFormatter() *TextFormatter {
	mk := func(attr color.Attribute) *color.Color {
		c := color.New(attr)
		c.EnableColor()
		return c
	}
	return &TextFormatter{
		colors: map[Level]*color.Color{
			LevelTrace: mk(color.FgMagenta),
			LevelDebug: mk(color.FgCyan),
			LevelInfo:  mk(color.FgGreen),
			LevelWarn:  mk(color.FgYellow),
			LevelError: mk(color.FgRed),
		},
	}
}

// DisableColor turns off ANSI colors, e.g. when writing straight to a file.
func (f *TextFormatter) DisableColor() *TextFormatter {
	f.plain = true
	return f
}

// Format implements Formatter.
func (f *TextFormatter) Format(rec *Record) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString(rec.Time.UTC().Format("15:04:05.000"))
	sb.WriteByte(' ')

	level := fmt.Sprintf("%-5s", rec.Meta.Level)
	if c, ok := f.colors[rec.Meta.Level]; ok && !f.plain {
		level = c.Sprint(level)
	}
	sb.WriteString(level)
	sb.WriteByte(' ')

	switch rec.Kind {
	case KindSpanOpened:
		sb.WriteString("→ ")
	case KindSpanClosed:
		sb.WriteString("← ")
	default:
		sb.WriteString("• ")
	}

	sb.WriteString(rec.Meta.Name)
	if rec.Meta.Target != "" {
		sb.WriteString(" [")
		sb.WriteString(rec.Meta.Target)
		sb.WriteByte(']')
	}

	for _, fld := range rec.Fields {
		sb.WriteByte(' ')
		sb.WriteString(fld.Key)
		sb.WriteByte('=')
		sb.WriteString(fld.render())
	}

	if rec.Kind == KindSpanClosed {
		fmt.Fprintf(&sb, " (%s)", rec.Duration)
	}

	if rec.Meta.File != "" {
		fmt.Fprintf(&sb, " %s:%d", rec.Meta.File, rec.Meta.Line)
	}

	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}

// JSONFormatter renders records as line-delimited JSON. Field insertion
// order is preserved in the emitted object.
type JSONFormatter struct{}

// NewJSONFormatter returns an NDJSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format implements Formatter.
func (f *JSONFormatter) Format(rec *Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fmt.Fprintf(&buf, `"ts":%q`, rec.Time.UTC().Format("2006-01-02T15:04:05.000000Z07:00"))
	fmt.Fprintf(&buf, `,"seq":%d`, rec.Seq)
	fmt.Fprintf(&buf, `,"kind":%q`, rec.Kind)
	fmt.Fprintf(&buf, `,"level":%q`, rec.Meta.Level)
	fmt.Fprintf(&buf, `,"name":%q`, rec.Meta.Name)
	if rec.Meta.Target != "" {
		fmt.Fprintf(&buf, `,"target":%q`, rec.Meta.Target)
	}
	if rec.SpanID != 0 {
		fmt.Fprintf(&buf, `,"span_id":%d`, rec.SpanID)
	}
	if rec.ParentID != 0 {
		fmt.Fprintf(&buf, `,"parent_id":%d`, rec.ParentID)
	}
	if rec.Kind == KindSpanClosed {
		fmt.Fprintf(&buf, `,"duration_ns":%d`, rec.Duration.Nanoseconds())
	}
	if len(rec.Fields) > 0 {
		buf.WriteString(`,"fields":{`)
		for i, fld := range rec.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(fld.Key)
			if err != nil {
				return nil, fmt.Errorf("marshal field key: %w", err)
			}
			val, err := json.Marshal(fld.Value())
			if err != nil {
				return nil, fmt.Errorf("marshal field %q: %w", fld.Key, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// wireField is the msgpack shape of a Field.
type wireField struct {
	Key   string `msgpack:"k"`
	Value any    `msgpack:"v"`
}

// wireRecord is the msgpack shape of a Record.
type wireRecord struct {
	Kind       string      `msgpack:"kind"`
	Level      uint8       `msgpack:"level"`
	Seq        uint64      `msgpack:"seq"`
	SpanID     uint64      `msgpack:"span_id,omitempty"`
	ParentID   uint64      `msgpack:"parent_id,omitempty"`
	Name       string      `msgpack:"name"`
	Target     string      `msgpack:"target,omitempty"`
	TimeNs     int64       `msgpack:"time_ns"`
	DurationNs int64       `msgpack:"duration_ns,omitempty"`
	Fields     []wireField `msgpack:"fields,omitempty"`
}

// MsgpackFormatter renders records as msgpack, for sinks that ship to a
// remote collector.
type MsgpackFormatter struct{}

// NewMsgpackFormatter returns a msgpack formatter.
func NewMsgpackFormatter() *MsgpackFormatter {
	return &MsgpackFormatter{}
}

// Format implements Formatter.
func (f *MsgpackFormatter) Format(rec *Record) ([]byte, error) {
	w := wireRecord{
		Kind:     rec.Kind.String(),
		Level:    uint8(rec.Meta.Level),
		Seq:      rec.Seq,
		SpanID:   rec.SpanID,
		ParentID: rec.ParentID,
		Name:     rec.Meta.Name,
		Target:   rec.Meta.Target,
		TimeNs:   rec.Time.UnixNano(),
	}
	if rec.Kind == KindSpanClosed {
		w.DurationNs = rec.Duration.Nanoseconds()
	}
	if len(rec.Fields) > 0 {
		w.Fields = make([]wireField, len(rec.Fields))
		for i, fld := range rec.Fields {
			w.Fields[i] = wireField{Key: fld.Key, Value: fld.Value()}
		}
	}
	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

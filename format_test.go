package spanlog

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func sampleEvent() *Record {
	return &Record{
		Kind:     KindEvent,
		Meta:     NewMetadata(LevelInfo, "validated", "billing"),
		Seq:      7,
		ParentID: 3,
		Fields:   Fields{String("user", "u-1"), Int("rows", 10), Bool("ok", true)},
		Time:     time.Date(2026, 8, 26, 10, 30, 15, 123e6, time.UTC),
	}
}

func TestTextFormatterPlain(t *testing.T) {
	f := NewTextFormatter().DisableColor()
	out, err := f.Format(sampleEvent())
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	line := string(out)

	if !strings.HasPrefix(line, "10:30:15.123 INFO ") {
		t.Errorf("Expected timestamp and level prefix, got %q", line)
	}
	for _, want := range []string{"• validated", "[billing]", "user=u-1", "rows=10", "ok=true"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Errorf("Expected no ANSI codes with color disabled, got %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("Expected trailing newline")
	}

	// Field order must follow insertion order.
	if strings.Index(line, "user=") > strings.Index(line, "rows=") {
		t.Errorf("Expected user before rows, got %q", line)
	}
}

func TestTextFormatterColorAndMarkers(t *testing.T) {
	f := NewTextFormatter()
	rec := sampleEvent()
	out, err := f.Format(rec)
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	if !strings.Contains(string(out), "\x1b[") {
		t.Errorf("Expected ANSI colored level, got %q", out)
	}

	rec.Kind = KindSpanOpened
	rec.SpanID = 4
	out, _ = f.Format(rec)
	if !strings.Contains(string(out), "→") {
		t.Errorf("Expected open marker, got %q", out)
	}

	rec.Kind = KindSpanClosed
	rec.Start = rec.Time
	rec.End = rec.Time.Add(1500 * time.Microsecond)
	rec.Duration = 1500 * time.Microsecond
	out, _ = f.Format(rec)
	if !strings.Contains(string(out), "←") || !strings.Contains(string(out), "(1.5ms)") {
		t.Errorf("Expected close marker with duration, got %q", out)
	}
}

func TestTextFormatterCallerLocation(t *testing.T) {
	f := NewTextFormatter().DisableColor()
	rec := sampleEvent()
	rec.Meta.File = "billing/checkout.go"
	rec.Meta.Line = 42
	out, _ := f.Format(rec)
	if !strings.Contains(string(out), "billing/checkout.go:42") {
		t.Errorf("Expected caller location, got %q", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	f := NewJSONFormatter()
	out, err := f.Format(sampleEvent())
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	line := string(out)
	if !strings.HasSuffix(line, "\n") {
		t.Error("Expected newline-delimited output")
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, out)
	}
	if decoded["kind"] != "event" || decoded["name"] != "validated" || decoded["level"] != "INFO" {
		t.Errorf("Unexpected decoded record: %v", decoded)
	}
	if decoded["parent_id"] != float64(3) {
		t.Errorf("Expected parent_id 3, got %v", decoded["parent_id"])
	}
	fields, ok := decoded["fields"].(map[string]any)
	if !ok || fields["user"] != "u-1" || fields["rows"] != float64(10) || fields["ok"] != true {
		t.Errorf("Unexpected fields: %v", decoded["fields"])
	}

	// Key order in the rendered object follows field insertion order.
	if strings.Index(line, `"user"`) > strings.Index(line, `"rows"`) {
		t.Errorf("Expected user before rows in %q", line)
	}
}

func TestJSONFormatterSpanClosed(t *testing.T) {
	f := NewJSONFormatter()
	rec := sampleEvent()
	rec.Kind = KindSpanClosed
	rec.SpanID = 9
	rec.Duration = 2 * time.Millisecond
	out, err := f.Format(rec)
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded["kind"] != "span_close" || decoded["span_id"] != float64(9) {
		t.Errorf("Unexpected decoded record: %v", decoded)
	}
	if decoded["duration_ns"] != float64(2*time.Millisecond) {
		t.Errorf("Expected duration_ns, got %v", decoded["duration_ns"])
	}
}

func TestMsgpackFormatterRoundTrip(t *testing.T) {
	f := NewMsgpackFormatter()
	out, err := f.Format(sampleEvent())
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}

	var decoded wireRecord
	if err := msgpack.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if decoded.Kind != "event" || decoded.Name != "validated" || decoded.Target != "billing" {
		t.Errorf("Unexpected decoded record: %+v", decoded)
	}
	if decoded.Seq != 7 || decoded.ParentID != 3 {
		t.Errorf("Expected seq 7 parent 3, got %d/%d", decoded.Seq, decoded.ParentID)
	}
	if len(decoded.Fields) != 3 || decoded.Fields[0].Key != "user" {
		t.Errorf("Unexpected fields: %+v", decoded.Fields)
	}
}

package spanlog

import "time"

// RecordKind discriminates the variants passed down the dispatch chain.
type RecordKind uint8

const (
	KindEvent RecordKind = iota + 1
	KindSpanOpened
	KindSpanClosed
)

// String returns the wire name of the kind.
func (k RecordKind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindSpanOpened:
		return "span_open"
	case KindSpanClosed:
		return "span_close"
	default:
		return "unknown"
	}
}

// Record is an immutable unit handed to the dispatch chain: a point-in-time
// event, a span opening, or a span closing. Stages receive records by
// pointer but must not mutate them; enrichers return a copy instead.
type Record struct {
	Kind     RecordKind
	Meta     Metadata
	Seq      uint64 // pipeline-wide emission order
	SpanID   uint64 // 0 for events
	ParentID uint64 // 0 when emitted outside any span
	Fields   Fields
	Time     time.Time

	// Populated for KindSpanClosed only.
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

func newEventRecord(md Metadata, seq, parent uint64, fields Fields, now time.Time) *Record {
	return &Record{
		Kind:     KindEvent,
		Meta:     md,
		Seq:      seq,
		ParentID: parent,
		Fields:   fields.clone(),
		Time:     now,
	}
}

func newSpanOpenedRecord(md Metadata, seq, id, parent uint64, fields Fields, now time.Time) *Record {
	return &Record{
		Kind:     KindSpanOpened,
		Meta:     md,
		Seq:      seq,
		SpanID:   id,
		ParentID: parent,
		Fields:   fields.clone(),
		Time:     now,
	}
}

func newSpanClosedRecord(info closeInfo, seq, id uint64, now time.Time) *Record {
	return &Record{
		Kind:     KindSpanClosed,
		Meta:     info.md,
		Seq:      seq,
		SpanID:   id,
		ParentID: info.parent,
		Fields:   info.fields,
		Time:     now,
		Start:    info.start,
		End:      info.end,
		Duration: info.end.Sub(info.start),
	}
}

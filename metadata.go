package spanlog

import "runtime"

// Metadata describes a record's call site: severity, name, the component
// that produced it, and optionally the source location. A Metadata value is
// created once per call site and shared read-only by every record built
// there.
type Metadata struct {
	Level  Level
	Name   string
	Target string
	File   string
	Line   int
}

// MetadataOption customizes a Metadata value at construction.
type MetadataOption func(*Metadata)

// WithCaller captures the file and line of the call site that invokes it.
func WithCaller() MetadataOption {
	_, file, line, ok := runtime.Caller(1)
	return func(m *Metadata) {
		if ok {
			m.File = file
			m.Line = line
		}
	}
}

// NewMetadata builds an immutable call-site descriptor.
func NewMetadata(level Level, name, target string, opts ...MetadataOption) Metadata {
	m := Metadata{
		Level:  level,
		Name:   name,
		Target: target,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

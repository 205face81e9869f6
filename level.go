package spanlog

import "fmt"

// Level represents the severity of a record. Levels are ordered from
// LevelTrace (lowest) to LevelError (highest); LevelOff disables emission.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level. Lower, upper, and title case are
// recognized, and "warning" is accepted as an alias for "warn".
func ParseLevel(s string) (Level, error) {
	switch s {
	case "trace", "TRACE", "Trace":
		return LevelTrace, nil
	case "debug", "DEBUG", "Debug":
		return LevelDebug, nil
	case "info", "INFO", "Info":
		return LevelInfo, nil
	case "warn", "WARN", "Warn", "warning", "WARNING", "Warning":
		return LevelWarn, nil
	case "error", "ERROR", "Error":
		return LevelError, nil
	case "off", "OFF", "Off":
		return LevelOff, nil
	default:
		return LevelOff, fmt.Errorf("invalid level: %q (expected: trace|debug|info|warn|error|off)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so levels can be read
// from TOML configuration.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// enabled reports whether a record at this level passes the min-level gate.
func (l Level) enabled(min Level) bool {
	return l >= min && l < LevelOff && min < LevelOff
}

package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// Parser defines the interface for entry parsers
type Parser interface {
	// Parse turns one raw line of ref into a normalized entry. Lines that
	// cannot become an entry are reported as *ParseError.
	Parse(line string, ref types.LogFileRef, lineNo int) (*types.LogEntry, error)

	// Name returns the parser name
	Name() string
}

// ErrorKind classifies why a line produced no entry
type ErrorKind int

const (
	// ErrBlank marks an empty or whitespace-only line
	ErrBlank ErrorKind = iota
	// ErrMalformed marks a line that is not a well-formed JSON object
	ErrMalformed
	// ErrFiltered marks a record rejected by the record filter
	ErrFiltered
)

func (k ErrorKind) String() string {
	switch k {
	case ErrBlank:
		return "blank"
	case ErrMalformed:
		return "malformed"
	case ErrFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}

// ParseError is returned for a line that yields no entry
type ParseError struct {
	Kind ErrorKind
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%d: %s line: %v", e.File, e.Line, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s line", e.File, e.Line, e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseTimestamp attempts to parse a timestamp from a string using multiple formats.
// Values without a zone are taken as UTC.
func ParseTimestamp(ts string, formats ...string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if len(formats) == 0 {
		formats = DefaultTimeFormats()
	}

	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp: %s", ts)
}

// DefaultTimeFormats returns the ISO 8601 variants written by the agents.
// Fractional seconds are accepted by time.Parse without being in the layout.
func DefaultTimeFormats() []string {
	return []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
}

// NormalizeLevel maps level strings onto INFO, WARN, ERROR or DEBUG.
// Absent and unrecognized levels become INFO.
func NormalizeLevel(level string) types.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		return types.LevelDebug
	case "WARN", "WARNING":
		return types.LevelWarn
	case "ERROR", "ERR", "FATAL", "CRITICAL", "PANIC":
		return types.LevelError
	default:
		return types.LevelInfo
	}
}

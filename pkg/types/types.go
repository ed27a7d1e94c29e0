package types

import "time"

// Compression identifies how a log file is stored on disk
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionGzip   Compression = "gzip"
	CompressionSnappy Compression = "snappy"
)

// LogFileRef identifies one physical log file written by a producer
type LogFileRef struct {
	Path           string      `json:"path"`
	ConversationID string      `json:"conversation_id"`
	Producer       string      `json:"producer"`
	ModTime        time.Time   `json:"mod_time"` // discovery ordering only
	Size           int64       `json:"size"`
	Compression    Compression `json:"compression"`
}

// Level is the normalized severity of an entry
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// EventKind tags the payload variant carried by a LogEntry
type EventKind int

const (
	KindPlainMessage EventKind = iota
	KindModelQuery
)

func (k EventKind) String() string {
	switch k {
	case KindModelQuery:
		return "model_query"
	default:
		return "plain_message"
	}
}

// PlainMessage is a free-text event
type PlainMessage struct {
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
}

// ModelQuery is a prompt/response exchange with a model
type ModelQuery struct {
	Model       string `json:"model,omitempty"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
	HasDuration bool   `json:"-"`
	Prompt      string `json:"prompt"`
	Response    string `json:"response"`
}

// LogEntry represents one normalized event read from a log file.
// Exactly one of Plain and Query is set, as indicated by Kind.
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	HasTimestamp bool          `json:"has_timestamp"`
	RawTimestamp string        `json:"raw_timestamp,omitempty"`
	Producer     string        `json:"producer"`
	Level        Level         `json:"level"`
	Kind         EventKind     `json:"kind"`
	Plain        *PlainMessage `json:"plain,omitempty"`
	Query        *ModelQuery   `json:"query,omitempty"`
	SourceFile   string        `json:"source_file"`
	Line         int           `json:"line"`
}

// ConversationSummary describes one conversation observed in the store
type ConversationSummary struct {
	ID             string    `json:"id"`
	LatestActivity time.Time `json:"latest_activity"`
	FileCount      int       `json:"file_count"`
}

// ParserStats tracks how the lines of one read were handled
type ParserStats struct {
	Parsed    int64 `json:"parsed"`
	Blank     int64 `json:"blank"`
	Malformed int64 `json:"malformed"`
	Filtered  int64 `json:"filtered"`
}

package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// Record is one decoded log line. Numbers are kept as json.Number.
type Record map[string]interface{}

// Field names recognized in agent records
var (
	promptFields   = []string{"prompt", "input_messages"}
	responseFields = []string{"response", "output_response"}
	modelFields    = []string{"model", "model_name"}
	durationFields = []string{"duration_ms", "latency_ms"}
)

const (
	// markerType and markerSource flag a model query written without
	// the prompt/response pair
	markerType   = "log"
	markerSource = "LLM"
)

// JSONParser parses JSON-line agent records
type JSONParser struct {
	filter *Filter
}

// NewJSONParser creates a new JSON parser
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// WithFilter drops records the filter does not keep. Dropped lines are
// reported as *ParseError with Kind ErrFiltered.
func (p *JSONParser) WithFilter(f *Filter) *JSONParser {
	p.filter = f
	return p
}

// Name returns the parser name
func (p *JSONParser) Name() string {
	return "json"
}

// Parse decodes and classifies one line
func (p *JSONParser) Parse(line string, ref types.LogFileRef, lineNo int) (*types.LogEntry, error) {
	rec, err := Decode(line)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.File = filepath.Base(ref.Path)
			perr.Line = lineNo
		}
		return nil, err
	}

	if p.filter != nil {
		keep, err := p.filter.Match(rec)
		if !keep {
			return nil, &ParseError{Kind: ErrFiltered, File: filepath.Base(ref.Path), Line: lineNo, Err: err}
		}
	}

	return Classify(rec, ref, lineNo), nil
}

// Decode parses a line into a Record. It fails with *ParseError for blank
// lines and for anything other than a single JSON object.
func Decode(line string) (Record, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, &ParseError{Kind: ErrBlank}
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, &ParseError{Kind: ErrMalformed, Err: err}
	}
	if rec == nil {
		return nil, &ParseError{Kind: ErrMalformed, Err: fmt.Errorf("record is null")}
	}
	if len(rec) == 0 {
		return nil, &ParseError{Kind: ErrMalformed, Err: fmt.Errorf("record is empty")}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Kind: ErrMalformed, Err: fmt.Errorf("trailing data after record")}
	}

	return rec, nil
}

// Classify builds the entry for a decoded record. The event kind is decided
// here once; later stages only look at Kind.
func Classify(rec Record, ref types.LogFileRef, lineNo int) *types.LogEntry {
	entry := &types.LogEntry{
		Producer:   ref.Producer,
		Level:      NormalizeLevel(rec.text("level")),
		SourceFile: filepath.Base(ref.Path),
		Line:       lineNo,
	}

	if name := rec.text("agent_name"); name != "" {
		entry.Producer = name
	}

	entry.RawTimestamp = rec.text("timestamp")
	if ts, err := ParseTimestamp(entry.RawTimestamp); err == nil {
		entry.Timestamp = ts
		entry.HasTimestamp = true
	}

	if rec.isModelQuery() {
		entry.Kind = types.KindModelQuery
		q := &types.ModelQuery{
			Model:    rec.first(modelFields),
			Prompt:   rec.first(promptFields),
			Response: rec.first(responseFields),
		}
		q.DurationMs, q.HasDuration = rec.duration()
		entry.Query = q
		return entry
	}

	entry.Kind = types.KindPlainMessage
	entry.Plain = &types.PlainMessage{
		Source:  rec.text("source"),
		Message: rec.text("message"),
	}
	return entry
}

func (r Record) has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

func (r Record) hasAny(keys []string) bool {
	for _, k := range keys {
		if r.has(k) {
			return true
		}
	}
	return false
}

func (r Record) isModelQuery() bool {
	if r.hasAny(promptFields) && r.hasAny(responseFields) {
		return true
	}
	return r.text("type") == markerType && r.text("source") == markerSource
}

// text renders a field as display text. Non-string values are written as
// compact JSON.
func (r Record) text(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

func (r Record) first(keys []string) string {
	for _, k := range keys {
		if s := r.text(k); s != "" {
			return s
		}
	}
	return ""
}

func (r Record) duration() (int64, bool) {
	for _, k := range durationFields {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case json.Number:
			if n, err := val.Int64(); err == nil {
				return n, true
			}
			if f, err := val.Float64(); err == nil {
				return int64(math.Round(f)), true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return int64(math.Round(f)), true
			}
		}
	}
	return 0, false
}

package store

import (
	"errors"
	"regexp"
	"strings"

	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// Separator joins the conversation id and the producer name in a file name
const Separator = "_"

// ErrNameMismatch is returned when a file name does not follow the
// {conversationId}{sep}{producer}{ext} grammar
var ErrNameMismatch = errors.New("file name does not match log file grammar")

var (
	conversationIDPrefix = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	conversationIDExact  = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type extension struct {
	suffix      string
	compression types.Compression
}

// Longest suffix first so ".jsonl.gz" is not mistaken for a bare stem.
var extensions = []extension{
	{".jsonl.gz", types.CompressionGzip},
	{".jsonl.sz", types.CompressionSnappy},
	{".jsonl", types.CompressionNone},
}

// logFilePattern selects every candidate file in a store directory
const logFilePattern = "*.{jsonl,jsonl.gz,jsonl.sz}"

// FileName is the structured form of a log file name
type FileName struct {
	ConversationID string
	Producer       string // empty for a consolidated {uuid}{ext} stream
	Ext            string
	Compression    types.Compression
}

// IsConversationID reports whether s is a canonical lowercase UUID
func IsConversationID(s string) bool {
	return conversationIDExact.MatchString(s)
}

func splitExt(name string) (string, extension, bool) {
	for _, ext := range extensions {
		if stem, ok := strings.CutSuffix(name, ext.suffix); ok && stem != "" {
			return stem, ext, true
		}
	}
	return "", extension{}, false
}

// ParseName parses a name of the form {uuid}[{sep}{producer}]{ext}, where the
// uuid is in canonical hyphenated form.
func ParseName(name string) (FileName, error) {
	stem, ext, ok := splitExt(name)
	if !ok {
		return FileName{}, ErrNameMismatch
	}

	id := conversationIDPrefix.FindString(stem)
	if id == "" {
		return FileName{}, ErrNameMismatch
	}

	fn := FileName{ConversationID: id, Ext: ext.suffix, Compression: ext.compression}

	rest := stem[len(id):]
	if rest == "" {
		return fn, nil
	}

	producer, ok := strings.CutPrefix(rest, Separator)
	if !ok || producer == "" {
		return FileName{}, ErrNameMismatch
	}
	fn.Producer = producer
	return fn, nil
}

// MatchConversation parses name against a known conversation id. Any id is
// accepted here, canonical or not; the producer part must be non-empty.
func MatchConversation(name, conversationID string) (FileName, error) {
	if conversationID == "" {
		return FileName{}, ErrNameMismatch
	}

	stem, ext, ok := splitExt(name)
	if !ok {
		return FileName{}, ErrNameMismatch
	}

	producer, ok := strings.CutPrefix(stem, conversationID+Separator)
	if !ok || producer == "" {
		return FileName{}, ErrNameMismatch
	}

	return FileName{
		ConversationID: conversationID,
		Producer:       producer,
		Ext:            ext.suffix,
		Compression:    ext.compression,
	}, nil
}

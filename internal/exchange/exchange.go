// Package exchange reads the consolidated per-conversation exchange logs
// ({uuid}.jsonl) and summarizes them.
package exchange

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/convlog/internal/logging"
	"github.com/therealutkarshpriyadarshi/convlog/internal/reader"
	"github.com/therealutkarshpriyadarshi/convlog/internal/store"
	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// Text is a field that is usually a string but may hold any JSON value.
// Non-string values are kept as compact JSON.
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*t = Text(buf.String())
	return nil
}

// Exchange is one model call recorded in a consolidated log
type Exchange struct {
	ID              string  `json:"id"`
	ConversationID  string  `json:"conversation_id"`
	PromptVersionID string  `json:"prompt_version_id"`
	ModelName       string  `json:"model_name"`
	LatencyMs       float64 `json:"latency_ms"`
	InputTokens     float64 `json:"input_tokens"`
	OutputTokens    float64 `json:"output_tokens"`
	InputMessages   Text    `json:"input_messages"`
	OutputResponse  Text    `json:"output_response"`
	Error           Text    `json:"error"`
	Timestamp       string  `json:"timestamp"`
}

// Failed reports whether the exchange recorded an error
func (e Exchange) Failed() bool {
	return e.Error != ""
}

// FileInfo describes one consolidated log file
type FileInfo struct {
	ConversationID string
	Exchanges      int
	Size           int64
	ModTime        time.Time
}

// Store reads exchanges from a conversation log directory
type Store struct {
	locator *store.Locator
	logger  *logging.Logger
}

// NewStore creates a store over dir
func NewStore(dir string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{
		locator: store.NewLocator(dir),
		logger:  logger.WithComponent("exchange"),
	}
}

// Dir returns the conversation log directory
func (s *Store) Dir() string {
	return s.locator.Dir()
}

// LoadAll reads every exchange in the store. A missing directory holds no
// exchanges.
func (s *Store) LoadAll() ([]Exchange, error) {
	refs, err := s.locator.Streams()
	if err != nil {
		if errors.Is(err, store.ErrStoreNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var all []Exchange
	for _, ref := range refs {
		exs, err := s.read(ref)
		if err != nil {
			s.logger.Error().Err(err).Str("path", ref.Path).Msg("Skipping unreadable exchange log")
			continue
		}
		all = append(all, exs...)
	}
	return all, nil
}

// LoadConversation reads the exchanges of one conversation ordered by
// timestamp. An unknown conversation has no exchanges.
func (s *Store) LoadConversation(conversationID string) ([]Exchange, error) {
	ref, err := s.locator.Stream(conversationID)
	if err != nil {
		if errors.Is(err, store.ErrStoreNotFound) || errors.Is(err, store.ErrConversationNotFound) {
			return nil, nil
		}
		return nil, err
	}

	exs, err := s.read(ref)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(exs, func(i, j int) bool {
		return exs[i].Timestamp < exs[j].Timestamp
	})
	return exs, nil
}

// Files lists the consolidated logs, most recently modified first
func (s *Store) Files() ([]FileInfo, error) {
	refs, err := s.locator.Streams()
	if err != nil {
		return nil, err
	}

	infos := make([]FileInfo, 0, len(refs))
	for _, ref := range refs {
		count, err := countRecords(ref)
		if err != nil {
			s.logger.Error().Err(err).Str("path", ref.Path).Msg("Failed to count exchanges")
		}
		infos = append(infos, FileInfo{
			ConversationID: ref.ConversationID,
			Exchanges:      count,
			Size:           ref.Size,
			ModTime:        ref.ModTime,
		})
	}
	return infos, nil
}

func (s *Store) read(ref types.LogFileRef) ([]Exchange, error) {
	rc, err := reader.Open(ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var exs []Exchange
	err = eachLine(rc, func(line string, lineNo int) {
		var ex Exchange
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			s.logger.Debug().Err(err).Str("path", ref.Path).Int("line", lineNo).Msg("Skipping malformed exchange")
			return
		}
		exs = append(exs, ex)
	})
	return exs, err
}

func countRecords(ref types.LogFileRef) (int, error) {
	rc, err := reader.Open(ref)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	count := 0
	err = eachLine(rc, func(string, int) { count++ })
	return count, err
}

// eachLine calls fn for every non-blank line
func eachLine(r io.Reader, fn func(line string, lineNo int)) error {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			lineNo++
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				fn(trimmed, lineNo)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}
}

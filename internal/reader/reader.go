// Package reader reads located log files to completion and turns their
// lines into entries. A file that cannot be read is reported and skipped;
// the remaining files are still read.
package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/therealutkarshpriyadarshi/convlog/internal/logging"
	"github.com/therealutkarshpriyadarshi/convlog/internal/metrics"
	"github.com/therealutkarshpriyadarshi/convlog/internal/parser"
	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// FileError reports a file that failed to open or read
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Options configures a read
type Options struct {
	Parser  parser.Parser
	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// Result holds the entries of every file, in the order the files were given
type Result struct {
	PerFile  [][]types.LogEntry
	Failures []FileError
	Stats    types.ParserStats
}

// Entries returns the total number of entries read
func (r *Result) Entries() int {
	n := 0
	for _, entries := range r.PerFile {
		n += len(entries)
	}
	return n
}

// ReadAll reads every file in order. PerFile has one slice per ref; a
// failed file keeps whatever entries were read before the failure.
func ReadAll(refs []types.LogFileRef, opts Options) *Result {
	if opts.Parser == nil {
		opts.Parser = parser.NewJSONParser()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	logger := opts.Logger.WithComponent("reader")

	result := &Result{PerFile: make([][]types.LogEntry, 0, len(refs))}
	for _, ref := range refs {
		fileLogger := logger.WithField("path", ref.Path)

		start := time.Now()
		entries, err := readFile(ref, opts, &result.Stats, fileLogger)
		opts.Metrics.RecordFileRead(string(ref.Compression), time.Since(start), err)

		// Failures are returned to the caller, which reports them
		if err != nil {
			fileLogger.Debug().Err(err).Int("entries_kept", len(entries)).Msg("Skipping unreadable file")
			result.Failures = append(result.Failures, FileError{Path: ref.Path, Err: err})
		} else {
			fileLogger.Debug().Int("entries", len(entries)).Msg("File read")
		}
		result.PerFile = append(result.PerFile, entries)
	}

	return result
}

// ReadFile reads a single file with default options
func ReadFile(ref types.LogFileRef) ([]types.LogEntry, error) {
	var stats types.ParserStats
	return readFile(ref, Options{Parser: parser.NewJSONParser()}, &stats, logging.Nop())
}

func readFile(ref types.LogFileRef, opts Options, stats *types.ParserStats, logger *logging.Logger) ([]types.LogEntry, error) {
	rc, err := Open(ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var entries []types.LogEntry
	reader := bufio.NewReader(rc)
	lineNo := 0

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			lineNo++
			if entry := parseLine(line, ref, lineNo, opts, stats, logger); entry != nil {
				entries = append(entries, *entry)
			}
		}
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}
}

func parseLine(line string, ref types.LogFileRef, lineNo int, opts Options, stats *types.ParserStats, logger *logging.Logger) *types.LogEntry {
	entry, err := opts.Parser.Parse(line, ref, lineNo)
	if err == nil {
		stats.Parsed++
		opts.Metrics.RecordLine(metrics.OutcomeParsed)
		opts.Metrics.RecordEntry(entry.Kind.String())
		return entry
	}

	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		stats.Malformed++
		opts.Metrics.RecordLine(metrics.OutcomeMalformed)
		logger.Debug().Err(err).Int("line", lineNo).Msg("Skipping line")
		return nil
	}

	switch perr.Kind {
	case parser.ErrBlank:
		stats.Blank++
		opts.Metrics.RecordLine(metrics.OutcomeBlank)
	case parser.ErrFiltered:
		stats.Filtered++
		opts.Metrics.RecordLine(metrics.OutcomeFiltered)
		if perr.Err != nil {
			logger.Debug().Err(perr.Err).Int("line", lineNo).Msg("Filter failed on record")
		}
	default:
		stats.Malformed++
		opts.Metrics.RecordLine(metrics.OutcomeMalformed)
		logger.Debug().Err(perr).Msg("Skipping malformed line")
	}
	return nil
}

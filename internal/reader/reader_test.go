package reader

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/snappy"

	"github.com/therealutkarshpriyadarshi/convlog/internal/logging"
	"github.com/therealutkarshpriyadarshi/convlog/internal/metrics"
	"github.com/therealutkarshpriyadarshi/convlog/internal/parser"
	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

const sampleLog = `{"timestamp":"2024-01-15T10:30:00Z","message":"first"}

this is not json
{"timestamp":"2024-01-15T10:30:02Z","prompt":"p","response":"r","model":"m"}
{"timestamp":"2024-01-15T10:30:03Z","message":"last, no newline"}`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(data)); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}
	return buf.Bytes()
}

func snappyBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	if _, err := w.Write([]byte(data)); err != nil {
		t.Fatalf("snappy write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("snappy close failed: %v", err)
	}
	return buf.Bytes()
}

func TestReadAllCompressions(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		file        string
		data        []byte
		compression types.Compression
	}{
		{"plain", "a_pre.jsonl", []byte(sampleLog), types.CompressionNone},
		{"gzip", "a_pre.jsonl.gz", gzipBytes(t, sampleLog), types.CompressionGzip},
		{"snappy", "a_pre.jsonl.sz", snappyBytes(t, sampleLog), types.CompressionSnappy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.data)
			ref := types.LogFileRef{Path: path, Producer: "pre", Compression: tt.compression}

			result := ReadAll([]types.LogFileRef{ref}, Options{})
			if len(result.Failures) != 0 {
				t.Fatalf("Unexpected failures: %v", result.Failures)
			}
			if len(result.PerFile) != 1 {
				t.Fatalf("Expected 1 file result, got %d", len(result.PerFile))
			}

			entries := result.PerFile[0]
			if len(entries) != 3 {
				t.Fatalf("Expected 3 entries, got %d", len(entries))
			}
			if entries[0].Plain.Message != "first" || entries[0].Line != 1 {
				t.Errorf("Unexpected first entry %+v", entries[0])
			}
			if entries[1].Kind != types.KindModelQuery || entries[1].Line != 4 {
				t.Errorf("Expected model query on line 4, got %+v", entries[1])
			}
			if entries[2].Plain.Message != "last, no newline" {
				t.Errorf("Final line without newline was not read: %+v", entries[2])
			}

			want := types.ParserStats{Parsed: 3, Blank: 1, Malformed: 1}
			if result.Stats != want {
				t.Errorf("Stats = %+v, want %+v", result.Stats, want)
			}
		})
	}
}

func TestReadAllSkipsFailedFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a_pre.jsonl", []byte(`{"message":"ok"}`+"\n"))
	corrupt := writeFile(t, dir, "a_code.jsonl.gz", []byte("definitely not gzip"))

	refs := []types.LogFileRef{
		{Path: filepath.Join(dir, "a_missing.jsonl"), Producer: "missing"},
		{Path: corrupt, Producer: "code", Compression: types.CompressionGzip},
		{Path: good, Producer: "pre"},
	}

	collector := metrics.NewCollector()
	result := ReadAll(refs, Options{Metrics: collector})

	if len(result.Failures) != 2 {
		t.Fatalf("Expected 2 failures, got %d: %v", len(result.Failures), result.Failures)
	}
	if !errors.Is(result.Failures[0].Err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", result.Failures[0].Err)
	}
	if result.Failures[1].Path != corrupt {
		t.Errorf("Expected corrupt file failure, got %s", result.Failures[1].Path)
	}

	if len(result.PerFile) != 3 {
		t.Fatalf("Expected one slot per file, got %d", len(result.PerFile))
	}
	if len(result.PerFile[2]) != 1 || result.PerFile[2][0].Plain.Message != "ok" {
		t.Errorf("Readable file should still be read, got %+v", result.PerFile[2])
	}
	if result.Entries() != 1 {
		t.Errorf("Entries() = %d, want 1", result.Entries())
	}
}

func TestReadAllFailureLogging(t *testing.T) {
	dir := t.TempDir()
	corrupt := writeFile(t, dir, "a_code.jsonl.gz", []byte("definitely not gzip"))
	refs := []types.LogFileRef{{Path: corrupt, Producer: "code", Compression: types.CompressionGzip}}

	var warn bytes.Buffer
	result := ReadAll(refs, Options{Logger: logging.New(logging.Config{Level: "warn", Format: "json", Output: &warn})})
	if len(result.Failures) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(result.Failures))
	}
	if warn.Len() != 0 {
		t.Errorf("Failures are reported by the caller, nothing should be logged at warn: %s", warn.String())
	}

	var debug bytes.Buffer
	ReadAll(refs, Options{Logger: logging.New(logging.Config{Level: "debug", Format: "json", Output: &debug})})
	out := debug.String()
	if !strings.Contains(out, "Skipping unreadable file") {
		t.Errorf("Expected skip message at debug, got %s", out)
	}
	if !strings.Contains(out, `"path":"`+corrupt+`"`) {
		t.Errorf("Expected path field in %s", out)
	}
}

func TestReadAllKeepsFileOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "x_a.jsonl", []byte(`{"message":"from a"}`))
	b := writeFile(t, dir, "x_b.jsonl", []byte(`{"message":"from b"}`))

	result := ReadAll([]types.LogFileRef{
		{Path: b, Producer: "b"},
		{Path: a, Producer: "a"},
	}, Options{})

	if result.PerFile[0][0].Producer != "b" || result.PerFile[1][0].Producer != "a" {
		t.Errorf("Expected results in input order, got %+v", result.PerFile)
	}
}

func TestReadAllWithFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a_pre.jsonl", []byte(
		`{"level":"ERROR","message":"bad"}`+"\n"+
			`{"level":"INFO","message":"fine"}`+"\n"+
			`{"level":"ERROR","message":"worse"}`+"\n"))

	f, err := parser.NewFilter(`.level == "ERROR"`)
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}

	result := ReadAll([]types.LogFileRef{{Path: path, Producer: "pre"}}, Options{
		Parser: parser.NewJSONParser().WithFilter(f),
	})

	entries := result.PerFile[0]
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Plain.Message != "bad" || entries[1].Plain.Message != "worse" {
		t.Errorf("Unexpected entries %+v", entries)
	}
	if result.Stats.Filtered != 1 {
		t.Errorf("Filtered = %d, want 1", result.Stats.Filtered)
	}
}

func TestReadFileLongLine(t *testing.T) {
	dir := t.TempDir()
	long := bytes.Repeat([]byte("x"), 200*1024)
	data := append([]byte(`{"message":"`), long...)
	data = append(data, []byte(`"}`+"\n")...)
	path := writeFile(t, dir, "a_pre.jsonl", data)

	entries, err := ReadFile(types.LogFileRef{Path: path, Producer: "pre"})
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Plain.Message) != len(long) {
		t.Errorf("Expected one entry with the full message")
	}
}

func TestOpenUnsupportedCompression(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a_pre.jsonl.lz4", []byte("x"))

	if _, err := Open(types.LogFileRef{Path: path, Compression: "lz4"}); err == nil {
		t.Error("Expected error for unsupported compression")
	}
}

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}

	if c.registry == nil {
		t.Error("registry is nil")
	}

	if c.FilesRead == nil || c.LinesProcessed == nil || c.EntriesMerged == nil {
		t.Error("collector has nil metrics")
	}
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	a.RecordLine(OutcomeParsed)

	if got := counterValue(t, b.LinesProcessed.WithLabelValues(OutcomeParsed)); got != 0 {
		t.Errorf("Expected 0 on second collector, got %f", got)
	}
}

func TestRecordFileRead(t *testing.T) {
	c := NewCollector()

	c.RecordFileRead("gzip", 2*time.Millisecond, nil)
	c.RecordFileRead("gzip", time.Millisecond, nil)
	c.RecordFileRead("none", time.Millisecond, errors.New("permission denied"))

	if got := counterValue(t, c.FilesRead.WithLabelValues("gzip")); got != 2 {
		t.Errorf("Expected 2 gzip reads, got %f", got)
	}
	if got := counterValue(t, c.FileReadFailures.WithLabelValues("none")); got != 1 {
		t.Errorf("Expected 1 failure, got %f", got)
	}

	metric := &dto.Metric{}
	if err := c.FileReadDuration.WithLabelValues("gzip").(prometheus.Histogram).Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("Expected 2 samples, got %d", metric.Histogram.GetSampleCount())
	}
}

func TestRecordLinesAndEntries(t *testing.T) {
	c := NewCollector()

	for i := 0; i < 3; i++ {
		c.RecordLine(OutcomeParsed)
	}
	c.RecordLine(OutcomeMalformed)
	c.RecordEntry("model_query")
	c.RecordMerge(10, 2)

	if got := counterValue(t, c.LinesProcessed.WithLabelValues(OutcomeParsed)); got != 3 {
		t.Errorf("Expected 3 parsed, got %f", got)
	}
	if got := counterValue(t, c.LinesProcessed.WithLabelValues(OutcomeMalformed)); got != 1 {
		t.Errorf("Expected 1 malformed, got %f", got)
	}
	if got := counterValue(t, c.EntriesByKind.WithLabelValues("model_query")); got != 1 {
		t.Errorf("Expected 1 model query, got %f", got)
	}
	if got := counterValue(t, c.EntriesMerged); got != 10 {
		t.Errorf("Expected 10 merged, got %f", got)
	}
	if got := counterValue(t, c.UntimedEntries); got != 2 {
		t.Errorf("Expected 2 untimed, got %f", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordLine(OutcomeBlank)
	c.RecordEntry("plain_message")
	c.RecordFileRead("none", time.Millisecond, nil)
	c.RecordMerge(1, 0)
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.RecordLine(OutcomeParsed)

	path := filepath.Join(t.TempDir(), "convlog.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("Failed to write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `convlog_parser_lines_total{outcome="parsed"} 1`) {
		t.Errorf("Textfile missing parsed counter:\n%s", data)
	}
}

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const namespace = "convlog"

// Line outcomes recorded by LinesProcessed
const (
	OutcomeParsed    = "parsed"
	OutcomeBlank     = "blank"
	OutcomeMalformed = "malformed"
	OutcomeFiltered  = "filtered"
)

// Collector holds the counters of one invocation
type Collector struct {
	// Reader metrics
	FilesRead        *prometheus.CounterVec
	FileReadFailures *prometheus.CounterVec
	FileReadDuration *prometheus.HistogramVec

	// Parser metrics
	LinesProcessed *prometheus.CounterVec
	EntriesByKind  *prometheus.CounterVec

	// Timeline metrics
	EntriesMerged  prometheus.Counter
	UntimedEntries prometheus.Counter

	registry *prometheus.Registry
}

// NewCollector creates a new metrics collector on a private registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		FilesRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reader",
				Name:      "files_read_total",
				Help:      "Total number of log files read to completion",
			},
			[]string{"compression"},
		),
		FileReadFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reader",
				Name:      "file_failures_total",
				Help:      "Total number of log files skipped after a read failure",
			},
			[]string{"compression"},
		),
		FileReadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "reader",
				Name:      "file_read_duration_seconds",
				Help:      "Time spent reading and parsing one log file",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"compression"},
		),
		LinesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parser",
				Name:      "lines_total",
				Help:      "Total number of lines by outcome",
			},
			[]string{"outcome"},
		),
		EntriesByKind: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parser",
				Name:      "entries_total",
				Help:      "Total number of entries by event kind",
			},
			[]string{"kind"},
		),
		EntriesMerged: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "timeline",
				Name:      "entries_merged_total",
				Help:      "Total number of entries placed on a merged timeline",
			},
		),
		UntimedEntries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "timeline",
				Name:      "untimed_entries_total",
				Help:      "Entries without a parseable timestamp",
			},
		),
		registry: registry,
	}
}

// RecordFileRead records a completed or failed file read
func (c *Collector) RecordFileRead(compression string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.FileReadFailures.WithLabelValues(compression).Inc()
	} else {
		c.FilesRead.WithLabelValues(compression).Inc()
	}
	c.FileReadDuration.WithLabelValues(compression).Observe(elapsed.Seconds())
}

// RecordLine records the outcome of one line
func (c *Collector) RecordLine(outcome string) {
	if c == nil {
		return
	}
	c.LinesProcessed.WithLabelValues(outcome).Inc()
}

// RecordEntry records one classified entry
func (c *Collector) RecordEntry(kind string) {
	if c == nil {
		return
	}
	c.EntriesByKind.WithLabelValues(kind).Inc()
}

// RecordMerge records the size of a merged timeline
func (c *Collector) RecordMerge(total, untimed int) {
	if c == nil {
		return
	}
	c.EntriesMerged.Add(float64(total))
	c.UntimedEntries.Add(float64(untimed))
}

// WriteTextfile writes every metric in text exposition format, for pickup
// by node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

package timeline

import (
	"sort"

	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// Timeline is a merged, time-ordered sequence of entries
type Timeline []types.LogEntry

// Conversation is one conversation with its files and merged timeline
type Conversation struct {
	ID       string
	Files    []types.LogFileRef
	Timeline Timeline
}

// Merge combines per-file entry sequences into one timeline ordered by
// ascending timestamp. Entries without a timestamp sort before every timed
// entry. Equal keys keep their input order, so lines of one file stay in
// on-disk order and ties across files follow the order of perFile.
func Merge(perFile [][]types.LogEntry) Timeline {
	total := 0
	for _, entries := range perFile {
		total += len(entries)
	}

	merged := make(Timeline, 0, total)
	for _, entries := range perFile {
		merged = append(merged, entries...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return before(merged[i], merged[j])
	})
	return merged
}

func before(a, b types.LogEntry) bool {
	if !a.HasTimestamp {
		return b.HasTimestamp
	}
	if !b.HasTimestamp {
		return false
	}
	return a.Timestamp.Before(b.Timestamp)
}

// Assemble builds a Conversation from located files and their timeline
func Assemble(id string, files []types.LogFileRef, tl Timeline) *Conversation {
	return &Conversation{ID: id, Files: files, Timeline: tl}
}

// Agents lists the producers of the conversation's files in locator order
func (c *Conversation) Agents() []string {
	seen := make(map[string]bool, len(c.Files))
	agents := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		if seen[f.Producer] {
			continue
		}
		seen[f.Producer] = true
		agents = append(agents, f.Producer)
	}
	return agents
}

// ModelQueries counts the model query entries
func (t Timeline) ModelQueries() int {
	n := 0
	for _, e := range t {
		if e.Kind == types.KindModelQuery {
			n++
		}
	}
	return n
}

// Untimed counts entries without a parseable timestamp
func (t Timeline) Untimed() int {
	n := 0
	for _, e := range t {
		if !e.HasTimestamp {
			n++
		}
	}
	return n
}

// Producers lists producers in order of first appearance
func (t Timeline) Producers() []string {
	seen := make(map[string]bool)
	var producers []string
	for _, e := range t {
		if !seen[e.Producer] {
			seen[e.Producer] = true
			producers = append(producers, e.Producer)
		}
	}
	return producers
}

package timeline

import (
	"reflect"
	"testing"
	"time"

	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

var base = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func timed(producer, msg string, offset time.Duration) types.LogEntry {
	return types.LogEntry{
		Timestamp:    base.Add(offset),
		HasTimestamp: true,
		Producer:     producer,
		Kind:         types.KindPlainMessage,
		Plain:        &types.PlainMessage{Message: msg},
	}
}

func untimed(producer, msg string) types.LogEntry {
	return types.LogEntry{
		Producer: producer,
		Kind:     types.KindPlainMessage,
		Plain:    &types.PlainMessage{Message: msg},
	}
}

func messages(tl Timeline) []string {
	out := make([]string, len(tl))
	for i, e := range tl {
		out[i] = e.Plain.Message
	}
	return out
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		perFile [][]types.LogEntry
		want    []string
	}{
		{
			name: "interleaves two producers",
			perFile: [][]types.LogEntry{
				{timed("pre", "p1", 0), timed("pre", "p2", 2*time.Second)},
				{timed("code", "c1", time.Second)},
			},
			want: []string{"p1", "c1", "p2"},
		},
		{
			name: "untimed sorts first",
			perFile: [][]types.LogEntry{
				{timed("pre", "t1", 0), untimed("pre", "u1")},
				{untimed("code", "u2")},
			},
			want: []string{"u1", "u2", "t1"},
		},
		{
			name: "same-file ties keep disk order",
			perFile: [][]types.LogEntry{
				{timed("pre", "a", 0), timed("pre", "b", 0), timed("pre", "c", 0)},
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "cross-file ties follow file order",
			perFile: [][]types.LogEntry{
				{timed("pre", "pre-tie", 0)},
				{timed("code", "code-tie", 0)},
			},
			want: []string{"pre-tie", "code-tie"},
		},
		{
			name: "out of order file is sorted",
			perFile: [][]types.LogEntry{
				{timed("pre", "late", 5*time.Second), timed("pre", "early", time.Second)},
			},
			want: []string{"early", "late"},
		},
		{
			name:    "empty",
			perFile: [][]types.LogEntry{{}, nil},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messages(Merge(tt.perFile))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeOrderInvariant(t *testing.T) {
	perFile := [][]types.LogEntry{
		{timed("a", "1", 3*time.Second), untimed("a", "2"), timed("a", "3", time.Second)},
		{timed("b", "4", 2*time.Second), timed("b", "5", 0), untimed("b", "6")},
		{timed("c", "7", time.Second)},
	}

	tl := Merge(perFile)
	if len(tl) != 7 {
		t.Fatalf("Expected 7 entries, got %d", len(tl))
	}

	for i := 1; i < len(tl); i++ {
		if before(tl[i], tl[i-1]) {
			t.Errorf("Entry %d sorts before entry %d", i, i-1)
		}
	}

	// Determinism
	again := Merge(perFile)
	if !reflect.DeepEqual(messages(tl), messages(again)) {
		t.Errorf("Merge is not deterministic: %v vs %v", messages(tl), messages(again))
	}
}

func TestHelpers(t *testing.T) {
	query := types.LogEntry{
		Timestamp:    base,
		HasTimestamp: true,
		Producer:     "code",
		Kind:         types.KindModelQuery,
		Query:        &types.ModelQuery{Prompt: "p", Response: "r"},
	}
	tl := Timeline{untimed("pre", "u"), timed("pre", "a", 0), query, timed("explain", "b", time.Second)}

	if tl.ModelQueries() != 1 {
		t.Errorf("ModelQueries() = %d, want 1", tl.ModelQueries())
	}
	if tl.Untimed() != 1 {
		t.Errorf("Untimed() = %d, want 1", tl.Untimed())
	}
	if got := tl.Producers(); !reflect.DeepEqual(got, []string{"pre", "code", "explain"}) {
		t.Errorf("Producers() = %v", got)
	}
}

func TestAssemble(t *testing.T) {
	files := []types.LogFileRef{
		{Path: "abc-1_pre.jsonl", Producer: "pre"},
		{Path: "abc-1_code.jsonl", Producer: "code"},
		{Path: "abc-1_pre.jsonl.gz", Producer: "pre"},
	}
	tl := Merge([][]types.LogEntry{{timed("pre", "hi", 0)}})

	conv := Assemble("abc-1", files, tl)
	if conv.ID != "abc-1" || len(conv.Timeline) != 1 {
		t.Errorf("Unexpected conversation %+v", conv)
	}
	if got := conv.Agents(); !reflect.DeepEqual(got, []string{"pre", "code"}) {
		t.Errorf("Agents() = %v", got)
	}
}

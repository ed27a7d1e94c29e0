package exchange

import "sort"

// Stats summarizes a set of exchanges
type Stats struct {
	Total           int
	Conversations   int
	PromptVersions  int
	Errors          int
	AvgLatencyMs    float64
	AvgInputTokens  float64
	AvgOutputTokens float64
}

// ErrorRate returns the share of failed exchanges in percent
func (s Stats) ErrorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Total) * 100
}

// VersionStats summarizes the exchanges of one prompt version
type VersionStats struct {
	VersionID string
	Stats
}

// Summarize computes overall statistics
func Summarize(exs []Exchange) Stats {
	s := Stats{Total: len(exs)}
	if s.Total == 0 {
		return s
	}

	conversations := make(map[string]struct{})
	versions := make(map[string]struct{})
	var latency, input, output float64

	for _, e := range exs {
		conversations[e.ConversationID] = struct{}{}
		versions[e.PromptVersionID] = struct{}{}
		if e.Failed() {
			s.Errors++
		}
		latency += e.LatencyMs
		input += e.InputTokens
		output += e.OutputTokens
	}

	n := float64(s.Total)
	s.Conversations = len(conversations)
	s.PromptVersions = len(versions)
	s.AvgLatencyMs = latency / n
	s.AvgInputTokens = input / n
	s.AvgOutputTokens = output / n
	return s
}

// ByVersion groups exchanges by prompt version, most used first
func ByVersion(exs []Exchange) []VersionStats {
	groups := make(map[string][]Exchange)
	for _, e := range exs {
		groups[e.PromptVersionID] = append(groups[e.PromptVersionID], e)
	}

	result := make([]VersionStats, 0, len(groups))
	for id, items := range groups {
		result = append(result, VersionStats{VersionID: id, Stats: Summarize(items)})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].VersionID < result[j].VersionID
	})
	return result
}

// Recent returns up to limit exchanges, newest first
func Recent(exs []Exchange, limit int) []Exchange {
	sorted := make([]Exchange, len(exs))
	copy(sorted, exs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})

	if limit >= 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

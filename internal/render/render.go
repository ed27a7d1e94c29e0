// Package render turns a merged conversation into terminal lines.
//
// Rendering is pure: the same conversation, mode and style always produce
// the same lines, and every timeline entry produces output.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/therealutkarshpriyadarshi/convlog/internal/config"
	"github.com/therealutkarshpriyadarshi/convlog/internal/timeline"
	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// Mode selects the layout
type Mode int

const (
	// ModeGrouped prints a header before each run of one producer
	ModeGrouped Mode = iota
	// ModeTimeline tags every entry with its producer
	ModeTimeline
)

const (
	timeLayout      = "15:04:05.000"
	rawTimeRunes    = 12
	unknownTime     = "??:??:??"
	unknownModel    = "unknown"
	unknownDuration = "?"
)

// Options holds layout sizes
type Options struct {
	Width          int
	BoxWidth       int
	PromptMaxLen   int
	ResponseMaxLen int
}

// DefaultOptions returns the stock layout
func DefaultOptions() Options {
	return Options{
		Width:          config.DefaultWidth,
		BoxWidth:       config.DefaultBoxWidth,
		PromptMaxLen:   config.DefaultPromptMaxLen,
		ResponseMaxLen: config.DefaultResponseMaxLen,
	}
}

// OptionsFromConfig reads layout sizes from configuration
func OptionsFromConfig(cfg config.RenderConfig) Options {
	return Options{
		Width:          cfg.Width,
		BoxWidth:       cfg.BoxWidth,
		PromptMaxLen:   cfg.PromptMaxLen,
		ResponseMaxLen: cfg.ResponseMaxLen,
	}
}

// Renderer renders conversations
type Renderer struct {
	Style   Style
	Options Options
}

// New creates a renderer
func New(style Style, opts Options) *Renderer {
	return &Renderer{Style: style, Options: opts}
}

// Render returns the output lines for a conversation. A line may itself
// contain newlines when a message or a box spans several rows.
func (r *Renderer) Render(conv *timeline.Conversation, mode Mode) []string {
	lines := r.header(conv)

	if len(conv.Timeline) == 0 {
		return append(lines, r.Style.level(types.LevelWarn).Render("No log entries found."))
	}

	lines = append(lines, r.Style.muted().Render(fmt.Sprintf("Total entries: %d", len(conv.Timeline))), "")

	switch mode {
	case ModeTimeline:
		for _, e := range conv.Timeline {
			lines = append(lines, r.entry(e, true)...)
		}
	default:
		current := ""
		for i, e := range conv.Timeline {
			if i == 0 || e.Producer != current {
				lines = append(lines, r.producerHeader(e.Producer, i == 0)...)
				current = e.Producer
			}
			lines = append(lines, r.entry(e, false)...)
		}
	}

	return append(lines, r.footer(conv.Timeline)...)
}

// Write prints lines to w
func Write(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) header(conv *timeline.Conversation) []string {
	muted := r.Style.muted()
	return []string{
		"",
		muted.Bold(true).Render("CONVERSATION LOG"),
		muted.Render("ID: " + conv.ID),
		muted.Render("Agents: " + strings.Join(conv.Agents(), ", ")),
		muted.Render(strings.Repeat("━", r.Options.Width)),
	}
}

func (r *Renderer) footer(tl timeline.Timeline) []string {
	muted := r.Style.muted()
	return []string{
		"",
		muted.Render(strings.Repeat("━", r.Options.Width)),
		muted.Render(fmt.Sprintf("End of conversation | %d entries | %d LLM queries", len(tl), tl.ModelQueries())),
		"",
	}
}

func (r *Renderer) producerHeader(producer string, first bool) []string {
	style := r.Style.producer(producer)
	rule := strings.Repeat("═", r.Options.Width)

	var lines []string
	if !first {
		lines = append(lines, "")
	}
	return append(lines,
		style.Bold(true).Render(rule),
		style.Bold(true).Render(fmt.Sprintf("  %s  %s", r.Style.Icon(producer), strings.ToUpper(producer))),
		style.Render(rule),
	)
}

func (r *Renderer) producerTag(producer string) string {
	return r.Style.producer(producer).Render(fmt.Sprintf("[%s %s]", r.Style.Icon(producer), producer)) + " "
}

func (r *Renderer) entry(e types.LogEntry, tagged bool) []string {
	tag := ""
	if tagged {
		tag = r.producerTag(e.Producer)
	}

	if e.Kind == types.KindModelQuery && e.Query != nil {
		return r.modelQuery(e, tag)
	}

	source, message := "", ""
	if e.Plain != nil {
		message = e.Plain.Message
		if e.Plain.Source != "" {
			source = r.Style.level(e.Level).TabWidth(lipgloss.NoTabConversion).Render("["+e.Plain.Source+"]") + " "
		}
	}
	return []string{r.Style.muted().Render(FormatTime(e)) + " " + tag + source + message}
}

func (r *Renderer) modelQuery(e types.LogEntry, tag string) []string {
	q := e.Query

	model := q.Model
	if model == "" {
		model = unknownModel
	}
	duration := unknownDuration
	if q.HasDuration {
		duration = strconv.FormatInt(q.DurationMs, 10)
	}

	title := fmt.Sprintf("LLM Query │ %s │ %sms │ %s", model, duration, FormatTime(e))
	box := r.Style.newStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBox).
		Width(r.Options.BoxWidth - 2).
		PaddingLeft(1).
		Render(title)

	boxLines := strings.Split(box, "\n")
	boxLines[0] = tag + boxLines[0]

	lines := []string{""}
	lines = append(lines, boxLines...)
	lines = append(lines,
		"",
		r.Style.color(colorPrompt).Bold(true).Render("➜ PROMPT"),
		paint(r.Style.color(colorPrompt), Truncate(q.Prompt, r.Options.PromptMaxLen)),
		"",
		r.Style.color(colorResponse).Bold(true).Render("➜ RESPONSE"),
		paint(r.Style.color(colorResponse), Truncate(q.Response, r.Options.ResponseMaxLen)),
		"",
	)
	return lines
}

// paint styles each line on its own so multi-line text is not padded into
// a block. Tabs are kept as written.
func paint(style lipgloss.Style, text string) string {
	style = style.TabWidth(lipgloss.NoTabConversion)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatTime renders the entry time with millisecond precision. Entries
// without a parseable timestamp show the start of the raw value.
func FormatTime(e types.LogEntry) string {
	if e.HasTimestamp {
		return e.Timestamp.Format(timeLayout)
	}
	if e.RawTimestamp == "" {
		return unknownTime
	}
	runes := []rune(e.RawTimestamp)
	if len(runes) > rawTimeRunes {
		runes = runes[:rawTimeRunes]
	}
	return string(runes)
}

// Truncate shortens text to at most maxLen runes, ending in "..." when
// anything was cut. Limits below 3 cut without the ellipsis.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

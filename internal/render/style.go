package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/therealutkarshpriyadarshi/convlog/internal/config"
	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// Palette used when a producer or level has no configured color
var (
	colorFallback = lipgloss.Color("15")  // white
	colorMuted    = lipgloss.Color("238") // dark gray
	colorBox      = lipgloss.Color("6")   // cyan
	colorPrompt   = lipgloss.Color("2")   // green
	colorResponse = lipgloss.Color("211") // pink
)

const fallbackIcon = "•"

// Style maps producers and levels to colors and icons. The lipgloss
// renderer decides the color profile, so a Style built for a pipe or with
// colors disabled emits plain text.
type Style struct {
	ProducerColors map[string]lipgloss.Color
	ProducerIcons  map[string]string
	LevelColors    map[types.Level]lipgloss.Color
	Fallback       lipgloss.Color

	renderer *lipgloss.Renderer
}

// DefaultStyle returns the stock palette for the known agents
func DefaultStyle(out io.Writer, noColor bool) Style {
	r := lipgloss.NewRenderer(out)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}

	return Style{
		ProducerColors: map[string]lipgloss.Color{
			"preprocessor": lipgloss.Color("39"),  // light blue
			"codegen":      lipgloss.Color("208"), // orange
			"explainer":    lipgloss.Color("141"), // purple
			"refiner":      lipgloss.Color("84"),  // green
		},
		ProducerIcons: map[string]string{
			"preprocessor": "⚙",
			"codegen":      "⌨",
			"explainer":    "✎",
			"refiner":      "✦",
		},
		LevelColors: map[types.Level]lipgloss.Color{
			types.LevelInfo:  colorMuted,
			types.LevelWarn:  lipgloss.Color("3"),
			types.LevelError: lipgloss.Color("1"),
			types.LevelDebug: lipgloss.Color("4"),
		},
		Fallback: colorFallback,
		renderer: r,
	}
}

// StyleFromConfig overlays configured colors and icons on the defaults
func StyleFromConfig(cfg config.RenderConfig, out io.Writer, noColor bool) Style {
	s := DefaultStyle(out, noColor || cfg.NoColor)

	for name, color := range cfg.ProducerColors {
		s.ProducerColors[name] = lipgloss.Color(color)
	}
	for name, icon := range cfg.ProducerIcons {
		s.ProducerIcons[name] = icon
	}
	for name, color := range cfg.LevelColors {
		s.LevelColors[types.Level(strings.ToUpper(name))] = lipgloss.Color(color)
	}
	return s
}

// Icon returns the producer's icon
func (s Style) Icon(producer string) string {
	if icon, ok := s.ProducerIcons[producer]; ok && icon != "" {
		return icon
	}
	return fallbackIcon
}

func (s Style) newStyle() lipgloss.Style {
	if s.renderer == nil {
		return lipgloss.NewStyle()
	}
	return s.renderer.NewStyle()
}

func (s Style) producer(name string) lipgloss.Style {
	color, ok := s.ProducerColors[name]
	if !ok {
		color = s.Fallback
	}
	return s.newStyle().Foreground(color)
}

func (s Style) level(level types.Level) lipgloss.Style {
	color, ok := s.LevelColors[level]
	if !ok {
		color = s.Fallback
	}
	return s.newStyle().Foreground(color)
}

func (s Style) muted() lipgloss.Style {
	return s.newStyle().Foreground(colorMuted)
}

func (s Style) color(c lipgloss.Color) lipgloss.Style {
	return s.newStyle().Foreground(c)
}

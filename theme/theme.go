package theme

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"go-euclid/pattern"
	"go-euclid/sequencer"
)

type Theme struct {
	Palette  *Palette
	Symbols  Symbols
	renderer *lipgloss.Renderer
}

type Symbols struct {
	StepEmpty    rune // · rest
	StepActive   rune // ● gate
	StepPlayhead rune // ▶ current step is a gate
	StepRest     rune // ▷ current step is a rest
}

// New creates a theme rendering for w (color support is detected from w)
func New(palette *Palette, w io.Writer) *Theme {
	return &Theme{
		Palette:  palette,
		renderer: lipgloss.NewRenderer(w),
		Symbols: Symbols{
			StepEmpty:    '·',
			StepActive:   '●',
			StepPlayhead: '▶',
			StepRest:     '▷',
		},
	}
}

// Plain disables colors, for logs and tests
func (t *Theme) Plain() *Theme {
	t.renderer.SetColorProfile(termenv.Ascii)
	return t
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func (t *Theme) style(role float64) lipgloss.Style {
	return t.renderer.NewStyle().Foreground(t.Color(role))
}

// RenderPattern draws the pattern as one symbol per step
func (t *Theme) RenderPattern(p pattern.Pattern) string {
	return t.renderStrip(p, -1)
}

// RenderStrip draws the pattern with the playhead on step
func (t *Theme) RenderStrip(p pattern.Pattern, step int) string {
	return t.renderStrip(p, step)
}

func (t *Theme) renderStrip(p pattern.Pattern, playhead int) string {
	var b strings.Builder
	for i := 0; i < p.Len(); i++ {
		switch {
		case i == playhead && p.Active(i):
			b.WriteString(t.style(RoleSuccess).Bold(true).Render(string(t.Symbols.StepPlayhead)))
		case i == playhead:
			b.WriteString(t.style(RoleFG).Render(string(t.Symbols.StepRest)))
		case p.Active(i):
			b.WriteString(t.style(RoleActive).Render(string(t.Symbols.StepActive)))
		default:
			b.WriteString(t.style(RoleMuted).Render(string(t.Symbols.StepEmpty)))
		}
	}
	return b.String()
}

// RenderBeat formats the diagnostic line printed for every beat
func (t *Theme) RenderBeat(p pattern.Pattern, b sequencer.Beat) string {
	ms := b.Elapsed.Milliseconds()
	strip := t.RenderStrip(p, b.Step)
	if b.Gate {
		label := t.style(RoleSuccess).Bold(true).Render("gate")
		return fmt.Sprintf("%s %s at beat %.3f (time in ms: %d) counter %d", strip, label, b.Position, ms, b.Counter)
	}
	label := t.style(RoleMuted).Render("no gate")
	return fmt.Sprintf("%s %s at beat %.3f (time in ms: %d)", strip, label, b.Position, ms)
}

// RenderWarning styles a warning line
func (t *Theme) RenderWarning(s string) string {
	return t.style(RoleWarning).Render(s)
}

// RenderHeader styles a heading line
func (t *Theme) RenderHeader(s string) string {
	return t.style(RoleAccent).Bold(true).Render(s)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}

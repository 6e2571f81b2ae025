// Package render presents recommendations on a console: styled boxes on a
// terminal, the plain text form everywhere else.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"ridecheck/internal/ride"
	"ridecheck/internal/types"
)

var (
	colorGood    = lipgloss.Color("#2CD7C7")
	colorCaution = lipgloss.Color("#F4D03F")
	colorBad     = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")
)

// Theme holds the styles used in styled mode.
type Theme struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Section lipgloss.Style
	Good    lipgloss.Style
	Bad     lipgloss.Style
	Caution lipgloss.Style
	Advice  lipgloss.Style
}

// DefaultTheme returns the standard palette.
func DefaultTheme() Theme {
	return Theme{
		Title: lipgloss.NewStyle().Bold(true),
		Muted: lipgloss.NewStyle().Foreground(colorMuted),
		Section: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1),
		Good:    lipgloss.NewStyle().Foreground(colorGood).Bold(true),
		Bad:     lipgloss.NewStyle().Foreground(colorBad).Bold(true),
		Caution: lipgloss.NewStyle().Foreground(colorCaution).Bold(true),
		Advice: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			PaddingLeft(1),
	}
}

// Renderer formats recommendations for one output stream.
type Renderer struct {
	styled bool
	theme  Theme
}

// NewRenderer returns a styled renderer when w is a terminal and plain
// otherwise.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{styled: IsTerminal(w), theme: DefaultTheme()}
}

// NewPlainRenderer always renders plain text.
func NewPlainRenderer() *Renderer {
	return &Renderer{theme: DefaultTheme()}
}

// NewStyledRenderer always renders styled output.
func NewStyledRenderer(theme Theme) *Renderer {
	return &Renderer{styled: true, theme: theme}
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styled reports the output mode.
func (r *Renderer) Styled() bool {
	return r.styled
}

// Recommendation renders rec.
func (r *Renderer) Recommendation(rec types.Recommendation) string {
	if !r.styled {
		return ride.FormatText(rec)
	}

	blocks := []string{r.section("Home", rec.Home)}
	if rec.Work != nil {
		blocks = append(blocks, r.section("Work", *rec.Work))
	}
	sections := lipgloss.JoinHorizontal(lipgloss.Top, interleave(blocks, " ")...)

	return lipgloss.JoinVertical(lipgloss.Left, sections, "", r.guidance(rec)) + "\n"
}

// Verdict renders a single evaluation result.
func (r *Renderer) Verdict(obs *types.Observation, v types.Verdict) string {
	if !r.styled {
		return fmt.Sprintf("%s\n%s %s\n", ride.Summarize(obs), verdictMark(v), v.Reason)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		r.theme.Muted.Render(ride.Summarize(obs)),
		r.verdictLine(v),
	) + "\n"
}

// Topology renders a classification.
func (r *Renderer) Topology(topo types.Topology, home, work types.Place) string {
	var b strings.Builder
	title := topo.Label()
	if r.styled {
		title = r.theme.Title.Render(title)
	}
	fmt.Fprintf(&b, "%s (%s)\n", title, topo)
	for _, p := range []struct {
		name  string
		place types.Place
	}{{"home", home}, {"work", work}} {
		fmt.Fprintf(&b, "  %s: city=%q zone=%q", p.name, p.place.City, p.place.Zone)
		if p.place.Malformed {
			b.WriteString(" (no city marker)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) section(title string, s types.Section) string {
	heading := title
	if s.Location != "" {
		heading = fmt.Sprintf("%s · %s", title, s.Location)
	}

	lines := []string{r.theme.Title.Render(heading), r.theme.Muted.Render(s.Summary)}
	if s.Verdict != nil {
		lines = append(lines, r.verdictLine(*s.Verdict))
	}
	return r.theme.Section.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (r *Renderer) verdictLine(v types.Verdict) string {
	style := r.theme.Bad
	if v.Suitable {
		style = r.theme.Good
	}
	return style.Render(verdictMark(v)) + " " + v.Reason
}

func (r *Renderer) guidance(rec types.Recommendation) string {
	g := rec.Guidance
	style := r.theme.Bad
	switch g.Tone {
	case types.ToneAffirmative:
		style = r.theme.Good
	case types.ToneConditionalNegative:
		style = r.theme.Caution
	}

	lines := []string{
		r.theme.Muted.Render(rec.Topology.Label()),
		style.Render(g.Headline),
		g.Advice,
	}
	for _, c := range g.Caveats {
		lines = append(lines, "• "+c)
	}
	if len(g.Alternatives) > 0 {
		lines = append(lines, r.theme.Title.Render("Options"))
		for _, a := range g.Alternatives {
			lines = append(lines, "→ "+a)
		}
	}

	return r.theme.Advice.BorderForeground(style.GetForeground()).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func verdictMark(v types.Verdict) string {
	if v.Suitable {
		return "[ok]"
	}
	return "[no]"
}

func interleave(items []string, sep string) []string {
	out := make([]string, 0, len(items)*2)
	for i, it := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, it)
	}
	return out
}

// Package markdown renders the assistant's markdown answers to ANSI-styled
// terminal text, using goldmark for parsing and lipgloss for styling.
package markdown

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/ckassist"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// DefaultWidth is used when a non-positive width is given.
const DefaultWidth = 80

// Renderer turns markdown into styled text wrapped to a fixed width.
// It holds no per-call state and is safe for concurrent use.
type Renderer struct {
	width  int
	parser parser.Parser
	styles styles
}

type styles struct {
	heading lipgloss.Style
	strong  lipgloss.Style
	emph    lipgloss.Style
	strike  lipgloss.Style
	code    lipgloss.Style
	link    lipgloss.Style
	muted   lipgloss.Style
}

// New returns a Renderer for theme wrapping paragraphs to width.
func New(theme ckassist.Theme, width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))
	return &Renderer{
		width:  width,
		parser: md.Parser(),
		styles: styles{
			heading: lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
			strong:  lipgloss.NewStyle().Bold(true),
			emph:    lipgloss.NewStyle().Italic(true),
			strike:  lipgloss.NewStyle().Strikethrough(true),
			code:    lipgloss.NewStyle().Foreground(color(theme.Accent)),
			link:    lipgloss.NewStyle().Underline(true),
			muted:   lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
		},
	}
}

// Render parses source and returns the styled text. Code blocks keep their
// lines as written; everything else is word-wrapped.
func (r *Renderer) Render(source string) string {
	if source == "" {
		return ""
	}
	return r.render([]byte(source))
}

// Render is a shorthand for New(theme, width).Render(source).
func Render(source string, width int, theme ckassist.Theme) string {
	return New(theme, width).Render(source)
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

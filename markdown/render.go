package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// writer accumulates the output of one Render call.
type writer struct {
	*Renderer
	src []byte
	out strings.Builder
}

func (r *Renderer) render(src []byte) string {
	doc := r.parser.Parse(text.NewReader(src))
	w := &writer{Renderer: r, src: src}
	w.blocks(doc, "", r.width)
	return strings.TrimRight(w.out.String(), "\n")
}

func (w *writer) blocks(parent ast.Node, prefix string, width int) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, prefix, width)
		if n.NextSibling() != nil {
			w.out.WriteString(strings.TrimRight(prefix, " ") + "\n")
		}
	}
}

func (w *writer) block(n ast.Node, prefix string, width int) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.wrapped(prefix, prefix, w.inline(n), width)

	case *ast.Heading:
		style := w.styles.heading
		if n.Level > 2 {
			style = w.styles.strong
		}
		w.wrapped(prefix, prefix, style.Render(w.inline(n)), width)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.src)); lang != "" {
			w.out.WriteString(prefix + w.styles.muted.Render(lang) + "\n")
		}
		w.code(n, prefix)

	case *ast.CodeBlock:
		w.code(n, prefix)

	case *ast.Blockquote:
		bar := prefix + w.styles.muted.Render("│") + " "
		w.blocks(n, bar, width-2)

	case *ast.List:
		w.list(n, prefix, width)

	case *ast.ThematicBreak:
		w.out.WriteString(prefix + w.styles.muted.Render(strings.Repeat("─", min(width, 40))) + "\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			w.out.WriteString(prefix + strings.TrimRight(string(seg.Value(w.src)), "\n") + "\n")
		}

	default:
		w.blocks(n, prefix, width)
	}
}

// wrapped writes s wrapped to width, the first line after first and the
// rest after rest.
func (w *writer) wrapped(first, rest, s string, width int) {
	width = max(width, 10)
	lines := strings.Split(lipgloss.NewStyle().Width(width).Render(s), "\n")
	for i, line := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		w.out.WriteString(p + strings.TrimRight(line, " ") + "\n")
	}
}

func (w *writer) code(n ast.Node, prefix string) {
	gutter := prefix + w.styles.muted.Render("│") + " "
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		w.out.WriteString(gutter + strings.TrimRight(string(seg.Value(w.src)), "\n") + "\n")
	}
}

func (w *writer) list(l *ast.List, prefix string, width int) {
	num := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		hang := strings.Repeat(" ", len(marker))
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				lead := prefix + hang
				if first {
					lead = prefix + marker
				}
				w.wrapped(lead, prefix+hang, w.inline(c), width-len(marker))
			default:
				if first {
					w.out.WriteString(prefix + marker + "\n")
				}
				w.block(c, prefix+hang, width-len(marker))
			}
			first = false
		}
	}
}

// inline renders the inline children of n to a single styled string.
func (w *writer) inline(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &b)
	}
	return b.String()
}

func (w *writer) span(n ast.Node, b *strings.Builder) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		if n.Level >= 2 {
			b.WriteString(w.styles.strong.Render(w.inline(n)))
		} else {
			b.WriteString(w.styles.emph.Render(w.inline(n)))
		}
	case *extast.Strikethrough:
		b.WriteString(w.styles.strike.Render(w.inline(n)))
	case *ast.CodeSpan:
		b.WriteString(w.styles.code.Render(w.inline(n)))
	case *ast.Link:
		b.WriteString(w.styles.link.Render(w.inline(n)))
		b.WriteString(" " + w.styles.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		b.WriteString(w.styles.link.Render(string(n.URL(w.src))))
	case *ast.Image:
		b.WriteString(w.styles.link.Render(w.inline(n)))
		b.WriteString(" " + w.styles.muted.Render("("+string(n.Destination)+")"))
	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.src))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, b)
		}
	}
}

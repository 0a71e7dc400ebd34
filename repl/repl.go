// Package repl is the line-oriented interactive shell of the assistant.
//
// It reads one prompt per line, hands it to a Responder and prints the
// rendered answer. Failures of a single interaction are printed and the
// shell keeps reading; quit, exit, end of input or cancellation end it.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/ckassist"
	"github.com/fwojciec/ckassist/markdown"
)

// Prompt is printed before every line read.
const Prompt = "CKA Prompt: "

// Responder answers one prompt. agent.Orchestrator implements it.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// Shell runs the read-respond-print loop.
type Shell struct {
	responder Responder
	in        io.Reader
	out       io.Writer
	theme     ckassist.Theme
	width     int
	plain     bool
	logger    *slog.Logger

	mu sync.Mutex // guards out between the loop and HandleEvent
}

// Option configures a Shell.
type Option func(*Shell)

// WithTheme sets the color theme.
func WithTheme(t ckassist.Theme) Option {
	return func(s *Shell) { s.theme = t }
}

// WithWidth sets the wrap width of rendered answers.
func WithWidth(w int) Option {
	return func(s *Shell) { s.width = w }
}

// WithPlainText prints answers as received, without markdown rendering or
// colors.
func WithPlainText() Option {
	return func(s *Shell) {
		s.plain = true
		s.theme = ckassist.PlainTheme()
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// New returns a Shell reading prompts from in and writing to out.
func New(r Responder, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		responder: r,
		in:        in,
		out:       out,
		theme:     ckassist.DefaultTheme(),
		width:     markdown.DefaultWidth,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Shell) style(color int) lipgloss.Style {
	st := lipgloss.NewStyle()
	if color >= 0 {
		st = st.Foreground(lipgloss.Color(fmt.Sprint(color)))
	}
	return st
}

func (s *Shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// Run prints the banner and serves prompts until quit, exit, end of input or
// ctx cancellation. It returns an error only when reading input fails.
//
// If the input is an [io.Closer] it is closed when Run returns, which
// releases the reader goroutine blocked on it. Inputs that cannot be
// closed, or whose Read ignores Close, must not be read after Run.
func (s *Shell) Run(ctx context.Context) error {
	if c, ok := s.in.(io.Closer); ok {
		defer c.Close()
	}

	muted := s.style(s.theme.Muted)
	s.printf("%s\n%s\n%s\n%s\n",
		s.style(s.theme.Accent).Bold(true).Render("Welcome to CK Assistant"),
		muted.Render("Powered by Google Gemini"),
		muted.Render("Type 'quit' or 'exit' to leave."),
		muted.Render(strings.Repeat("-", 30)),
	)

	scanCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines, errs := scan(scanCtx, s.in)
	for {
		s.printf("%s", s.style(s.theme.Prompt).Bold(true).Render(Prompt))

		var line string
		select {
		case <-ctx.Done():
			s.printf("\nCK Assistant interrupted. Exiting. Goodbye!\n")
			return nil
		case l, ok := <-lines:
			if !ok {
				if err := <-errs; err != nil {
					return fmt.Errorf("repl: read input: %w", err)
				}
				s.printf("\nExiting CK Assistant. Goodbye!\n")
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			s.printf("Exiting CK Assistant. Goodbye!\n")
			return nil
		}

		s.interact(ctx, line)
		if ctx.Err() != nil {
			s.printf("\nCK Assistant interrupted. Exiting. Goodbye!\n")
			return nil
		}
	}
}

func (s *Shell) interact(ctx context.Context, prompt string) {
	muted := s.style(s.theme.Muted)
	s.printf("\n%s\n", muted.Render("CKA is thinking..."))

	answer, err := s.responder.Respond(ctx, prompt)
	if err != nil {
		s.logger.Error("interaction failed", "error", err, "kind", ckassist.KindOf(err))
		errStyle := s.style(s.theme.Error)
		s.printf("\n%s\n%s\n\n",
			errStyle.Render(fmt.Sprintf("An unexpected error occurred during interaction: %v", err)),
			"Please try again or type 'quit' to exit.",
		)
		return
	}

	if !s.plain {
		answer = markdown.Render(answer, s.width, s.theme)
	}
	rule := muted.Render(strings.Repeat("-", 15))
	s.printf("\n%s\n%s\n%s\n%s\n\n", s.style(s.theme.Success).Bold(true).Render("CKA Response:"), rule, answer, rule)
}

// HandleEvent prints tool activity while an interaction runs. Pass it to
// agent.WithEventHandler.
func (s *Shell) HandleEvent(evt ckassist.Event) {
	switch e := evt.(type) {
	case ckassist.EventToolCallEnd:
		args := string(e.Call.Arguments)
		var compact map[string]any
		if json.Unmarshal(e.Call.Arguments, &compact) == nil {
			if b, err := json.Marshal(compact); err == nil {
				args = string(b)
			}
		}
		s.printf("%s\n", s.style(s.theme.ToolCall).Render(
			fmt.Sprintf("Calling %s with args: %s", e.Call.Name, args)))
	case ckassist.EventToolResult:
		if f, ok := e.Result.(ckassist.ToolFailure); ok {
			s.printf("%s\n", s.style(s.theme.Error).Render(
				fmt.Sprintf("%s failed (%s): %s", e.ToolName, f.Kind, f.Message)))
			return
		}
		s.printf("%s\n", s.style(s.theme.Success).Render(e.ToolName+" succeeded"))
	}
}

// scan reads lines from r on its own goroutine so the loop can also watch
// for cancellation. The error channel carries the scanner error once lines
// is closed.
func scan(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- sc.Err()
	}()
	return lines, errs
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fwojciec/ckassist"
	"github.com/fwojciec/ckassist/agent"
	"github.com/fwojciec/ckassist/config"
	"github.com/fwojciec/ckassist/exchange"
	"github.com/fwojciec/ckassist/gemini"
	"github.com/fwojciec/ckassist/repl"
	"github.com/fwojciec/ckassist/toolbox"
)

const defaultSystemPrompt = `You are CK Assistant. You help the user manage session templates
stored in the Template Exchange: handoffs and summaries, keyed by session IDs
such as "M5.S4". Use get_template to read a template and create_template to
create or replace one. When a tool reports an error, explain it plainly and
suggest what the user can do next. Answer in markdown.`

func readSystemPrompt(path string) (string, error) {
	if path == "" {
		return defaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return string(data), nil
}

// assemble wires the template client, tool registry, model provider,
// orchestrator and shell.
func assemble(ctx context.Context, cfg config.Config, systemPrompt string, plain bool, in io.Reader, out io.Writer, logger *slog.Logger, geminiOpts ...gemini.Option) (*repl.Shell, error) {
	templates := exchange.New(cfg.ExchangeAPIKey, cfg.ExchangeBaseURL,
		exchange.WithLogger(logger.With("component", "exchange")))

	registry, err := toolbox.New(templates, toolbox.WithLogger(logger.With("component", "toolbox")))
	if err != nil {
		return nil, err
	}

	provider, err := gemini.New(ctx, cfg.GeminiAPIKey, append([]gemini.Option{gemini.WithModel(cfg.Model)}, geminiOpts...)...)
	if err != nil {
		return nil, err
	}

	var shell *repl.Shell
	orch := agent.New(provider, registry, registry.Tools(),
		agent.WithSystemPrompt(systemPrompt),
		agent.WithMaxToolRounds(cfg.MaxToolRounds),
		agent.WithLogger(logger.With("component", "agent")),
		agent.WithEventHandler(func(e ckassist.Event) { shell.HandleEvent(e) }),
	)

	shellOpts := []repl.Option{repl.WithLogger(logger)}
	if plain {
		shellOpts = append(shellOpts, repl.WithPlainText())
	}
	shell = repl.New(orch, in, out, shellOpts...)
	return shell, nil
}

// Command cka is CK Assistant: an interactive shell where a Gemini model
// reads and writes session templates on the Template Exchange service.
//
// Usage:
//
//	cka [--env-file=PATH] [--model=ID] [--max-tool-rounds=N]
//	    [--log-level=LEVEL] [--system-prompt=PATH] [--plain]
//
// GEMINI_API_KEY, TEMPLATE_EXCHANGE_API_KEY and TEMPLATE_EXCHANGE_API_BASE_URL
// must be set in the environment or in the env file (default .env).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fwojciec/ckassist/config"
	"github.com/jessevdk/go-flags"
)

type options struct {
	EnvFile       string `long:"env-file" description:"Env file to load (default .env, optional)"`
	Model         string `long:"model" description:"Gemini model ID (overrides GEMINI_MODEL)"`
	MaxToolRounds int    `long:"max-tool-rounds" description:"Tool round trips allowed per prompt (overrides CKA_MAX_TOOL_ROUNDS)"`
	LogLevel      string `long:"log-level" description:"debug, info, warn or error (overrides CKA_LOG_LEVEL)"`
	SystemPrompt  string `long:"system-prompt" description:"Path to a system prompt file"`
	Plain         bool   `long:"plain" description:"Print answers without colors or markdown rendering"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "cka"
	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintf(stderr, "cka: %v\n", err)
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stdout, "FATAL CONFIGURATION ERROR: %v\n", err)
		fmt.Fprintln(stdout, "Please ensure your .env file is correctly set up and accessible.")
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	systemPrompt, err := readSystemPrompt(opts.SystemPrompt)
	if err != nil {
		fmt.Fprintf(stderr, "cka: %v\n", err)
		return 1
	}

	shell, err := assemble(ctx, cfg, systemPrompt, opts.Plain, stdin, stdout, logger)
	if err != nil {
		fmt.Fprintf(stderr, "cka: %v\n", err)
		return 1
	}
	if err := shell.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "cka: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts options) (config.Config, error) {
	var files []string
	if opts.EnvFile != "" {
		files = append(files, opts.EnvFile)
	}
	cfg, err := config.FromEnvironment(files...)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	if opts.MaxToolRounds > 0 {
		cfg.MaxToolRounds = opts.MaxToolRounds
	}
	if opts.LogLevel != "" {
		lvl, err := config.ParseLogLevel(opts.LogLevel)
		if err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"gistify/internal/apperr"
	"gistify/internal/bot"
	"gistify/internal/config"
	"gistify/internal/domain"
	"gistify/internal/extractor"
	"gistify/internal/pipeline"
	"gistify/internal/server"
	"gistify/internal/summarizer"
	"gistify/internal/youtube"
)

func main() {
	app := &cli.App{
		Name:  "gistify",
		Usage: "Summarize webpages and YouTube videos as bullet points",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and, when TELEGRAM_TOKEN is set, the Telegram bot",
				Action: serveAction,
			},
			{
				Name:      "summarize",
				Usage:     "Summarize a single URL and print the result",
				ArgsUsage: "URL",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "level",
						Aliases: []string{"l"},
						Value:   domain.DefaultLevel,
						Usage:   fmt.Sprintf("detail level from %d to %d", domain.MinLevel, domain.MaxLevel),
					},
				},
				Action: summarizeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Command failed",
			"error", err)

		os.Exit(1)
	}
}

func serveAction(c *cli.Context) error {
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	p := newPipeline(cfg, log)

	log.InfoContext(ctx, "Pipeline is initialized",
		"backend", cfg.LLMBackend,
		"model", cfg.LLMModel)

	if cfg.TelegramToken != "" {
		botInst, botErr := bot.New(cfg.TelegramToken, p, log)
		if botErr != nil {
			return fmt.Errorf("create bot: %w", botErr)
		}

		go botInst.Start(ctx)

		log.InfoContext(ctx, "Bot is started")
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.InfoContext(ctx, "Shutdown signal is received",
				"signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	err = server.New(cfg.HTTPAddr, cfg.WebUIDir, p, log).Run(ctx)

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return err
}

func summarizeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one URL is required", 2)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := newPipeline(cfg, newLogger(cfg)).Run(ctx, domain.SummaryRequest{
		URL:   c.Args().First(),
		Level: c.Int("level"),
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return cli.Exit(fmt.Sprintf("%s: %s", appErr.Kind, appErr.Message), 1)
		}

		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, result.Summary)

	return err
}

func newLogger(cfg config.Config) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	return log
}

func newPipeline(cfg config.Config, log *slog.Logger) *pipeline.Pipeline {
	fetchClient := &http.Client{Timeout: cfg.FetchTimeout}

	router := extractor.NewRouter(
		extractor.NewTranscript(extractor.YouTubeSource(youtube.NewClient(fetchClient, cfg.FetchUserAgent, log)), log),
		extractor.NewWebpage(fetchClient, cfg.FetchUserAgent, cfg.MaxPageBytes, log),
		log,
	)

	return pipeline.New(router, summarizer.New(newGenerator(cfg, log), log), log)
}

func newGenerator(cfg config.Config, log *slog.Logger) summarizer.Generator {
	llmClient := &http.Client{Timeout: cfg.LLMTimeout}

	if cfg.LLMBackend == config.BackendOpenAI {
		return summarizer.NewOpenAIGenerator(llmClient, cfg.Endpoint(), cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature)
	}

	return summarizer.NewOllamaGenerator(llmClient, cfg.Endpoint(), cfg.LLMModel, cfg.LLMTemperature, log)
}

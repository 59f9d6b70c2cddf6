package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/renix-codex/postboard/internal/api"
	"github.com/renix-codex/postboard/internal/config"
	"github.com/renix-codex/postboard/internal/diag"
	"github.com/renix-codex/postboard/internal/diag/journal"
	"github.com/renix-codex/postboard/internal/fetch"
	"github.com/renix-codex/postboard/internal/logger"
	"github.com/renix-codex/postboard/internal/metrics"
	http "github.com/renix-codex/postboard/internal/server"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "postboard",
		Short:         "Render the latest posts from the upstream API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to a JSON or YAML config file")
	pf.String("source-url", config.DefaultSourceURL, "posts endpoint")
	pf.Duration("http-timeout", 0, "upstream request timeout, 0 for none")
	pf.Int("limit", config.DefaultLimit, "number of posts to show")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-handler", "dev", "dev, text or json")

	root.AddCommand(serveCmd(), renderCmd())
	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the posts page over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd)
		},
	}
	f := cmd.Flags()
	f.String("listen-addr", ":8080", "HTTP listen address")
	f.Int("rate-limit", 0, "page requests per minute per client, 0 disables")
	f.Int("rate-burst", 0, "extra page requests allowed in a burst")
	f.String("secret-token", "", "bearer token required on the page")
	f.String("journal-dsn", "", "Postgres DSN for the fetch failure journal")
	return cmd
}

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Fetch once and write the posts page to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, l, err := setup(cmd)
			if err != nil {
				return err
			}
			a := api.New(api.Opts{
				Fetcher: fetch.NewHTTPFetcher(cfg.SourceURL, cfg.HTTPTimeout),
				Sink:    diag.NewLogSink(l),
				Logger:  l,
				Source:  cfg.SourceURL,
				Limit:   cfg.Limit,
			})
			return a.RenderPage(logger.With(cmd.Context(), l), cmd.OutOrStdout())
		},
	}
}

func serve(ctx context.Context, cmd *cobra.Command) error {
	cfg, l, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx = logger.With(ctx, l)

	var (
		sink     diag.Sink = diag.NewLogSink(l)
		failures api.FailureLog
	)
	if cfg.JournalDSN != "" {
		j, err := journal.New(ctx, cfg.JournalDSN, l)
		if err != nil {
			return err
		}
		defer j.Close()
		sink = diag.Multi(sink, j)
		failures = j
	}

	m := metrics.New()
	a := api.New(api.Opts{
		Fetcher:  fetch.NewHTTPFetcher(cfg.SourceURL, cfg.HTTPTimeout),
		Sink:     sink,
		Failures: failures,
		Metrics:  m,
		Logger:   l,
		Source:   cfg.SourceURL,
		Limit:    cfg.Limit,
	})

	s, err := http.New(a, http.Opts{
		Metrics:     m,
		Logger:      l,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
		SecretToken: cfg.SecretToken,
	})
	if err != nil {
		return err
	}

	l.Info("listening", "addr", cfg.ListenAddr, "source", cfg.SourceURL)
	return s.ListenAndServe(ctx, cfg.ListenAddr)
}

// setup resolves configuration and builds the logger. Only flags the user
// actually set override file and environment values.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	overrides := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		overrides[f.Name] = f.Value.String()
	})

	cfg, err := config.Load(path, overrides)
	if err != nil {
		return config.Config{}, nil, err
	}

	l := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithHandler(logger.ParseHandler(cfg.LogHandler)),
	)
	return cfg, l, nil
}

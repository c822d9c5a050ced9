package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/saadbenchekroun/data-visualizer/internal/api"
	"github.com/saadbenchekroun/data-visualizer/internal/config"
	"github.com/saadbenchekroun/data-visualizer/internal/llm"
	"github.com/saadbenchekroun/data-visualizer/internal/service"
	"github.com/saadbenchekroun/data-visualizer/internal/state"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "vizd",
		Short:        "HTTP backend that turns questions about a dataset into chart configurations.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), newLogger(cfg.Verbose), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./vizd.yaml)")
	flags.Int("port", config.DefaultPort, "port to listen on")
	flags.BoolP("verbose", "v", false, "set debug logging level")
	flags.Duration("dataset-ttl", config.DefaultDatasetTTL, "drop datasets unused for this long (0 keeps them)")
	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("dataset_ttl", flags.Lookup("dataset-ttl"))

	return cmd
}

func run(ctx context.Context, log *slog.Logger, cfg *config.Config) error {
	store := state.NewStore(cfg.DatasetTTL)
	store.Start()
	defer store.Stop()

	db := service.NewPostgresDataSource()
	defer db.Close()

	llmService := llm.NewService(cfg.Ollama.BaseURL, cfg.Ollama.Model)
	handler := api.NewHandler(log, store, llmService, db, api.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		DatabaseURL:    cfg.Database.URL,
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           api.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	log.Info("starting server",
		"port", cfg.Port,
		"allowed_origins", cfg.AllowedOrigins,
		"dataset_ttl", cfg.DatasetTTL,
		"ollama", cfg.Ollama.BaseURL,
		"model", cfg.Ollama.Model)

	return serve(ctx, log, server, ln)
}

// serve runs server on ln until ctx is done, then returns once in-flight
// requests have drained or shutdownTimeout has passed.
func serve(ctx context.Context, log *slog.Logger, server *http.Server, ln net.Listener) error {
	done := make(chan struct{})

	// Handle graceful shutdown
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(formatRFC3339Millis(a.Value.Time()))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}

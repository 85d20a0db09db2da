package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/metrics"
	"github.com/born-ml/hastings/internal/server"
)

func newServeCommand() *cobra.Command {
	var (
		vocabPath string
		addr      string
		maxBatch  int
		enableMet bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve encode and decode over HTTP",
		Long: `Serve a vocabulary over HTTP.

Endpoints:
  GET  /healthz           Liveness probe
  GET  /metrics           Prometheus metrics
  GET  /v1/vocabulary     Vocabulary summary
  POST /v1/encode         {"text", "allowed_special", "raw_special"}
  POST /v1/encode/batch   {"texts", "allowed_special", "raw_special"}
  POST /v1/decode         {"ids", "errors"}
  POST /v1/chat/encode    {"messages", "template"}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, codec, err := openCodec(cmd, vocabPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("max-batch") {
				cfg.Server.MaxBatch = maxBatch
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Server.Metrics = &enableMet
			}

			parent := contextOrBackground(cmd)
			logger := slog.Default()
			if logger.Enabled(parent, slog.LevelDebug) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			opts := server.Options{
				MaxBatch: cfg.Server.MaxBatch,
				Logger:   logger,
			}
			if cfg.MetricsEnabled() {
				opts.Metrics = metrics.New()
			}

			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			v := codec.Vocabulary()
			logger.Info("serving vocabulary", "name", v.Name(), "size", v.Size(), "fingerprint", v.Fingerprint())
			return server.New(codec, opts).Run(ctx, cfg.Server.Addr)
		},
	}

	addVocabFlag(cmd, &vocabPath)
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from the config)")
	cmd.Flags().IntVar(&maxBatch, "max-batch", 0, "Largest accepted batch, 0 for no limit")
	cmd.Flags().BoolVar(&enableMet, "metrics", true, "Expose Prometheus metrics on /metrics")

	return cmd
}

func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Package server exposes a Codec over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/born-ml/hastings/internal/metrics"
	"github.com/born-ml/hastings/internal/tokenizer"
)

// Options configures the HTTP service.
type Options struct {
	MaxBatch        int              // Largest accepted batch; 0 means unlimited
	Metrics         *metrics.Metrics // nil disables /metrics
	Logger          *slog.Logger     // slog.Default() when nil
	ShutdownTimeout time.Duration    // Grace period for in-flight requests
}

// Server serves encode/decode requests for a single Codec.
type Server struct {
	codec  *tokenizer.Codec
	opts   Options
	log    *slog.Logger
	router *gin.Engine
}

// New builds the router. The codec is shared by all requests.
func New(codec *tokenizer.Codec, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		codec: codec,
		opts:  opts,
		log:   opts.Logger,
	}

	if opts.Metrics != nil {
		v := codec.Vocabulary()
		opts.Metrics.SetVocabulary(v.Name(), v.Fingerprint(), v.Size())
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log, opts.Metrics))

	router.GET("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := router.Group("/v1")
	{
		api.GET("/vocabulary", s.handleVocabulary)
		api.POST("/encode", s.handleEncode)
		api.POST("/encode/batch", s.handleEncodeBatch)
		api.POST("/decode", s.handleDecode)
		api.POST("/chat/encode", s.handleChatEncode)
	}

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// RequestIDHeader carries the request id; a client-supplied value is kept.
const RequestIDHeader = "X-Request-ID"

// requestLogger tags each request with an id, writes one slog record per
// request and feeds the metrics.
func requestLogger(log *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		if m != nil {
			m.ObserveRequest(c.FullPath(), status, elapsed)
		}

		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
		)
	}
}

// pkg/httpserver/server.go

package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ecosystem-trading/ibconnect/pkg/logger"
)

// ReadyChecker returns nil if the service is ready to serve.
type ReadyChecker func() error

// HTTPServer defines Start(context) error.
type HTTPServer interface {
	Start(ctx context.Context) error
}

// Config defines timeouts and paths for the observability HTTP server.
type Config struct {
	Addr            string        `mapstructure:"addr"` // e.g. ":8080"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPath     string        `mapstructure:"metrics_path"`
	HealthzPath     string        `mapstructure:"healthz_path"`
	ReadyzPath      string        `mapstructure:"readyz_path"`
}

func (c *Config) applyDefaults() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.MetricsPath == "" {
		c.MetricsPath = "/metrics"
	}
	if c.HealthzPath == "" {
		c.HealthzPath = "/healthz"
	}
	if c.ReadyzPath == "" {
		c.ReadyzPath = "/readyz"
	}
}

func (c Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("httpserver: Addr is required")
	}
	return nil
}

type server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	check           ReadyChecker
	log             *logger.Logger
}

// New constructs an HTTPServer with metrics and health endpoints.
func New(cfg Config, check ReadyChecker, log *logger.Logger) (HTTPServer, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.MetricsPath, promhttp.Handler())
	mux.HandleFunc(cfg.HealthzPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc(cfg.ReadyzPath, func(w http.ResponseWriter, _ *http.Request) {
		if err := check(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("NOT READY: %v", err)))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	hlog := log.Named("http-server")
	httpSrv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      requestLogging(mux, hlog),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &server{
		httpServer:      httpSrv,
		shutdownTimeout: cfg.ShutdownTimeout,
		check:           check,
		log:             hlog,
	}, nil
}

// requestLogging stamps each request context with a request ID, plus the
// inbound trace ID when the caller propagates one, so handler logs correlate.
func requestLogging(next http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			ctx = logger.ContextWithTraceID(ctx, sc.TraceID().String())
		}
		ctx = logger.ContextWithRequestID(ctx, uuid.NewString())

		log.WithContext(ctx).Debug("http: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start runs ListenAndServe and gracefully shuts down on ctx.Done().
func (s *server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http: starting server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("httpserver: listen: %w", err)
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.log.Info("http: shutdown signal received")
		serveErr = ctx.Err()
	case err := <-errCh:
		serveErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http: graceful shutdown failed", zap.Error(err))
		return err
	}
	s.log.Info("http: server stopped gracefully")

	return serveErr
}

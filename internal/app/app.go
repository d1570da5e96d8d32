// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecosystem-trading/ibconnect/internal/config"
	"github.com/ecosystem-trading/ibconnect/pkg/connector"
	"github.com/ecosystem-trading/ibconnect/pkg/gateway"
	"github.com/ecosystem-trading/ibconnect/pkg/httpserver"
	"github.com/ecosystem-trading/ibconnect/pkg/logger"
	"github.com/ecosystem-trading/ibconnect/pkg/telemetry"
)

// Run wires the connector and its observability surface and blocks until
// ctx is cancelled or a component fails.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	gateway.RegisterMetrics(nil)
	connector.RegisterMetrics(nil)

	cfg.Telemetry.ServiceName = cfg.ServiceName
	cfg.Telemetry.ServiceVersion = cfg.ServiceVersion
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownSafe(ctx, "telemetry", func() error { return shutdownTracer(ctx) }, log)

	conn, err := connector.New(cfg.Gateway, log)
	if err != nil {
		return fmt.Errorf("connector init: %w", err)
	}
	defer shutdownSafe(ctx, "gateway-session", conn.Close, log)

	readiness := func() error {
		if !conn.IsReady() {
			return gateway.ErrNotReady
		}
		return nil
	}
	httpSrv, err := httpserver.New(cfg.HTTP, readiness, log)
	if err != nil {
		return fmt.Errorf("httpserver init: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Start(ctx) })
	g.Go(func() error { return conn.Start(ctx) })

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.WithContext(ctx).Info("connector stopped by context")
			return nil
		}
		return err
	}
	return nil
}

// shutdownSafe wraps a Close()/Shutdown() call with logging.
func shutdownSafe(ctx context.Context, name string, fn func() error, log *logger.Logger) {
	log.WithContext(ctx).Info(fmt.Sprintf("%s: shutting down", name))
	if err := fn(); err != nil {
		log.WithContext(ctx).Error(fmt.Sprintf("%s shutdown error", name), zap.Error(err))
	} else {
		log.WithContext(ctx).Info(fmt.Sprintf("%s: shutdown complete", name))
	}
}

// pkg/telemetry/otel.go
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"

	"github.com/ecosystem-trading/ibconnect/pkg/logger"
)

// Config holds OTLP exporter settings.
type Config struct {
	Endpoint       string `mapstructure:"otel_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
	ServiceName    string `mapstructure:"-"`
	ServiceVersion string `mapstructure:"-"`
}

// InitTracer configures the global TracerProvider with an OTLP/gRPC exporter.
// The returned shutdown function must be called on graceful shutdown.
func InitTracer(ctx context.Context, cfg Config, log *logger.Logger) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("telemetry: endpoint is required")
	}
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("telemetry: service name is required")
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithReconnectionPeriod(5 * time.Second),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(initCtx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	log.Info("telemetry: tracer initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("service", cfg.ServiceName),
		zap.String("version", cfg.ServiceVersion),
	)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("telemetry: tracer shutdown failed", zap.Error(err))
			return err
		}
		log.Info("telemetry: tracer shutdown complete")
		return nil
	}
	return shutdown, nil
}

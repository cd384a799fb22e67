package exporters

import (
	"context"
	"fmt"
	"time"

	"entitlement-controlplane/pkg/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
)

const (
	startTimeout  = 10 * time.Second
	exportTimeout = 5 * time.Second
)

// httpOptions maps the OTEL section onto the OTLP/HTTP client.
func httpOptions(cfg *config.Config) []otlptracehttp.Option {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Otel.Addr),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
		otlptracehttp.WithTimeout(exportTimeout),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
			Enabled:         true,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  time.Minute,
		}),
	}
	if cfg.Otel.URLPath != "" {
		opts = append(opts, otlptracehttp.WithURLPath(cfg.Otel.URLPath))
	}
	if cfg.Otel.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// ProvideHTTP builds the span exporter. The collector is only contacted on
// export, so an unreachable OTEL.ADDR does not fail start-up.
func ProvideHTTP(cfg *config.Config) (*otlptrace.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(httpOptions(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("otlp http exporter for %s: %w", cfg.Otel.Addr, err)
	}
	return exporter, nil
}

// Package telemetry wires the OpenTelemetry meter provider and the
// Prometheus scrape endpoint.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Provider struct {
	mp      *sdkmetric.MeterProvider
	handler http.Handler
}

// Setup builds a meter provider for exporter ("prometheus", "stdout" or
// "none") and installs it globally.
func Setup(exporter string) (*Provider, error) {
	reader, handler, err := newReader(exporter)
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	return &Provider{mp: mp, handler: handler}, nil
}

func newReader(name string) (sdkmetric.Reader, http.Handler, error) {
	switch name {
	case "prometheus":
		reg := promclient.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exp, err := prometheus.New(prometheus.WithRegisterer(reg))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		return exp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), http.NotFoundHandler(), nil
	case "none", "":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), http.NotFoundHandler(), nil
	default:
		return nil, nil, fmt.Errorf("unknown metrics exporter: %q", name)
	}
}

func (p *Provider) Meter(name string) metric.Meter {
	return p.mp.Meter(name)
}

// Handler serves /metrics. It answers 404 unless the prometheus exporter
// is active.
func (p *Provider) Handler() http.Handler {
	return p.handler
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}

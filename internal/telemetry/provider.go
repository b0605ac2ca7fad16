package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Provider owns the SDK meter provider and the Prometheus registry it
// exports to.
type Provider struct {
	mp       *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// NewPrometheus builds a meter provider whose instruments are scraped through
// Handler. Each provider has its own registry so tests can run side by side.
func NewPrometheus(serviceName, missionID string) (*Provider, error) {
	reg := prometheus.NewRegistry()
	exp, err := otelprom.New(
		otelprom.WithRegisterer(reg),
		otelprom.WithNamespace("skyduel"),
		otelprom.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		attribute.String("mission.id", missionID),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exp),
		sdkmetric.WithResource(res),
	)
	return &Provider{mp: mp, registry: reg}, nil
}

func (p *Provider) MeterProvider() metric.MeterProvider { return p.mp }

// Handler serves the Prometheus text exposition of every instrument.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}

// RuntimeStats is sampled on every collection by RegisterRuntime.
type RuntimeStats struct {
	Tick          uint64
	IndexQueue    int
	IndexDropped  map[string]uint64
	HasIndexStats bool
}

// RegisterRuntime exposes the mission tick and index writer backlog as
// observable instruments read from stats at collection time.
func RegisterRuntime(mp metric.MeterProvider, stats func() RuntimeStats) error {
	m := meter(mp)
	tick, err := m.Int64ObservableGauge("mission.tick", metric.WithDescription("Current mission tick"))
	if err != nil {
		return fmt.Errorf("creating tick gauge: %w", err)
	}
	queue, err := m.Int64ObservableGauge("index.queue_depth", metric.WithDescription("Index writer backlog"))
	if err != nil {
		return fmt.Errorf("creating index queue gauge: %w", err)
	}
	dropped, err := m.Int64ObservableCounter("index.dropped", metric.WithDescription("Index writes dropped because the queue was full"))
	if err != nil {
		return fmt.Errorf("creating index drop counter: %w", err)
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(tick, int64(s.Tick))
		if !s.HasIndexStats {
			return nil
		}
		o.ObserveInt64(queue, int64(s.IndexQueue))
		for kind, n := range s.IndexDropped {
			o.ObserveInt64(dropped, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
		}
		return nil
	}, tick, queue, dropped)
	if err != nil {
		return fmt.Errorf("registering runtime callback: %w", err)
	}
	return nil
}

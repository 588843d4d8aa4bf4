package respcache

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"

// Stats is a point in time snapshot of cache activity.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Stores    int64 `json:"stores"`
	Errors    int64 `json:"errors"`
	Evictions int64 `json:"evictions"`
}

type metrics struct {
	hits, misses, stores, errors, evictions atomic.Int64

	hitCounter      metric.Int64Counter
	missCounter     metric.Int64Counter
	storeCounter    metric.Int64Counter
	errorCounter    metric.Int64Counter
	evictionCounter metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}
	m := &metrics{}
	var err error
	if m.hitCounter, err = meter.Int64Counter("respcache.hits",
		metric.WithDescription("Responses served from the cache"),
		metric.WithUnit("{response}")); err != nil {
		return nil, err
	}
	if m.missCounter, err = meter.Int64Counter("respcache.misses",
		metric.WithDescription("Cacheable requests that reached the handler"),
		metric.WithUnit("{response}")); err != nil {
		return nil, err
	}
	if m.storeCounter, err = meter.Int64Counter("respcache.stores",
		metric.WithDescription("Responses written to the cache"),
		metric.WithUnit("{response}")); err != nil {
		return nil, err
	}
	if m.errorCounter, err = meter.Int64Counter("respcache.errors",
		metric.WithDescription("Cache store failures; the request is served uncached"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if m.evictionCounter, err = meter.Int64Counter("respcache.evictions",
		metric.WithDescription("Entries removed by invalidation or sweeps"),
		metric.WithUnit("{entry}")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) hit(ctx context.Context, route string) {
	m.hits.Add(1)
	m.hitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

func (m *metrics) miss(ctx context.Context, route string) {
	m.misses.Add(1)
	m.missCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

func (m *metrics) store(ctx context.Context, route string) {
	m.stores.Add(1)
	m.storeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

func (m *metrics) failure(ctx context.Context, op string) {
	m.errors.Add(1)
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *metrics) evicted(ctx context.Context, reason string, n int) {
	if n <= 0 {
		return
	}
	m.evictions.Add(int64(n))
	m.evictionCounter.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *metrics) snapshot() Stats {
	return Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Stores:    m.stores.Load(),
		Errors:    m.errors.Load(),
		Evictions: m.evictions.Load(),
	}
}

package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/vikenamera/CraftVersee/internal/kv"
)

type countingCounter struct {
	noop.Int64Counter
	mu    sync.Mutex
	total int64
}

func (c *countingCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += incr
}

func (c *countingCounter) value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

type recordingMeter struct {
	noop.Meter
	counters map[string]*countingCounter
}

func (m *recordingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	c := &countingCounter{}
	m.counters[name] = c
	return c, nil
}

func TestServiceRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	meter := &recordingMeter{counters: map[string]*countingCounter{}}
	store := &failingStore{getErr: errors.New("disk offline"), setErr: errors.New("disk offline")}

	svc, err := NewService(ServiceDeps{Store: store, Meter: meter})
	require.NoError(t, err)

	_, err = svc.Add(ctx, "erin", Candidate{Title: "A", Price: 1, QuantityToAdd: 3})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "erin", Candidate{Title: "A", Price: 1, QuantityToAdd: 0})
	require.NoError(t, err)

	require.Equal(t, int64(4), meter.counters["market.cart.additions"].value())
	require.Equal(t, int64(2), meter.counters["market.cart.persist_failures"].value())
	// The record stays unread, so every access retries the load and skips the write.
	require.Equal(t, int64(2), meter.counters["market.cart.load_degraded"].value())
}

func TestServiceAcceptsNoopMeter(t *testing.T) {
	svc, err := NewService(ServiceDeps{Store: kv.NewMemoryStore(), Meter: noop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)

	result, err := svc.Add(context.Background(), "finn", Candidate{Title: "A", QuantityToAdd: 2})
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
}

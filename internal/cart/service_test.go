package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikenamera/CraftVersee/internal/domain"
	"github.com/vikenamera/CraftVersee/internal/kv"
)

func newTestService(t *testing.T, store kv.Store) *Service {
	t.Helper()
	svc, err := NewService(ServiceDeps{Store: store, CacheSize: 8})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(ServiceDeps{})
	require.Error(t, err)
}

func TestServiceRequiresShopper(t *testing.T) {
	svc := newTestService(t, kv.NewMemoryStore())
	_, err := svc.Add(context.Background(), " ", Candidate{Title: "A"})
	require.ErrorIs(t, err, ErrShopperRequired)
	_, err = svc.Cart(context.Background(), "")
	require.ErrorIs(t, err, ErrShopperRequired)
}

func TestServiceAddPersistsPerShopper(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	svc := newTestService(t, backend)

	_, err := svc.Add(ctx, "alice", Candidate{Title: "A", Price: 100, QuantityToAdd: 2})
	require.NoError(t, err)
	result, err := svc.Add(ctx, "alice", Candidate{Title: "A", Price: 100, QuantityToAdd: 3})
	require.NoError(t, err)
	require.NoError(t, result.PersistErr)
	require.Equal(t, 5, result.Total)

	_, err = svc.Add(ctx, "bob", Candidate{Title: "B", Price: 200, QuantityToAdd: 1})
	require.NoError(t, err)

	raw, err := backend.Get(ctx, "shopper/alice/cart")
	require.NoError(t, err)
	require.JSONEq(t, `[{"title":"A","price":100,"imageSrc":"","quantity":5}]`, raw)

	count, err := svc.Count(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestServiceLoadsPreviouslyPersistedCart(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	require.NoError(t, backend.Set(ctx, "shopper/carol/cart", `[{"title":"A","price":1,"imageSrc":"x","quantity":2},{"title":"B","price":2,"imageSrc":"y","quantity":3}]`))

	svc := newTestService(t, backend)
	count, err := svc.Count(ctx, "carol")
	require.NoError(t, err)
	require.Equal(t, 5, count)
}

func TestServiceKeepsInMemoryCartWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{setErr: errors.New("quota exceeded")}
	store.getErr = kv.ErrNotFound
	svc := newTestService(t, store)

	first, err := svc.Add(ctx, "dave", Candidate{Title: "A", Price: 1, QuantityToAdd: 1})
	require.NoError(t, err)
	require.Error(t, first.PersistErr)

	second, err := svc.Add(ctx, "dave", Candidate{Title: "A", Price: 1, QuantityToAdd: 1})
	require.NoError(t, err)
	require.Error(t, second.PersistErr)
	require.Equal(t, 2, second.Total, "unsaved additions stay in the session cart")

	cart, err := svc.Cart(ctx, "dave")
	require.NoError(t, err)
	require.Equal(t, []domain.CartLineItem{{Title: "A", Price: 1, Quantity: 2}}, cart.Items)
}

func TestServiceCorruptRecordDegradesToEmptyCart(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	require.NoError(t, backend.Set(ctx, "shopper/erin/cart", "not json"))
	svc := newTestService(t, backend)

	cart, err := svc.Cart(ctx, "erin")
	require.ErrorIs(t, err, ErrCorruptCart)
	require.Empty(t, cart.Items)

	result, err := svc.Add(ctx, "erin", Candidate{Title: "A", Price: 1, QuantityToAdd: 1})
	require.NoError(t, err)
	require.NoError(t, result.PersistErr)
	require.Equal(t, 1, result.Total)
}

func TestServiceConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	svc := newTestService(t, backend)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shopper := fmt.Sprintf("s%d", i%3)
			_, err := svc.Add(ctx, shopper, Candidate{Title: "A", Price: 1, QuantityToAdd: 1})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 3; i++ {
		fresh := NewStore(kv.Namespace(backend, fmt.Sprintf("shopper/s%d", i)), nil)
		cart, err := fresh.Load(ctx)
		require.NoError(t, err)
		total += TotalQuantity(cart)
	}
	require.Equal(t, workers, total)
}

func TestServiceReturnsCopies(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore())
	result, err := svc.Add(ctx, "frank", Candidate{Title: "A", Price: 1, QuantityToAdd: 1})
	require.NoError(t, err)

	result.Cart.Items[0].Quantity = 99
	cart, err := svc.Cart(ctx, "frank")
	require.NoError(t, err)
	require.Equal(t, 1, cart.Items[0].Quantity)
}

// flakyStore fails the first reads before serving the wrapped store.
type flakyStore struct {
	kv.Store
	mu        sync.Mutex
	failReads int
	writes    int
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	if f.failReads > 0 {
		f.failReads--
		f.mu.Unlock()
		return "", kv.ErrUnavailable
	}
	f.mu.Unlock()
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	return f.Store.Set(ctx, key, value)
}

func TestServiceUnreadableRecordIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	first := newTestService(t, backend)
	_, err := first.Add(ctx, "s1", Candidate{Title: "x", Price: 1, QuantityToAdd: 5})
	require.NoError(t, err)

	flaky := &flakyStore{Store: backend, failReads: 1}
	second := newTestService(t, flaky)
	result, err := second.Add(ctx, "s1", Candidate{Title: "y"})
	require.NoError(t, err)
	require.ErrorIs(t, result.PersistErr, ErrWriteSkipped)
	require.ErrorIs(t, result.PersistErr, kv.ErrUnavailable)
	require.Equal(t, 1, result.Total, "the addition is kept for the session")
	require.Zero(t, flaky.writes)

	raw, err := backend.Get(ctx, "shopper/s1/cart")
	require.NoError(t, err)
	require.JSONEq(t, `[{"title":"x","price":1,"imageSrc":"","quantity":5}]`, raw)

	cart, err := second.Cart(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []domain.CartLineItem{
		{Title: "x", Price: 1, Quantity: 5},
		{Title: "y", Quantity: 1},
	}, cart.Items)

	raw, err = backend.Get(ctx, "shopper/s1/cart")
	require.NoError(t, err)
	require.JSONEq(t, `[{"title":"x","price":1,"imageSrc":"","quantity":5},{"title":"y","price":0,"imageSrc":"","quantity":1}]`, raw)
}

func TestServiceRetriesLoadWhileRecordUnreadable(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	require.NoError(t, backend.Set(ctx, "shopper/gail/cart", `[{"title":"A","price":1,"imageSrc":"","quantity":2}]`))
	flaky := &flakyStore{Store: backend, failReads: 2}
	svc := newTestService(t, flaky)

	_, err := svc.Add(ctx, "gail", Candidate{Title: "A", Price: 1})
	require.NoError(t, err)
	result, err := svc.Add(ctx, "gail", Candidate{Title: "B", Price: 2})
	require.NoError(t, err)
	require.ErrorIs(t, result.PersistErr, ErrWriteSkipped)

	result, err = svc.Add(ctx, "gail", Candidate{Title: "A", Price: 1})
	require.NoError(t, err)
	require.NoError(t, result.PersistErr)
	require.Equal(t, 5, result.Total)
	require.Equal(t, 1, flaky.writes)
}

func TestServiceKeepsUnsavedCartAcrossEviction(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{getErr: kv.ErrNotFound, setErr: errors.New("quota exceeded")}
	svc, err := NewService(ServiceDeps{Store: store, CacheSize: 1})
	require.NoError(t, err)

	_, err = svc.Add(ctx, "hana", Candidate{Title: "A", Price: 1, QuantityToAdd: 2})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "ivan", Candidate{Title: "B", Price: 1})
	require.NoError(t, err)

	count, err := svc.Count(ctx, "hana")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	store.setErr = nil
	count, err = svc.Count(ctx, "ivan")
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.JSONEq(t, `[{"title":"B","price":1,"imageSrc":"","quantity":1}]`, store.value)
}

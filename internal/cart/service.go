package cart

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vikenamera/CraftVersee/internal/domain"
	"github.com/vikenamera/CraftVersee/internal/kv"
)

const (
	defaultCacheSize = 1024
	lockStripes      = 64
	shopperNamespace = "shopper"
	metricNamespace  = "github.com/vikenamera/CraftVersee/internal/cart"
)

var (
	// ErrWriteSkipped indicates the cart was not written because its stored record could not
	// be read first.
	ErrWriteSkipped         = errors.New("cart service: write skipped, stored cart unread")
	errServiceStoreRequired = errors.New("cart service: store is required")
	// ErrShopperRequired indicates the request carried no shopper session.
	ErrShopperRequired = errors.New("cart service: shopper id is required")
)

// ServiceDeps wires the collaborators of the cart service.
type ServiceDeps struct {
	Store     kv.Store
	Logger    *zap.Logger
	CacheSize int
	Tracer    trace.Tracer
	Meter     metric.Meter
}

// Service serializes cart transactions per shopper and keeps each shopper's in-memory cart
// as the source of truth for the session.
type Service struct {
	base   kv.Store
	logger *zap.Logger
	tracer trace.Tracer
	carts  *lru.Cache
	locks  [lockStripes]sync.Mutex

	// parked holds carts with unsaved changes that the cache evicted.
	parkedMu sync.Mutex
	parked   map[string]session

	additions       metric.Int64Counter
	persistFailures metric.Int64Counter
	loadDegraded    metric.Int64Counter
}

// session is one shopper's in-memory cart.
type session struct {
	cart domain.Cart
	// pending lists additions made while the stored record could not be read. They are
	// replayed onto the record once it loads.
	pending []Candidate
	unread  bool
	dirty   bool
}

func (e session) unsynced() bool {
	return e.unread || e.dirty
}

// AddResult reports the outcome of an addition. PersistErr is set when the cart changed in
// memory but could not be saved.
type AddResult struct {
	Cart       domain.Cart
	Total      int
	PersistErr error
}

// NewService constructs a Service enforcing dependency validation.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Store == nil {
		return nil, errServiceStoreRequired
	}
	size := deps.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/vikenamera/CraftVersee/internal/cart")
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	svc := &Service{
		base:   deps.Store,
		logger: logger,
		tracer: tracer,
		parked: make(map[string]session),
	}
	cache, err := lru.NewWithEvict(size, svc.onEvicted)
	if err != nil {
		return nil, err
	}
	svc.carts = cache
	svc.additions = newCounter(meter, logger, "market.cart.additions", "Count of products added to shopper carts")
	svc.persistFailures = newCounter(meter, logger, "market.cart.persist_failures", "Count of cart writes that failed or were skipped")
	svc.loadDegraded = newCounter(meter, logger, "market.cart.load_degraded", "Count of cart loads that fell back to an empty cart")
	return svc, nil
}

func newCounter(meter metric.Meter, logger *zap.Logger, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		logger.Warn("cart: unable to register metric", zap.String("metric", name), zap.Error(err))
		return nil
	}
	return counter
}

func record(ctx context.Context, counter metric.Int64Counter, incr int64) {
	if counter != nil {
		counter.Add(ctx, incr)
	}
}

func (s *Service) lockFor(shopperID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(shopperID))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *Service) storeFor(shopperID string) *Store {
	return NewStore(kv.Namespace(s.base, shopperNamespace+"/"+shopperID), s.logger)
}

// onEvicted runs under the cache lock. The evicted value is the newest for its key, so it
// replaces anything parked earlier.
func (s *Service) onEvicted(key, value interface{}) {
	shopperID, _ := key.(string)
	entry, ok := value.(session)
	s.parkedMu.Lock()
	defer s.parkedMu.Unlock()
	if ok && entry.unsynced() {
		s.parked[shopperID] = entry
		return
	}
	delete(s.parked, shopperID)
}

func (s *Service) lookup(shopperID string) (session, bool) {
	if cached, ok := s.carts.Get(shopperID); ok {
		return cached.(session), true
	}
	s.parkedMu.Lock()
	entry, ok := s.parked[shopperID]
	delete(s.parked, shopperID)
	s.parkedMu.Unlock()
	if ok {
		s.carts.Add(shopperID, entry)
	}
	return entry, ok
}

// current returns the session cart, loading it lazily on first access and retrying the
// load while the stored record stays unread. Callers hold the shopper lock.
func (s *Service) current(ctx context.Context, shopperID string) (session, error) {
	entry, ok := s.lookup(shopperID)
	if ok && !entry.unread {
		return entry, nil
	}
	loaded, err := s.storeFor(shopperID).Load(ctx)
	if err != nil {
		record(ctx, s.loadDegraded, 1)
		if !errors.Is(err, ErrCorruptCart) {
			if !ok {
				entry = session{unread: true}
			}
			return entry, err
		}
	}
	next := session{cart: loaded}
	for _, candidate := range entry.pending {
		next.cart = AddOrMerge(next.cart, candidate)
	}
	next.dirty = len(entry.pending) > 0
	s.carts.Add(shopperID, next)
	return next, err
}

// persist writes the session cart and records whether the store accepted it.
func (s *Service) persist(ctx context.Context, shopperID string, entry *session) error {
	err := s.storeFor(shopperID).Persist(ctx, entry.cart)
	entry.dirty = err != nil
	if err != nil {
		record(ctx, s.persistFailures, 1)
	}
	return err
}

// Cart returns the shopper's cart. A degraded load still returns a usable cart alongside
// the cause. Unsaved changes are written again on access.
func (s *Service) Cart(ctx context.Context, shopperID string) (domain.Cart, error) {
	shopperID = strings.TrimSpace(shopperID)
	if shopperID == "" {
		return domain.Cart{}, ErrShopperRequired
	}
	ctx, span := s.tracer.Start(ctx, "cart.Load", trace.WithAttributes(attribute.String("shopper.id", shopperID)))
	defer span.End()

	lock := s.lockFor(shopperID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.current(ctx, shopperID)
	if err != nil {
		span.RecordError(err)
	}
	if entry.dirty && !entry.unread {
		if perr := s.persist(ctx, shopperID, &entry); perr != nil {
			span.RecordError(perr)
		}
		s.carts.Add(shopperID, entry)
	}
	span.SetAttributes(attribute.Int("cart.items", len(entry.cart.Items)))
	return entry.cart.Clone(), err
}

// Count returns the total quantity across the shopper's cart.
func (s *Service) Count(ctx context.Context, shopperID string) (int, error) {
	cart, err := s.Cart(ctx, shopperID)
	return TotalQuantity(cart), err
}

// Add merges the candidate into the shopper's cart and persists the whole cart as one
// transaction. A failed write does not fail the addition. While the stored record cannot
// be read the write is skipped, so the record is never replaced by a cart built without it.
func (s *Service) Add(ctx context.Context, shopperID string, candidate Candidate) (AddResult, error) {
	shopperID = strings.TrimSpace(shopperID)
	if shopperID == "" {
		return AddResult{}, ErrShopperRequired
	}
	ctx, span := s.tracer.Start(ctx, "cart.Add", trace.WithAttributes(
		attribute.String("shopper.id", shopperID),
		attribute.Int("cart.quantity_requested", candidate.QuantityToAdd),
	))
	defer span.End()

	lock := s.lockFor(shopperID)
	lock.Lock()
	defer lock.Unlock()

	entry, loadErr := s.current(ctx, shopperID)
	if loadErr != nil && (errors.Is(loadErr, context.Canceled) || errors.Is(loadErr, context.DeadlineExceeded)) {
		span.SetStatus(codes.Error, loadErr.Error())
		return AddResult{}, loadErr
	}

	entry.cart = AddOrMerge(entry.cart, candidate)
	record(ctx, s.additions, int64(candidate.normalizedQuantity()))

	result := AddResult{Cart: entry.cart.Clone(), Total: TotalQuantity(entry.cart)}
	if entry.unread {
		entry.pending = append(append([]Candidate(nil), entry.pending...), candidate)
		record(ctx, s.persistFailures, 1)
		result.PersistErr = fmt.Errorf("%w: %w", ErrWriteSkipped, loadErr)
	} else if err := s.persist(ctx, shopperID, &entry); err != nil {
		result.PersistErr = err
	}
	if result.PersistErr != nil {
		span.RecordError(result.PersistErr)
	}
	s.carts.Add(shopperID, entry)
	span.SetAttributes(attribute.Int("cart.total_quantity", result.Total))
	return result, nil
}

// Package cart maintains the shopper's cart in a key-value slot. Loading and persisting
// never leave the cart unusable: a missing or damaged record reads as an empty cart and a
// failed write keeps the in-memory cart authoritative, while the returned error lets
// callers observe the degraded path.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vikenamera/CraftVersee/internal/catalog"
	"github.com/vikenamera/CraftVersee/internal/domain"
	"github.com/vikenamera/CraftVersee/internal/kv"
	"github.com/vikenamera/CraftVersee/internal/platform/requestctx"
)

// SlotKey is the key holding the serialized cart.
const SlotKey = "cart"

// ErrCorruptCart indicates the stored record could not be decoded.
var ErrCorruptCart = errors.New("cart: stored record is corrupt")

// Candidate describes a product the shopper wants to add.
type Candidate struct {
	Title         string
	Price         int
	ImageSrc      string
	QuantityToAdd int
}

// CandidateFromCard builds a candidate from a product card, deriving the price once.
func CandidateFromCard(card domain.ProductCard, quantity int) Candidate {
	return Candidate{
		Title:         card.Title,
		Price:         catalog.ExtractPrice(card.PriceText),
		ImageSrc:      card.ImageURL,
		QuantityToAdd: quantity,
	}
}

func (c Candidate) normalizedQuantity() int {
	if c.QuantityToAdd <= 0 {
		return 1
	}
	return c.QuantityToAdd
}

// Store reads and writes one shopper's cart slot.
type Store struct {
	slot   kv.Store
	logger *zap.Logger
}

// NewStore binds a store to a key-value slot. The logger is used when the request context
// carries none.
func NewStore(slot kv.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{slot: slot, logger: logger}
}

func (s *Store) log(ctx context.Context) *zap.Logger {
	if logger := requestctx.Logger(ctx); logger != requestctx.NoopLogger() {
		return logger
	}
	return s.logger
}

// Load returns the persisted cart. An absent record yields an empty cart and no error; an
// unreadable or undecodable record yields an empty cart together with the cause.
func (s *Store) Load(ctx context.Context) (domain.Cart, error) {
	if s == nil || s.slot == nil {
		return domain.Cart{}, kv.ErrUnavailable
	}
	raw, err := s.slot.Get(ctx, SlotKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return domain.Cart{}, nil
		}
		s.log(ctx).Warn("cart.load_degraded", zap.Error(err))
		return domain.Cart{}, fmt.Errorf("cart: load: %w", err)
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log(ctx).Warn("cart.load_degraded", zap.Error(err), zap.Int("bytes", len(raw)))
		return domain.Cart{}, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	return domain.Cart{Items: items}, nil
}

// Persist writes the whole cart. Failures are logged and returned; the caller keeps its
// in-memory cart.
func (s *Store) Persist(ctx context.Context, cart domain.Cart) error {
	if s == nil || s.slot == nil {
		return kv.ErrUnavailable
	}
	items := cart.Items
	if items == nil {
		items = []domain.CartLineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		s.log(ctx).Warn("cart.persist_failed", zap.Error(err))
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := s.slot.Set(ctx, SlotKey, string(payload)); err != nil {
		s.log(ctx).Warn("cart.persist_failed", zap.Error(err), zap.Int("items", len(items)))
		return fmt.Errorf("cart: persist: %w", err)
	}
	return nil
}

// AddOrMerge returns a new cart with the candidate merged into the line item sharing its
// identity, or appended when none does. Non-positive quantities count as 1. The input cart
// is left untouched.
func AddOrMerge(cart domain.Cart, candidate Candidate) domain.Cart {
	quantity := candidate.normalizedQuantity()
	item := domain.CartLineItem{
		Title:    candidate.Title,
		Price:    candidate.Price,
		ImageSrc: candidate.ImageSrc,
		Quantity: quantity,
	}

	next := cart.Clone()
	for i := range next.Items {
		if next.Items[i].SameProduct(item) {
			next.Items[i].Quantity += quantity
			return next
		}
	}
	next.Items = append(next.Items, item)
	return next
}

// TotalQuantity sums the quantities of every line item.
func TotalQuantity(cart domain.Cart) int {
	total := 0
	for _, item := range cart.Items {
		total += item.Quantity
	}
	return total
}

// ParseQuantity reads a quantity field leniently ("3 pcs" => 3). Missing, malformed or
// non-positive values yield 1.
func ParseQuantity(raw string) int {
	value, ok := catalog.ParseLeadingInt(raw)
	if !ok || value <= 0 {
		return 1
	}
	return value
}

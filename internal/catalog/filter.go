package catalog

import (
	"fmt"
	"strings"

	"github.com/vikenamera/CraftVersee/internal/domain"
)

const (
	// DefaultCurrencyUnit is appended to the price range label.
	DefaultCurrencyUnit = "Lekë"
	// DefaultMinPrice applies when the minimum price input is absent or non-numeric.
	DefaultMinPrice = 0
	// DefaultMaxPrice applies when the maximum price input is absent or non-numeric.
	DefaultMaxPrice = 10000
)

// Engine evaluates filter criteria against product cards. It holds no state besides its
// configuration, so a single instance is shared by all requests.
type Engine struct {
	unit       string
	defaultMin int
	defaultMax int
}

// EngineOption customises the Engine.
type EngineOption func(*Engine)

// WithCurrencyUnit overrides the currency token used in the range label.
func WithCurrencyUnit(unit string) EngineOption {
	return func(e *Engine) {
		if trimmed := strings.TrimSpace(unit); trimmed != "" {
			e.unit = trimmed
		}
	}
}

// WithDefaultRange overrides the bounds substituted for malformed price inputs.
func WithDefaultRange(minPrice, maxPrice int) EngineOption {
	return func(e *Engine) {
		e.defaultMin = minPrice
		e.defaultMax = maxPrice
	}
}

// NewEngine constructs an Engine with the storefront defaults.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		unit:       DefaultCurrencyUnit,
		defaultMin: DefaultMinPrice,
		defaultMax: DefaultMaxPrice,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Unit returns the configured currency token.
func (e *Engine) Unit() string { return e.unit }

// DefaultCriteria returns the criteria of an untouched filter panel.
func (e *Engine) DefaultCriteria() domain.FilterCriteria {
	return domain.FilterCriteria{MinPrice: e.defaultMin, MaxPrice: e.defaultMax}
}

// ParseCriteria coerces raw control values into criteria. Blank category values are
// dropped and malformed prices fall back to the engine defaults.
func (e *Engine) ParseCriteria(categories []string, minRaw, maxRaw string) domain.FilterCriteria {
	criteria := e.DefaultCriteria()
	if v, ok := ParseLeadingInt(minRaw); ok {
		criteria.MinPrice = v
	}
	if v, ok := ParseLeadingInt(maxRaw); ok {
		criteria.MaxPrice = v
	}
	for _, category := range categories {
		if trimmed := strings.TrimSpace(category); trimmed != "" {
			criteria.SelectedCategories = append(criteria.SelectedCategories, trimmed)
		}
	}
	return criteria
}

// Normalize returns criteria whose price range is ordered.
func Normalize(criteria domain.FilterCriteria) domain.FilterCriteria {
	if criteria.MinPrice > criteria.MaxPrice {
		criteria.MinPrice, criteria.MaxPrice = criteria.MaxPrice, criteria.MinPrice
	}
	return criteria
}

// Label formats the human readable price range, e.g. "200 - 800+ Lekë".
func (e *Engine) Label(minPrice, maxPrice int) string {
	return fmt.Sprintf("%d - %d+ %s", minPrice, maxPrice, e.unit)
}

// ApplyFilters computes the visibility of every card. A card is visible when its category
// is selected (or nothing is selected) and its extracted price lies within the range.
// The evaluation has no side effects; identical inputs give identical results.
func (e *Engine) ApplyFilters(criteria domain.FilterCriteria, cards []domain.ProductCard) domain.FilterResult {
	normalized := Normalize(criteria)

	selected := make(map[string]struct{}, len(normalized.SelectedCategories))
	for _, category := range normalized.SelectedCategories {
		selected[category] = struct{}{}
	}

	visibility := make(map[string]bool, len(cards))
	for _, card := range cards {
		visibility[card.ID] = matches(card, selected, normalized.MinPrice, normalized.MaxPrice)
	}

	return domain.FilterResult{
		DisplayLabel: e.Label(normalized.MinPrice, normalized.MaxPrice),
		MinPrice:     normalized.MinPrice,
		MaxPrice:     normalized.MaxPrice,
		Visibility:   visibility,
	}
}

func matches(card domain.ProductCard, selected map[string]struct{}, minPrice, maxPrice int) bool {
	if len(selected) > 0 {
		if _, ok := selected[card.Category]; !ok {
			return false
		}
	}
	price := ExtractPrice(card.PriceText)
	return price >= minPrice && price <= maxPrice
}

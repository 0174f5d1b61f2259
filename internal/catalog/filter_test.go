package catalog

import (
	"reflect"
	"testing"

	"github.com/vikenamera/CraftVersee/internal/domain"
)

func testCards() []domain.ProductCard {
	return []domain.ProductCard{
		{ID: "a", Category: "flowers", PriceText: "1.000 Lekë", Title: "Roses"},
		{ID: "b", Category: "flowers", PriceText: "2000 Lekë", Title: "Tulips"},
		{ID: "c", Category: "chocolate", PriceText: "500", Title: "Truffles"},
		{ID: "d", Category: "candles", PriceText: "falas", Title: "Sample"},
	}
}

func TestApplyFiltersPriceRangeWithoutCategories(t *testing.T) {
	engine := NewEngine()
	criteria := domain.FilterCriteria{MinPrice: 500, MaxPrice: 1500}

	result := engine.ApplyFilters(criteria, testCards())

	want := map[string]bool{"a": true, "b": false, "c": true, "d": false}
	if !reflect.DeepEqual(result.Visibility, want) {
		t.Fatalf("unexpected visibility: got %v want %v", result.Visibility, want)
	}
	if result.VisibleCount() != 2 {
		t.Fatalf("expected 2 visible cards, got %d", result.VisibleCount())
	}
}

func TestApplyFiltersExpensiveCardHiddenRegardlessOfCategory(t *testing.T) {
	engine := NewEngine()
	cards := []domain.ProductCard{{ID: "x", Category: "flowers", PriceText: "2000"}}

	for _, categories := range [][]string{nil, {"flowers"}, {"chocolate"}} {
		result := engine.ApplyFilters(domain.FilterCriteria{SelectedCategories: categories, MinPrice: 500, MaxPrice: 1500}, cards)
		if result.Visibility["x"] {
			t.Fatalf("expected card priced 2000 to be hidden for categories %v", categories)
		}
	}
}

func TestApplyFiltersCategoryConjunction(t *testing.T) {
	engine := NewEngine()
	criteria := domain.FilterCriteria{SelectedCategories: []string{"flowers"}, MinPrice: 0, MaxPrice: 10000}

	result := engine.ApplyFilters(criteria, testCards())

	want := map[string]bool{"a": true, "b": true, "c": false, "d": false}
	if !reflect.DeepEqual(result.Visibility, want) {
		t.Fatalf("unexpected visibility: got %v want %v", result.Visibility, want)
	}
}

func TestApplyFiltersCategoryMatchIsCaseSensitive(t *testing.T) {
	engine := NewEngine()
	criteria := domain.FilterCriteria{SelectedCategories: []string{"Flowers"}, MaxPrice: 10000}

	result := engine.ApplyFilters(criteria, testCards())
	if result.Visibility["a"] {
		t.Fatalf("expected category match to be case-sensitive")
	}
}

func TestApplyFiltersSwapsInvertedRange(t *testing.T) {
	engine := NewEngine()
	cards := testCards()

	inverted := engine.ApplyFilters(domain.FilterCriteria{MinPrice: 1500, MaxPrice: 500}, cards)
	ordered := engine.ApplyFilters(domain.FilterCriteria{MinPrice: 500, MaxPrice: 1500}, cards)

	if !reflect.DeepEqual(inverted, ordered) {
		t.Fatalf("expected inverted range to behave like ordered range: %+v vs %+v", inverted, ordered)
	}
	if inverted.MinPrice != 500 || inverted.MaxPrice != 1500 {
		t.Fatalf("expected normalized bounds 500/1500, got %d/%d", inverted.MinPrice, inverted.MaxPrice)
	}
}

func TestApplyFiltersIsDeterministic(t *testing.T) {
	engine := NewEngine()
	criteria := domain.FilterCriteria{SelectedCategories: []string{"flowers", "chocolate"}, MinPrice: 0, MaxPrice: 1200}
	cards := testCards()

	first := engine.ApplyFilters(criteria, cards)
	second := engine.ApplyFilters(criteria, cards)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if len(criteria.SelectedCategories) != 2 || criteria.MinPrice != 0 {
		t.Fatalf("criteria must not be mutated: %+v", criteria)
	}
}

func TestApplyFiltersNoDigitPriceIsZero(t *testing.T) {
	engine := NewEngine()
	cards := []domain.ProductCard{{ID: "free", PriceText: "Falas!"}}

	zeroRange := engine.ApplyFilters(domain.FilterCriteria{MinPrice: 0, MaxPrice: 0}, cards)
	if !zeroRange.Visibility["free"] {
		t.Fatalf("expected card without digits to be priced 0")
	}
	positive := engine.ApplyFilters(domain.FilterCriteria{MinPrice: 1, MaxPrice: 100}, cards)
	if positive.Visibility["free"] {
		t.Fatalf("expected card without digits to be excluded from a positive range")
	}
}

func TestApplyFiltersAcceptsNegativeBounds(t *testing.T) {
	engine := NewEngine()
	result := engine.ApplyFilters(domain.FilterCriteria{MinPrice: -50, MaxPrice: 600}, testCards())
	if result.MinPrice != -50 {
		t.Fatalf("expected negative minimum to be kept, got %d", result.MinPrice)
	}
	if result.DisplayLabel != "-50 - 600+ Lekë" {
		t.Fatalf("unexpected label %q", result.DisplayLabel)
	}
	if !result.Visibility["c"] || !result.Visibility["d"] {
		t.Fatalf("expected cards priced 500 and 0 to be visible: %v", result.Visibility)
	}
}

func TestLabelFormat(t *testing.T) {
	engine := NewEngine()
	if got := engine.Label(200, 800); got != "200 - 800+ Lekë" {
		t.Fatalf("unexpected label %q", got)
	}

	euro := NewEngine(WithCurrencyUnit("EUR"))
	result := euro.ApplyFilters(domain.FilterCriteria{MinPrice: 800, MaxPrice: 200}, nil)
	if result.DisplayLabel != "200 - 800+ EUR" {
		t.Fatalf("unexpected label %q", result.DisplayLabel)
	}
}

func TestParseCriteria(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name       string
		categories []string
		minRaw     string
		maxRaw     string
		want       domain.FilterCriteria
	}{
		{
			name: "absent inputs use defaults",
			want: domain.FilterCriteria{MinPrice: 0, MaxPrice: 10000},
		},
		{
			name:   "non numeric inputs use defaults",
			minRaw: "abc",
			maxRaw: "—",
			want:   domain.FilterCriteria{MinPrice: 0, MaxPrice: 10000},
		},
		{
			name:       "numeric prefixes and blank categories",
			categories: []string{"flowers", " ", "candles"},
			minRaw:     " 250 ",
			maxRaw:     "900px",
			want:       domain.FilterCriteria{SelectedCategories: []string{"flowers", "candles"}, MinPrice: 250, MaxPrice: 900},
		},
		{
			name:   "inverted values are kept for normalization",
			minRaw: "900",
			maxRaw: "100",
			want:   domain.FilterCriteria{MinPrice: 900, MaxPrice: 100},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.ParseCriteria(tc.categories, tc.minRaw, tc.maxRaw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestParseCriteriaCustomDefaults(t *testing.T) {
	engine := NewEngine(WithDefaultRange(100, 5000))
	got := engine.ParseCriteria(nil, "", "x")
	if got.MinPrice != 100 || got.MaxPrice != 5000 {
		t.Fatalf("expected configured defaults, got %+v", got)
	}
}

package domain

// ProductCard is a single card rendered in the storefront grid. Cards are read-only to the
// filter and cart components; the catalog file supplies them.
type ProductCard struct {
	ID        string
	Category  string
	PriceText string
	Title     string
	ImageURL  string
}

// Category labels a filter checkbox.
type Category struct {
	ID    string
	Label string
}

// Catalog groups the cards and the categories offered by the filter panel.
type Catalog struct {
	Categories []Category
	Cards      []ProductCard
}

// CardByID returns the card with the supplied identifier.
func (c Catalog) CardByID(id string) (ProductCard, bool) {
	for _, card := range c.Cards {
		if card.ID == id {
			return card, true
		}
	}
	return ProductCard{}, false
}

// FilterCriteria captures the state of the filter controls.
type FilterCriteria struct {
	SelectedCategories []string
	MinPrice           int
	MaxPrice           int
}

// FilterResult is the outcome of evaluating criteria against the grid.
type FilterResult struct {
	DisplayLabel string
	MinPrice     int
	MaxPrice     int
	Visibility   map[string]bool
}

// VisibleCount reports how many cards remain visible.
func (r FilterResult) VisibleCount() int {
	count := 0
	for _, visible := range r.Visibility {
		if visible {
			count++
		}
	}
	return count
}

// CartLineItem stores one product identity and its accumulated quantity. The JSON field
// names match the records already persisted by the storefront page.
type CartLineItem struct {
	Title    string `json:"title"`
	Price    int    `json:"price"`
	ImageSrc string `json:"imageSrc"`
	Quantity int    `json:"quantity"`
}

// SameProduct reports whether both line items share the (title, price, imageSrc) identity key.
func (i CartLineItem) SameProduct(other CartLineItem) bool {
	return i.Title == other.Title && i.Price == other.Price && i.ImageSrc == other.ImageSrc
}

// Cart is the ordered list of line items for a shopper.
type Cart struct {
	Items []CartLineItem
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make([]CartLineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

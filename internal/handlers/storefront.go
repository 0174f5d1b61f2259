package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vikenamera/CraftVersee/internal/cart"
	"github.com/vikenamera/CraftVersee/internal/catalog"
	"github.com/vikenamera/CraftVersee/internal/domain"
	custommw "github.com/vikenamera/CraftVersee/internal/middleware"
	"github.com/vikenamera/CraftVersee/internal/platform/requestctx"
)

const defaultPageTitle = "CraftVerse Market"

// StorefrontDeps wires the collaborators of the storefront page.
type StorefrontDeps struct {
	Catalog domain.Catalog
	Engine  *catalog.Engine
	Carts   *cart.Service
	Title   string
	Tracer  trace.Tracer
}

// StorefrontHandlers renders the product grid and evaluates filters.
type StorefrontHandlers struct {
	catalog domain.Catalog
	engine  *catalog.Engine
	carts   *cart.Service
	title   string
	tracer  trace.Tracer
}

type pageView struct {
	Title      string
	CSRFToken  string
	CartCount  int
	Categories []categoryOption
	Unit       string
	Min        int
	Max        int
	Label      string
	Grid       gridView
}

type categoryOption struct {
	ID      string
	Label   string
	Checked bool
}

type gridView struct {
	Cards        []cardView
	VisibleCount int
	CSRFToken    string
}

type cardView struct {
	ID        string
	Category  string
	ImageURL  string
	Title     string
	PriceText string
	Visible   bool
}

type filterResponse struct {
	Label        string          `json:"label"`
	Min          int             `json:"min"`
	Max          int             `json:"max"`
	VisibleCount int             `json:"visibleCount"`
	Visibility   map[string]bool `json:"visibility"`
}

// NewStorefrontHandlers constructs storefront handlers. A nil engine selects the defaults.
func NewStorefrontHandlers(deps StorefrontDeps) *StorefrontHandlers {
	engine := deps.Engine
	if engine == nil {
		engine = catalog.NewEngine()
	}
	title := deps.Title
	if title == "" {
		title = defaultPageTitle
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/vikenamera/CraftVersee/internal/handlers")
	}
	return &StorefrontHandlers{
		catalog: deps.Catalog,
		engine:  engine,
		carts:   deps.Carts,
		title:   title,
		tracer:  tracer,
	}
}

// Routes wires the storefront endpoints onto the provided router.
func (h *StorefrontHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.page)
	r.Get("/products", h.products)
	r.Get("/api/filter", h.filter)
}

func (h *StorefrontHandlers) criteria(r *http.Request) domain.FilterCriteria {
	q := r.URL.Query()
	return h.engine.ParseCriteria(q["category"], q.Get("min"), q.Get("max"))
}

func (h *StorefrontHandlers) apply(r *http.Request, criteria domain.FilterCriteria) domain.FilterResult {
	_, span := h.tracer.Start(r.Context(), "catalog.ApplyFilters", trace.WithAttributes(
		attribute.Int("filter.categories", len(criteria.SelectedCategories)),
		attribute.Int("filter.min", criteria.MinPrice),
		attribute.Int("filter.max", criteria.MaxPrice),
	))
	defer span.End()

	result := h.engine.ApplyFilters(criteria, h.catalog.Cards)
	span.SetAttributes(attribute.Int("filter.visible", result.VisibleCount()))
	return result
}

func (h *StorefrontHandlers) grid(result domain.FilterResult, csrf string) gridView {
	cards := make([]cardView, 0, len(h.catalog.Cards))
	for _, card := range h.catalog.Cards {
		cards = append(cards, cardView{
			ID:        card.ID,
			Category:  card.Category,
			ImageURL:  card.ImageURL,
			Title:     card.Title,
			PriceText: card.PriceText,
			Visible:   result.Visibility[card.ID],
		})
	}
	return gridView{Cards: cards, VisibleCount: result.VisibleCount(), CSRFToken: csrf}
}

func (h *StorefrontHandlers) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := custommw.SessionFromContext(ctx)
	criteria := h.criteria(r)
	result := h.apply(r, criteria)

	selected := make(map[string]struct{}, len(criteria.SelectedCategories))
	for _, id := range criteria.SelectedCategories {
		selected[id] = struct{}{}
	}
	categories := make([]categoryOption, 0, len(h.catalog.Categories))
	for _, c := range h.catalog.Categories {
		_, checked := selected[c.ID]
		categories = append(categories, categoryOption{ID: c.ID, Label: c.Label, Checked: checked})
	}

	view := pageView{
		Title:      h.title,
		CSRFToken:  session.CSRFToken,
		CartCount:  cartCount(r, h.carts, session.ID),
		Categories: categories,
		Unit:       h.engine.Unit(),
		Min:        criteria.MinPrice,
		Max:        criteria.MaxPrice,
		Label:      result.DisplayLabel,
		Grid:       h.grid(result, session.CSRFToken),
	}
	renderTemplate(w, r, http.StatusOK, "page", view)
}

func (h *StorefrontHandlers) products(w http.ResponseWriter, r *http.Request) {
	session := custommw.SessionFromContext(r.Context())
	criteria := h.criteria(r)
	result := h.apply(r, criteria)

	w.Header().Set("HX-Push-Url", h.pushURL(criteria))
	view := struct {
		Grid  gridView
		Label string
	}{
		Grid:  h.grid(result, session.CSRFToken),
		Label: result.DisplayLabel,
	}
	renderTemplate(w, r, http.StatusOK, "products_fragment", view)
}

func (h *StorefrontHandlers) filter(w http.ResponseWriter, r *http.Request) {
	result := h.apply(r, h.criteria(r))
	visibility := result.Visibility
	if visibility == nil {
		visibility = map[string]bool{}
	}
	writeJSONResponse(w, http.StatusOK, filterResponse{
		Label:        result.DisplayLabel,
		Min:          result.MinPrice,
		Max:          result.MaxPrice,
		VisibleCount: result.VisibleCount(),
		Visibility:   visibility,
	})
}

// pushURL mirrors the filter state into the address bar. The untouched panel maps to "/".
func (h *StorefrontHandlers) pushURL(criteria domain.FilterCriteria) string {
	defaults := h.engine.DefaultCriteria()
	values := url.Values{}
	for _, id := range criteria.SelectedCategories {
		values.Add("category", id)
	}
	if criteria.MinPrice != defaults.MinPrice {
		values.Set("min", strconv.Itoa(criteria.MinPrice))
	}
	if criteria.MaxPrice != defaults.MaxPrice {
		values.Set("max", strconv.Itoa(criteria.MaxPrice))
	}
	if len(values) == 0 {
		return "/"
	}
	return "/?" + values.Encode()
}

// cartCount reads the shopper's total quantity. A degraded store still yields the
// in-memory count, which is zero for a shopper whose cart never loaded.
func cartCount(r *http.Request, carts *cart.Service, shopperID string) int {
	if carts == nil || shopperID == "" {
		return 0
	}
	count, err := carts.Count(r.Context(), shopperID)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("cart count degraded", zap.Error(err))
	}
	return count
}

package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vikenamera/CraftVersee/internal/cart"
	"github.com/vikenamera/CraftVersee/internal/domain"
	custommw "github.com/vikenamera/CraftVersee/internal/middleware"
	"github.com/vikenamera/CraftVersee/internal/notify"
	"github.com/vikenamera/CraftVersee/internal/platform/requestctx"
)

const maxCartFormSize = 16 * 1024

// CartHandlers exposes the session cart of the current shopper.
type CartHandlers struct {
	catalog domain.Catalog
	carts   *cart.Service
}

type cartResponse struct {
	Items         []domain.CartLineItem `json:"items"`
	TotalQuantity int                   `json:"totalQuantity"`
}

// NewCartHandlers constructs cart handlers resolving card identifiers against the catalog.
func NewCartHandlers(catalog domain.Catalog, carts *cart.Service) *CartHandlers {
	return &CartHandlers{catalog: catalog, carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/cart", h.getCart)
	r.Get("/cart/count", h.count)
	r.Post("/cart/items", h.addItem)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeError(w, r, http.StatusServiceUnavailable, "cart_service_unavailable", "cart service is unavailable")
		return
	}
	c, err := h.carts.Cart(ctx, custommw.SessionFromContext(ctx).ID)
	if errors.Is(err, cart.ErrShopperRequired) {
		writeError(w, r, http.StatusUnauthorized, "session_required", "shopper session required")
		return
	}
	if err != nil {
		requestctx.Logger(ctx).Warn("cart read degraded", zap.Error(err))
	}
	items := c.Items
	if items == nil {
		items = []domain.CartLineItem{}
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Items: items, TotalQuantity: cart.TotalQuantity(c)})
}

func (h *CartHandlers) count(w http.ResponseWriter, r *http.Request) {
	total := cartCount(r, h.carts, custommw.SessionFromContext(r.Context()).ID)
	renderTemplate(w, r, http.StatusOK, "cart_count", total)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeError(w, r, http.StatusServiceUnavailable, "cart_service_unavailable", "cart service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCartFormSize)
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_form", "unable to parse form")
		return
	}

	cardID := strings.TrimSpace(r.PostForm.Get("card_id"))
	card, ok := h.catalog.CardByID(cardID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "card_not_found", "product card not found")
		return
	}

	candidate := cart.CandidateFromCard(card, cart.ParseQuantity(r.PostForm.Get("quantity")))
	result, err := h.carts.Add(ctx, custommw.SessionFromContext(ctx).ID, candidate)
	if err != nil {
		if errors.Is(err, cart.ErrShopperRequired) {
			writeError(w, r, http.StatusUnauthorized, "session_required", "shopper session required")
			return
		}
		writeError(w, r, http.StatusServiceUnavailable, "cart_unavailable", "cart is temporarily unavailable")
		return
	}

	logger := requestctx.Logger(ctx)
	if result.PersistErr != nil {
		logger.Warn("cart add kept in memory only", zap.String("card_id", card.ID), zap.Error(result.PersistErr))
	}
	logger.Info("cart item added",
		zap.String("card_id", card.ID),
		zap.Int("quantity", candidate.QuantityToAdd),
		zap.Int("total_quantity", result.Total),
	)

	if err := notify.Trigger(w, notify.New(notify.CartAddedMessage)); err != nil {
		logger.Warn("notification header failed", zap.Error(err))
	}

	switch {
	case wantsJSON(r):
		writeJSONResponse(w, http.StatusOK, cartResponse{Items: result.Cart.Items, TotalQuantity: result.Total})
	case custommw.IsHTMX(ctx):
		renderTemplate(w, r, http.StatusOK, "cart_count", result.Total)
	default:
		http.Redirect(w, r, backTarget(r), http.StatusSeeOther)
	}
}

// backTarget returns the same-origin page that submitted a plain form, or "/".
func backTarget(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vikenamera/CraftVersee/internal/catalog"
	"github.com/vikenamera/CraftVersee/internal/giftbox"
	custommw "github.com/vikenamera/CraftVersee/internal/middleware"
	"github.com/vikenamera/CraftVersee/internal/notify"
	"github.com/vikenamera/CraftVersee/internal/platform/requestctx"
)

const (
	maxGiftBoxFormSize = 32 * 1024
	giftBoxSentMessage = "Porosia u dërgua me sukses!"
)

// GiftBoxHandlers serves the gift-box order modal.
type GiftBoxHandlers struct {
	unit string
	now  func() time.Time
}

type giftBoxView struct {
	Error        string
	ErrorField   string
	CSRFToken    string
	Form         giftbox.Form
	Unit         string
	ShippingNote bool
}

// NewGiftBoxHandlers constructs gift-box handlers. A nil clock selects time.Now.
func NewGiftBoxHandlers(unit string, now func() time.Time) *GiftBoxHandlers {
	if now == nil {
		now = time.Now
	}
	if strings.TrimSpace(unit) == "" {
		unit = catalog.DefaultCurrencyUnit
	}
	return &GiftBoxHandlers{unit: unit, now: now}
}

// Routes wires the /gift-box endpoints onto the provided router.
func (h *GiftBoxHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/gift-box", h.modal)
	r.Get("/gift-box/shipping-note", h.shippingNote)
	r.Post("/gift-box", h.submit)
}

func (h *GiftBoxHandlers) modal(w http.ResponseWriter, r *http.Request) {
	view := giftBoxView{
		CSRFToken: custommw.SessionFromContext(r.Context()).CSRFToken,
		Form:      giftbox.Defaults(h.now()),
		Unit:      h.unit,
	}
	renderTemplate(w, r, http.StatusOK, "giftbox_modal", view)
}

func (h *GiftBoxHandlers) shippingNote(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, http.StatusOK, "shipping_note", giftbox.ShowShippingNote(r.URL.Query().Get("budget")))
}

func (h *GiftBoxHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxGiftBoxFormSize)
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_form", "unable to parse form")
		return
	}

	today := h.now()
	form := formFromRequest(r)
	form.MinDate = today.Format(giftbox.DateLayout)

	order, err := giftbox.Validate(form, today)
	if err != nil {
		var verr *giftbox.ValidationError
		if !errors.As(err, &verr) {
			writeError(w, r, http.StatusInternalServerError, "giftbox_failed", "unable to process order")
			return
		}
		renderTemplate(w, r, http.StatusUnprocessableEntity, "giftbox_modal", giftBoxView{
			Error:        verr.Message,
			ErrorField:   verr.Field,
			CSRFToken:    custommw.SessionFromContext(ctx).CSRFToken,
			Form:         form,
			Unit:         h.unit,
			ShippingNote: giftbox.ShowShippingNote(form.Budget),
		})
		return
	}

	logger := requestctx.Logger(ctx)
	logger.Info("gift box order received",
		zap.String("reference", order.Reference),
		zap.Float64("budget", order.Budget),
		zap.String("delivery_date", order.DeliveryDate.Format(giftbox.DateLayout)),
		zap.String("contact_method", order.ContactMethod),
		zap.Bool("custom_product", order.CustomProduct != ""),
	)
	if err := notify.Trigger(w, notify.New(giftBoxSentMessage)); err != nil {
		logger.Warn("notification header failed", zap.Error(err))
	}
	renderTemplate(w, r, http.StatusOK, "giftbox_confirm", order)
}

func formFromRequest(r *http.Request) giftbox.Form {
	custom := r.PostForm.Get("custom")
	return giftbox.Form{
		Name:          r.PostForm.Get("name"),
		Budget:        r.PostForm.Get("budget"),
		DeliveryDate:  r.PostForm.Get("delivery_date"),
		ContactMethod: r.PostForm.Get("contact_method"),
		Email:         r.PostForm.Get("email"),
		Phone:         r.PostForm.Get("phone"),
		Custom:        custom == "1" || custom == "on" || custom == "true",
		CustomProduct: r.PostForm.Get("custom_product"),
		Message:       r.PostForm.Get("message"),
	}
}

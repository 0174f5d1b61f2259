// Package giftbox validates gift-box order requests submitted from the storefront modal.
package giftbox

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// DateLayout is the wire format of the delivery date input.
const DateLayout = "2006-01-02"

// ShippingNoteThreshold is the budget below which the shipping cost note is shown.
const ShippingNoteThreshold = 1000.0

// Contact methods offered by the form.
const (
	ContactEmail = "email"
	ContactPhone = "phone"
)

// MessageDeliveryDateInPast is shown when the delivery date precedes today.
const MessageDeliveryDateInPast = "Zgjidh një datë të ardhshme për dorëzim."

// ErrDeliveryDateInPast indicates the delivery date is missing or earlier than today.
var ErrDeliveryDateInPast = errors.New("giftbox: delivery date is in the past")

var strictPolicy = bluemonday.StrictPolicy()

// Form mirrors the gift-box modal inputs.
type Form struct {
	Name          string
	Budget        string
	DeliveryDate  string
	MinDate       string
	ContactMethod string
	Email         string
	Phone         string
	Custom        bool
	CustomProduct string
	Message       string
}

// Order is an accepted gift-box request.
type Order struct {
	Reference     string
	Name          string
	Budget        float64
	DeliveryDate  time.Time
	ContactMethod string
	Email         string
	Phone         string
	CustomProduct string
	Message       string
	ShippingNote  bool
}

// ValidationError carries the blocking message shown to the shopper.
type ValidationError struct {
	Field   string
	Message string
	err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v (%s)", e.err, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.err }

// Defaults returns a fresh form whose delivery date and minimum date are today.
func Defaults(today time.Time) Form {
	day := today.Format(DateLayout)
	return Form{DeliveryDate: day, MinDate: day}
}

// ShowShippingNote reports whether the budget is a positive amount below the threshold.
// Budgets are read leniently ("750 Lekë" => 750).
func ShowShippingNote(budget string) bool {
	value, ok := parseLeadingFloat(budget)
	return ok && value > 0 && value < ShippingNoteThreshold
}

// Validate checks the form against today's date and returns the normalised order. The
// delivery date is the only blocking check. Only the field of the chosen contact method is
// kept, as typed, and the custom product text only when its checkbox is ticked.
func Validate(form Form, today time.Time) (Order, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(form.DeliveryDate), today.Location())
	if err != nil || day.Format(DateLayout) < today.Format(DateLayout) {
		return Order{}, &ValidationError{Field: "delivery_date", Message: MessageDeliveryDateInPast, err: ErrDeliveryDateInPast}
	}

	order := Order{
		Reference:     uuid.NewString(),
		Name:          clean(form.Name),
		DeliveryDate:  day,
		ContactMethod: strings.TrimSpace(form.ContactMethod),
		Message:       clean(form.Message),
		ShippingNote:  ShowShippingNote(form.Budget),
	}
	if budget, ok := parseLeadingFloat(form.Budget); ok {
		order.Budget = budget
	}

	switch order.ContactMethod {
	case ContactEmail:
		order.Email = clean(form.Email)
	case ContactPhone:
		order.Phone = clean(form.Phone)
	default:
		order.ContactMethod = ""
	}

	if form.Custom {
		order.CustomProduct = clean(form.CustomProduct)
	}
	return order, nil
}

// clean strips markup and restores entities so templates escape the text exactly once.
func clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(value)))
}

// parseLeadingFloat reads the longest decimal prefix of raw, ignoring leading whitespace.
func parseLeadingFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Package notify delivers transient on-screen messages to the storefront through htmx
// response triggers.
package notify

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// EventName is the client-side event raised for notifications.
const EventName = "market:notify"

// Display timings used by the storefront alert box.
const (
	DefaultVisible = 2500 * time.Millisecond
	DefaultFade    = 300 * time.Millisecond
)

// CartAddedMessage confirms a successful cart addition.
const CartAddedMessage = "Produkti u shtua në shportë!"

// Notification is a message shown for Visible and then faded out over Fade.
type Notification struct {
	Message string
	Visible time.Duration
	Fade    time.Duration
}

// New returns a notification with the default timings.
func New(message string) Notification {
	return Notification{Message: message, Visible: DefaultVisible, Fade: DefaultFade}
}

type payload struct {
	Message   string `json:"message"`
	VisibleMs int64  `json:"visibleMs"`
	FadeMs    int64  `json:"fadeMs"`
}

// Trigger merges the notification into the HX-Trigger header, keeping events already set
// by the handler.
func Trigger(w http.ResponseWriter, n Notification) error {
	if strings.TrimSpace(n.Message) == "" {
		return nil
	}
	if n.Visible <= 0 {
		n.Visible = DefaultVisible
	}
	if n.Fade <= 0 {
		n.Fade = DefaultFade
	}

	events := map[string]any{}
	if existing := strings.TrimSpace(w.Header().Get("HX-Trigger")); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			// A bare event name rather than a JSON object.
			events = map[string]any{existing: nil}
		}
	}
	events[EventName] = payload{
		Message:   n.Message,
		VisibleMs: n.Visible.Milliseconds(),
		FadeMs:    n.Fade.Milliseconds(),
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return err
	}
	w.Header().Set("HX-Trigger", string(raw))
	return nil
}

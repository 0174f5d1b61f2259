package notify

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTriggerWritesDefaultTimings(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, Trigger(rec, New(CartAddedMessage)))

	var events map[string]payload
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &events))
	require.Equal(t, payload{Message: CartAddedMessage, VisibleMs: 2500, FadeMs: 300}, events[EventName])
}

func TestTriggerKeepsExistingEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("HX-Trigger", `{"cart:updated":{"count":3}}`)
	require.NoError(t, Trigger(rec, Notification{Message: "ok", Visible: time.Second}))

	var events map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &events))
	require.JSONEq(t, `{"count":3}`, string(events["cart:updated"]))
	require.JSONEq(t, `{"message":"ok","visibleMs":1000,"fadeMs":300}`, string(events[EventName]))

	bare := httptest.NewRecorder()
	bare.Header().Set("HX-Trigger", "refresh")
	require.NoError(t, Trigger(bare, New("x")))
	require.NoError(t, json.Unmarshal([]byte(bare.Header().Get("HX-Trigger")), &events))
	require.Contains(t, events, "refresh")
}

func TestTriggerSkipsEmptyMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, Trigger(rec, New("  ")))
	require.Empty(t, rec.Header().Get("HX-Trigger"))
}

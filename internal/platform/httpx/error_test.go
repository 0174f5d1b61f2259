package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"github.com/vikenamera/CraftVersee/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{TraceID: "trace-1"})

	rec := httptest.NewRecorder()
	WriteError(ctx, rec, NewError("card_not_found", "no card\nwith that id", http.StatusNotFound))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"card_not_found","message":"no card with that id","status":404,"request_id":"req-1","trace_id":"trace-1"}`, rec.Body.String())
}

func TestWriteErrorDefaultsAndOmissions(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), rec, Error{Code: "boom"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotContains(t, body, "request_id")
	require.NotContains(t, body, "trace_id")
	require.EqualValues(t, 500, body["status"])
}

func TestNewErrorTruncatesMessage(t *testing.T) {
	err := NewError("c", strings.Repeat("x", 600), 0)
	require.Len(t, err.Message, messageLimit)
	require.Equal(t, http.StatusInternalServerError, err.Status)
}

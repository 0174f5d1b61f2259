package handlers

import (
	"net/http"
	"strings"

	custommw "github.com/vikenamera/CraftVersee/internal/middleware"
	"github.com/vikenamera/CraftVersee/internal/platform/httpx"
)

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}

// writeError answers htmx and JSON clients with the error envelope and plain form posts
// with a text body.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if custommw.IsHTMX(r.Context()) || wantsJSON(r) {
		httpx.WriteError(r.Context(), w, httpx.NewError(code, message, status))
		return
	}
	http.Error(w, message, status)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

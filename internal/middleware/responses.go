package middleware

import (
	"net/http"

	"github.com/vikenamera/CraftVersee/internal/platform/httpx"
)

func writeError(w http.ResponseWriter, r *http.Request, code int, errCode, msg string) {
	if IsHTMX(r.Context()) || r.Header.Get("Accept") == "application/json" {
		httpx.WriteError(r.Context(), w, httpx.NewError(errCode, msg, code))
		return
	}
	http.Error(w, msg, code)
}

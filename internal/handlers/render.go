package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sync"

	"go.uber.org/zap"

	custommw "github.com/vikenamera/CraftVersee/internal/middleware"
	"github.com/vikenamera/CraftVersee/internal/platform/httpx"
	"github.com/vikenamera/CraftVersee/internal/platform/requestctx"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets/*
var assetFS embed.FS

var (
	parseOnce   sync.Once
	parsedTmpl  *template.Template
	errParseTpl error
)

// Templates returns the parsed storefront templates. Parsing happens once per process.
func Templates() (*template.Template, error) {
	parseOnce.Do(func() {
		parsedTmpl, errParseTpl = template.New("_root").ParseFS(templateFS, "templates/*.tmpl")
	})
	return parsedTmpl, errParseTpl
}

// Assets serves the embedded stylesheet and script with long-lived cache headers.
func Assets() http.Handler {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		return http.NotFoundHandler()
	}
	return custommw.AssetsWithCache(sub)
}

// renderTemplate executes a named template into a buffer so a failure never leaves a
// half-written response behind.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	ctx := r.Context()
	t, err := Templates()
	if err != nil {
		requestctx.Logger(ctx).Error("template parse failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("template_error", "page unavailable", http.StatusInternalServerError))
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		requestctx.Logger(ctx).Error("template exec failed", zap.String("template", name), zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("template_error", "page unavailable", http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

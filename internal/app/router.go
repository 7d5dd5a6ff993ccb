package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/auth"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/content"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/observability"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/security"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/upload"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/view"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Security       *security.Service
	Metrics        *observability.Metrics
	Templates      *view.Engine
	AuthHandler    *auth.Handler
	ContentHandler *content.Handler
	ContentStore   *content.Store
	UploadHandler  *upload.Handler
}

// NewRouter constructs the chi.Router with the edge security pipeline in
// front of every route. Static assets bypass the pipeline inside the edge
// handler itself.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Security: params.Security,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	staticFS, err := fs.Sub(web.Static, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	// Public pages.
	r.Get("/", params.renderPage("pages/home.html", "Home", nil))
	r.Get("/login", params.renderPage("pages/login.html", "Sign in", nil))

	// Protected pages; the edge auth gate has already redirected anonymous
	// visitors to /login by the time these run.
	r.Get("/platforms", params.renderPage("pages/platforms.html", "Platforms", func() any {
		return params.ContentStore.Platforms()
	}))
	r.Get("/admin", params.renderPage("pages/admin.html", "Back office", nil))

	// Public content API.
	r.Route("/api", func(r chi.Router) {
		params.ContentHandler.MountPublicRoutes(r)
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/admin", func(r chi.Router) {
			r.Use(CSRFGuard(params.Security, params.Metrics))
			params.ContentHandler.MountAdminRoutes(r)
		})
		r.Route("/upload", func(r chi.Router) {
			r.Use(CSRFGuard(params.Security, params.Metrics))
			params.UploadHandler.MountRoutes(r)
		})
	})

	return r
}

// renderPage builds a handler rendering one template with the signed-in
// identity, when present.
func (p RouterParams) renderPage(name, title string, load func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := security.IdentityFromContext(r.Context())
		data := view.TemplateData{
			Title:       title,
			CurrentPath: r.URL.Path,
			UserID:      identity.UserID,
			Role:        identity.Role,
		}
		if load != nil {
			data.Data = load()
		}
		if err := p.Templates.Render(w, name, data); err != nil {
			p.Logger.Error("render page", slog.String("template", name), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

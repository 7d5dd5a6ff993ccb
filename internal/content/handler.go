package content

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/platform/httpx"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/security"
)

// Cache keys for the public list endpoints.
const (
	cacheKeyPlatforms = "content:platforms"
	cacheKeyServices  = "content:services"
	cacheKeyTeam      = "content:team"
)

// Handler serves the public content API and the admin CRUD surface.
type Handler struct {
	logger    *slog.Logger
	store     *Store
	cache     *Cache
	sec       *security.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, store *Store, cache *Cache, sec *security.Service) *Handler {
	return &Handler{
		logger:    logger,
		store:     store,
		cache:     cache,
		sec:       sec,
		validator: validator.New(),
	}
}

// MountPublicRoutes registers the read-only content API.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/platforms", h.handleListPlatforms)
	r.Get("/services", h.handleListServices)
	r.Get("/team", h.handleListTeam)
}

// MountAdminRoutes registers the back-office CRUD surface. The router is
// expected to have the auth gate and CSRF guard already applied.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/platforms", h.handleAdminListPlatforms)
	r.Get("/platforms/{id}", h.handleAdminGetPlatform)
	r.Put("/platforms/{id}", h.handleAdminUpdatePlatform)
	r.Get("/security-log", h.handleSecurityLog)
}

func (h *Handler) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cacheKeyPlatforms, func() any { return h.store.Platforms() })
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cacheKeyServices, func() any { return h.store.Services() })
}

func (h *Handler) handleListTeam(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cacheKeyTeam, func() any { return h.store.Team() })
}

// serveCached answers from the response cache when possible and populates
// it on a miss.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, load func() any) {
	if payload, ok := h.cache.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}
	data := load()
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("marshal content", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.cache.Set(r.Context(), key, payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) handleAdminListPlatforms(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store.Platforms())
}

func (h *Handler) handleAdminGetPlatform(w http.ResponseWriter, r *http.Request) {
	platform, err := h.store.Platform(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, platform)
}

func (h *Handler) handleAdminUpdatePlatform(w http.ResponseWriter, r *http.Request) {
	var payload Platform
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "platform payload rejected")
		return
	}

	updated, err := h.store.UpdatePlatform(chi.URLParam(r, "id"), payload)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), cacheKeyPlatforms)

	identity, _ := security.IdentityFromContext(r.Context())
	h.logger.Info("platform updated",
		slog.String("platform_id", updated.ID),
		slog.String("actor", identity.UserID),
	)
	httpx.JSON(w, http.StatusOK, updated)
}

// handleSecurityLog exposes the audit trail to the back-office, newest last.
func (h *Handler) handleSecurityLog(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.sec.Log.Events())
}

package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/platform/httpx"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/security"
)

// Handler wires the HTTP endpoints for the authentication boundary.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	sec           *security.Service
	validator     *validator.Validate
	secureCookies bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sec *security.Service, secureCookies bool) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		sec:           sec,
		validator:     validator.New(),
		secureCookies: secureCookies,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Get("/csrf", h.handleCSRF)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	User    loginUser `json:"user"`
}

type loginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.sec.Log.Record(security.EventLoginFailed, security.SeverityMedium, map[string]any{
			"email": req.Email,
		})
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}

	session := h.sec.Sessions.Create(user.ID, user.Role)
	token, err := h.sec.Tokens.SignAuthToken(user.ID, user.Role)
	if err != nil {
		h.sec.Sessions.Destroy(session.ID)
		h.logger.Error("sign auth token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	maxAge := int(h.sec.Tokens.AuthTTL() / time.Second)
	h.setCookie(w, security.AuthTokenCookie, token, maxAge)
	h.setCookie(w, security.SessionIDCookie, session.ID, maxAge)

	h.sec.Log.Record(security.EventLoginSuccess, security.SeverityLow, map[string]any{
		"user_id": user.ID,
		"role":    user.Role,
	})
	httpx.JSON(w, http.StatusOK, loginResponse{
		Success: true,
		User:    loginUser{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role},
	})
}

type csrfResponse struct {
	Success   bool   `json:"success"`
	CSRFToken string `json:"csrfToken"`
	ExpiresIn int64  `json:"expiresIn"`
	Message   string `json:"message"`
}

// handleCSRF issues a CSRF token after proving the three-way binding: the
// auth token subject must match the user bound to the presented session.
func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	sessionID := cookieValue(r, security.SessionIDCookie)
	authToken := cookieValue(r, security.AuthTokenCookie)
	if sessionID == "" || authToken == "" {
		h.sec.Log.Record(security.EventCSRFNoSession, security.SeverityMedium, map[string]any{
			"path": r.URL.Path,
		})
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session and auth cookies required")
		return
	}

	claims := h.sec.Tokens.ValidateAuthToken(authToken)
	if claims == nil {
		h.sec.Log.Record(security.EventCSRFInvalidToken, security.SeverityHigh, map[string]any{
			"path": r.URL.Path,
		})
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid auth token")
		return
	}

	session, ok := h.sec.Sessions.Validate(sessionID)
	if !ok {
		h.sec.Log.Record(security.EventCSRFNoSession, security.SeverityMedium, map[string]any{
			"user_id": claims.UserID,
		})
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unknown session")
		return
	}

	if session.UserID != claims.UserID {
		h.sec.Log.Record(security.EventCSRFMismatch, security.SeverityHigh, map[string]any{
			"token_user":   claims.UserID,
			"session_user": session.UserID,
		})
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session does not match token")
		return
	}

	token := h.sec.Tokens.GenerateCSRF(claims.UserID, session.ID)
	httpx.JSON(w, http.StatusOK, csrfResponse{
		Success:   true,
		CSRFToken: token.Value,
		ExpiresIn: security.CSRFTokenTTL.Milliseconds(),
		Message:   "csrf token issued",
	})
}

// handleLogout is best effort: it destroys whatever session the cookies
// name, keeps the auth token only for the audit record, and always clears
// both cookies and reports success.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	detail := map[string]any{}
	if sessionID := cookieValue(r, security.SessionIDCookie); sessionID != "" {
		if session, ok := h.sec.Sessions.Validate(sessionID); ok {
			detail["user_id"] = session.UserID
		}
		h.sec.Sessions.Destroy(sessionID)
	}
	if claims := h.sec.Tokens.ValidateAuthToken(cookieValue(r, security.AuthTokenCookie)); claims != nil {
		detail["token_user"] = claims.UserID
	}

	h.setCookie(w, security.AuthTokenCookie, "", -1)
	h.setCookie(w, security.SessionIDCookie, "", -1)

	h.sec.Log.Record(security.EventLogout, security.SeverityLow, detail)
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

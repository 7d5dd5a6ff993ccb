package app

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/observability"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/platform/httpx"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/security"
)

// Path prefixes the edge pipeline keys its gates on.
var (
	sensitivePrefixes = []string{"/api/auth", "/api/upload", "/api/admin", "/login"}
	protectedPrefixes = []string{"/admin", "/platforms", "/api/admin", "/api/upload"}
	bypassPrefixes    = []string{"/static/", "/favicon.ico"}
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger   *slog.Logger
	Config   *Config
	Security *security.Service
	Metrics  *observability.Metrics
}

// edge is the per-request decision pipeline. It terminates at the first
// matching exit: preflight, CORS gate, rate-limit gate, auth gate, then
// pass-through with security headers.
type edge struct {
	logger  *slog.Logger
	svc     *security.Service
	metrics *observability.Metrics
	origins map[string]struct{}
	headers *secure.Secure
	prod    bool
}

func newEdge(cfg MiddlewareConfig) *edge {
	origins := make(map[string]struct{}, len(cfg.Config.AllowedOrigins))
	for _, origin := range cfg.Config.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return &edge{
		logger:  cfg.Logger,
		svc:     cfg.Security,
		metrics: cfg.Metrics,
		origins: origins,
		prod:    cfg.Config.IsProduction(),
		headers: secure.New(secure.Options{
			FrameDeny:             true,
			ContentTypeNosniff:    true,
			ReferrerPolicy:        "strict-origin-when-cross-origin",
			ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'",
			PermissionsPolicy:     "camera=(), microphone=(), geolocation=()",
			STSSeconds:            31536000,
			STSIncludeSubdomains:  true,
			IsDevelopment:         !cfg.Config.IsProduction(),
		}),
	}
}

func (e *edge) record(kind string, severity security.Severity, detail map[string]any) {
	e.svc.Log.Record(kind, severity, detail)
	e.metrics.CountSecurityEvent(kind, string(severity))
}

func (e *edge) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if hasAnyPrefix(path, bypassPrefixes) {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")

		// 1. Preflight probes answer with CORS headers only.
		if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
			e.writeCORSHeaders(w, origin)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// 2. CORS gate: unlisted origins are rejected regardless of method.
		if origin != "" {
			if _, ok := e.origins[origin]; !ok {
				e.record(security.EventCORSViolation, security.SeverityHigh, map[string]any{
					"origin": origin,
					"path":   path,
				})
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "origin not allowed")
				return
			}
		}

		// 3. Rate-limit gate, sensitive endpoints only.
		sensitive := hasAnyPrefix(path, sensitivePrefixes)
		if sensitive {
			result := e.svc.Limiter.Check(clientIP(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(e.svc.Limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.Allowed {
				e.metrics.CountRateLimited()
				e.record(security.EventRateLimitExceeded, security.SeverityMedium, map[string]any{
					"ip":   clientIP(r),
					"path": path,
				})
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
				return
			}
		}

		// 4. Auth gate, protected prefixes only.
		if hasAnyPrefix(path, protectedPrefixes) {
			claims := e.svc.Tokens.ValidateAuthToken(bearerToken(r))
			if claims == nil {
				e.record(security.EventUnauthorized, security.SeverityHigh, map[string]any{
					"ip":   clientIP(r),
					"path": path,
				})
				if strings.HasPrefix(path, "/api/") {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
					return
				}
				// Page-serving context: land the visitor on the login page.
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			r = r.WithContext(security.ContextWithIdentity(r.Context(), security.Identity{
				UserID: claims.UserID,
				Role:   claims.Role,
			}))
		}

		// 5. Pass-through with security and CORS response headers.
		if err := e.headers.Process(w, r); err != nil {
			e.record(security.EventMiddlewareError, security.SeverityHigh, map[string]any{
				"path": path,
			})
			e.logger.Error("security headers", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if origin != "" {
			e.writeCORSHeaders(w, origin)
		}
		if sensitive {
			e.record(security.EventRequestSuccess, security.SeverityLow, map[string]any{
				"path":   path,
				"method": r.Method,
			})
		}
		next.ServeHTTP(w, r)
	})
}

// recoverer converts panics anywhere below the edge into a logged
// middleware_error and a generic 500. Internal detail goes to the log only.
func (e *edge) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				e.record(security.EventMiddlewareError, security.SeverityHigh, map[string]any{
					"path": r.URL.Path,
				})
				e.logger.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
				)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeCORSHeaders emits headers for an allow-listed origin. Unknown
// origins get none, which preflight short-circuits rely on to fail closed.
func (e *edge) writeCORSHeaders(w http.ResponseWriter, origin string) {
	if _, ok := e.origins[origin]; !ok {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Add("Vary", "Origin")
}

// MiddlewareStack installs the Beatrix middleware chain. The edge pipeline
// sits inside its own recoverer so no fault propagates to the transport.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	e := newEdge(cfg)
	middlewares := []func(http.Handler) http.Handler{
		chimw.RealIP,
		chimw.RequestID,
		e.recoverer,
		e.handler,
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	return middlewares
}

// CSRFGuard enforces the anti-forgery token on mutating API requests. The
// token must be live and bound to the same user and session named by the
// request cookies (three-way binding with the auth token subject).
func CSRFGuard(svc *security.Service, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			claims := svc.Tokens.ValidateAuthToken(bearerToken(r))
			sessionID := cookieValue(r, security.SessionIDCookie)
			token := r.Header.Get("X-CSRF-Token")
			ok := claims != nil && sessionID != "" &&
				svc.Tokens.ValidateCSRF(token, claims.UserID, sessionID)
			if !ok {
				svc.Log.Record(security.EventCSRFRejected, security.SeverityHigh, map[string]any{
					"path": r.URL.Path,
				})
				metrics.CountSecurityEvent(security.EventCSRFRejected, string(security.SeverityHigh))
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "invalid csrf token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the auth token from the Authorization header or,
// failing that, the auth-token cookie.
func bearerToken(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return cookieValue(r, security.AuthTokenCookie)
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already folded X-Forwarded-For into RemoteAddr by the time this runs,
// which leaves a bare address with no port or brackets.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if net.ParseIP(addr) != nil {
		return addr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return strings.Trim(addr, "[]")
	}
	return host
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

package app_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/data"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/app"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/auth"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/content"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/observability"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/security"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/upload"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/view"
	_ "github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/testing/guard"
)

const testPassword = "orchid-breeze-42"

func newSiteRouter(t *testing.T) (http.Handler, *security.Service) {
	t.Helper()

	cfg := &app.Config{
		AppEnv:          "development",
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitWindow: time.Minute,
		RateLimitMax:    30,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sec := security.NewService(security.Config{
		SigningKey:      "test-signing-key",
		AuthTokenTTL:    time.Hour,
		RateLimitWindow: cfg.RateLimitWindow,
		RateLimitMax:    cfg.RateLimitMax,
	})

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc := auth.NewService(auth.NewMemoryRepository([]auth.User{{
		ID:           "user-admin",
		Email:        "admin@beatrix.media",
		Name:         "Beatrix Admin",
		Role:         auth.RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     true,
	}}))

	store, err := content.NewStore(data.Fixtures)
	require.NoError(t, err)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Security:       sec,
		Metrics:        metrics,
		Templates:      templates,
		AuthHandler:    auth.NewHandler(logger, authSvc, sec, false),
		ContentHandler: content.NewHandler(logger, store, content.NewCache(nil, time.Minute, nil), sec),
		ContentStore:   store,
		UploadHandler:  upload.NewHandler(logger, 1<<20),
	})
	return router, sec
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func login(t *testing.T, router http.Handler) []*http.Cookie {
	t.Helper()
	body := `{"email":"admin@beatrix.media","password":"` + testPassword + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := do(router, req)
	require.Equal(t, http.StatusOK, res.Code)
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 2)
	return cookies
}

func TestPublicSurface(t *testing.T) {
	router, _ := newSiteRouter(t)

	for _, path := range []string{"/", "/login", "/healthz", "/metrics", "/api/platforms", "/api/services", "/api/team"} {
		res := do(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, res.Code, path)
	}
}

func TestProtectedSurfaceRequiresAuth(t *testing.T) {
	router, _ := newSiteRouter(t)

	res := do(router, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))

	res = do(router, httptest.NewRequest(http.MethodGet, "/api/admin/platforms", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestSignedInAdminFlow(t *testing.T) {
	router, sec := newSiteRouter(t)
	cookies := login(t, router)

	withCookies := func(req *http.Request) *http.Request {
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return req
	}

	// Protected pages and the admin API open up.
	res := do(router, withCookies(httptest.NewRequest(http.MethodGet, "/admin", nil)))
	assert.Equal(t, http.StatusOK, res.Code)

	res = do(router, withCookies(httptest.NewRequest(http.MethodGet, "/api/admin/platforms", nil)))
	require.Equal(t, http.StatusOK, res.Code)
	var platforms []content.Platform
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &platforms))
	require.NotEmpty(t, platforms)

	// Mutations need a CSRF token from the issuance endpoint.
	body := `{"name":"` + platforms[0].Name + `","tagline":"Edge tested","description":"Updated through the API.","category":"` + platforms[0].Category + `"}`
	req := withCookies(httptest.NewRequest(http.MethodPut, "/api/admin/platforms/"+platforms[0].ID, strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	res = do(router, req)
	assert.Equal(t, http.StatusForbidden, res.Code, "mutation without csrf token must fail")

	res = do(router, withCookies(httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil)))
	require.Equal(t, http.StatusOK, res.Code)
	var issued struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &issued))
	require.NotEmpty(t, issued.CSRFToken)

	req = withCookies(httptest.NewRequest(http.MethodPut, "/api/admin/platforms/"+platforms[0].ID, strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", issued.CSRFToken)
	res = do(router, req)
	require.Equal(t, http.StatusOK, res.Code)

	var updated content.Platform
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &updated))
	assert.Equal(t, "Edge tested", updated.Tagline)

	// Logout destroys the session, so the token can no longer be issued.
	res = do(router, withCookies(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)))
	require.Equal(t, http.StatusOK, res.Code)

	res = do(router, withCookies(httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil)))
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	assert.Equal(t, 0, sec.Sessions.Len())
}

func TestStaticAssetServed(t *testing.T) {
	router, _ := newSiteRouter(t)

	res := do(router, httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestCrossOriginBrowserFlow(t *testing.T) {
	router, sec := newSiteRouter(t)

	// Allowed origin: preflight then the real request, both with CORS headers.
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	res := do(router, req)
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, "http://localhost:3000", res.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/platforms", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	res = do(router, req)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "true", res.Header().Get("Access-Control-Allow-Credentials"))

	// Unknown origin is rejected and audited.
	req = httptest.NewRequest(http.MethodGet, "/api/platforms", nil)
	req.Header.Set("Origin", "http://evil.example")
	res = do(router, req)
	assert.Equal(t, http.StatusForbidden, res.Code)

	events := sec.Log.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, security.EventCORSViolation, events[len(events)-1].Kind)
}

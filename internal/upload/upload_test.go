package upload

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/security"
)

func newTestRouter(t *testing.T, maxBytes int64) chi.Router {
	t.Helper()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), maxBytes)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func multipartBody(t *testing.T, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadAccepted(t *testing.T) {
	router := newTestRouter(t, 1<<20)
	payload := []byte("png bytes")
	body, contentType := multipartBody(t, "hero-banner.png", payload)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(security.ContextWithIdentity(req.Context(), security.Identity{
		UserID: "user-admin",
		Role:   "admin",
	}))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	var asset Asset
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &asset))
	assert.NotEmpty(t, asset.ID)
	assert.Equal(t, "hero-banner.png", asset.Filename)
	assert.Equal(t, int64(len(payload)), asset.Size)
	assert.Equal(t, "user-admin", asset.UploadedBy)

	listRes := httptest.NewRecorder()
	router.ServeHTTP(listRes, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, listRes.Code)
	var assets []Asset
	require.NoError(t, json.Unmarshal(listRes.Body.Bytes(), &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, asset.ID, assets[0].ID)
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	router := newTestRouter(t, 1<<20)
	body, contentType := multipartBody(t, "payload.exe", []byte("mz"))

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUploadExtensionIsCaseInsensitive(t *testing.T) {
	router := newTestRouter(t, 1<<20)
	body, contentType := multipartBody(t, "REEL.MP4", []byte("mp4 bytes"))

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusCreated, res.Code)
}

func TestUploadRequiresFileField(t *testing.T) {
	router := newTestRouter(t, 1<<20)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUploadEnforcesSizeLimit(t *testing.T) {
	router := newTestRouter(t, 256)
	body, contentType := multipartBody(t, "oversized.png", bytes.Repeat([]byte("a"), 4096))

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
}

func TestListReturnsAssetsInUploadOrder(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), 1<<20)
	r := chi.NewRouter()
	h.MountRoutes(r)

	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first.png", "second.png", "third.png"} {
		asset := Asset{
			ID:         uuid.NewString(),
			Filename:   name,
			UploadedAt: base.Add(time.Duration(i) * time.Minute),
		}
		h.assets[asset.ID] = asset
	}

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req)

		require.Equal(t, http.StatusOK, res.Code)
		var listed []Asset
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &listed))
		require.Len(t, listed, 3)
		assert.Equal(t, "first.png", listed[0].Filename)
		assert.Equal(t, "second.png", listed[1].Filename)
		assert.Equal(t, "third.png", listed[2].Filename)
	}
}

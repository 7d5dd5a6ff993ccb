// Package upload accepts media assets from the back-office. Files are
// size-capped, extension-checked and tracked in an in-memory registry;
// bytes are held in memory for the process lifetime (persistence is out of
// scope for the hub).
package upload

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/platform/httpx"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/security"
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".svg":  {},
	".mp4":  {},
	".pdf":  {},
}

// Asset describes one accepted upload.
type Asset struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Handler implements the /api/upload surface.
type Handler struct {
	logger   *slog.Logger
	maxBytes int64

	mu     sync.Mutex
	assets map[string]Asset
	blobs  map[string][]byte
}

// NewHandler constructs a Handler capping request bodies at maxBytes.
func NewHandler(logger *slog.Logger, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Handler{
		logger:   logger,
		maxBytes: maxBytes,
		assets:   make(map[string]Asset),
		blobs:    make(map[string][]byte),
	}
}

// MountRoutes registers the upload routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleUpload)
	r.Get("/", h.handleList)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Too Large", "upload exceeds size limit")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file field required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file type not allowed")
		return
	}

	blob, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("read upload", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	identity, _ := security.IdentityFromContext(r.Context())
	asset := Asset{
		ID:         uuid.NewString(),
		Filename:   filepath.Base(header.Filename),
		Size:       int64(len(blob)),
		UploadedBy: identity.UserID,
		UploadedAt: time.Now(),
	}

	h.mu.Lock()
	h.assets[asset.ID] = asset
	h.blobs[asset.ID] = blob
	h.mu.Unlock()

	h.logger.Info("asset uploaded",
		slog.String("asset_id", asset.ID),
		slog.String("filename", asset.Filename),
		slog.Int64("size", asset.Size),
	)
	httpx.JSON(w, http.StatusCreated, asset)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	out := make([]Asset, 0, len(h.assets))
	for _, asset := range h.assets {
		out = append(out, asset)
	}
	h.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	httpx.JSON(w, http.StatusOK, out)
}

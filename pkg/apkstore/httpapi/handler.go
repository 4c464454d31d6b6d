// Package httpapi exposes the apkstore service over HTTP. The route shapes
// and response bodies follow the store's public wire format: listing and
// lookup are open, upload and delete sit behind the admin code, and the
// sitemap is generated mechanically from slugs.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/alphastore/apkstore/pkg/apkstore"
	"github.com/alphastore/apkstore/pkg/apkstore/admin"
)

// Config carries the handler's server-level knobs
type Config struct {
	// AdminCode is the shared secret for the admin gate. Empty disables
	// admin-auth and the reconciliation routes entirely.
	AdminCode string

	// MaxUploadBytes caps the multipart request body. Zero means the
	// service's default artifact ceiling plus headroom for form fields.
	MaxUploadBytes int64

	// PublicBaseURL is the site origin used for sitemap entries,
	// e.g. "https://store.example.com".
	PublicBaseURL string

	Logger *slog.Logger
}

// Handler handles HTTP requests for the apk catalog
type Handler struct {
	svc    apkstore.Service
	admin  admin.Service
	cfg    Config
	logger *slog.Logger
}

// NewHandler creates a new catalog handler. The admin service may be nil,
// which leaves the reconciliation routes unmounted.
func NewHandler(svc apkstore.Service, adminSvc admin.Service, cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = apkstore.DefaultMaxArtifactSize + 10<<20
	}
	return &Handler{
		svc:    svc,
		admin:  adminSvc,
		cfg:    cfg,
		logger: logger,
	}
}

// Routes returns the API routes, intended to be mounted under /api
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/admin-auth", h.AdminAuth)
	r.Get("/apks", h.ListApks)
	r.Get("/apk/{slug}", h.GetApk)
	r.Post("/upload-apk", h.UploadApk)
	r.Delete("/delete-apk/{key}", h.DeleteApk)

	if h.admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdminCode)
			r.Get("/admin/orphans", h.FindOrphans)
			r.Post("/admin/orphans/sweep", h.SweepOrphans)
		})
	}

	return r
}

// apkResponse is the wire representation of a catalog record
type apkResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	ApkURL      string    `json:"apk_url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toApkResponse(apk *apkstore.Apk) apkResponse {
	return apkResponse{
		ID:          apk.ID.String(),
		Name:        apk.Name,
		Slug:        apk.Slug,
		Description: apk.Description,
		Category:    apk.Category,
		ApkURL:      apk.ArtifactURL,
		ImageURL:    apk.PreviewURL,
		CreatedAt:   apk.CreatedAt,
	}
}

// AdminAuth checks the submitted code against the configured shared
// secret. This is a UI gate, not a security boundary.
func (h *Handler) AdminAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"success": false})
		return
	}

	if !h.adminCodeMatches(req.Code) {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]any{"success": false})
		return
	}

	render.JSON(w, r, map[string]any{"success": true})
}

func (h *Handler) adminCodeMatches(code string) bool {
	if h.cfg.AdminCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(h.cfg.AdminCode)) == 1
}

// ListApks returns all live records, newest first
func (h *Handler) ListApks(w http.ResponseWriter, r *http.Request) {
	apks, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list apks", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "failed to list apks")
		return
	}

	resp := make([]apkResponse, 0, len(apks))
	for _, apk := range apks {
		resp = append(resp, toApkResponse(apk))
	}
	render.JSON(w, r, resp)
}

// GetApk returns a single record by slug
func (h *Handler) GetApk(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	apk, err := h.svc.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, apkstore.ErrApkNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not found")
			return
		}
		h.logger.Error("failed to get apk", "slug", slug, "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "failed to get apk")
		return
	}

	render.JSON(w, r, toApkResponse(apk))
}

// UploadApk ingests a new artifact from a multipart form. Fields: name,
// description, category; files: apkFile (fallback apk, required) and
// imageFile (fallback image, optional).
func (h *Handler) UploadApk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	apkFile, apkHeader, err := formFile(r, "apkFile", "apk")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "apk file is required")
		return
	}
	defer apkFile.Close()

	req := apkstore.IngestRequest{
		Name:                r.FormValue("name"),
		Description:         r.FormValue("description"),
		Category:            r.FormValue("category"),
		Artifact:            apkFile,
		ArtifactFilename:    apkHeader.Filename,
		ArtifactContentType: apkHeader.Header.Get("Content-Type"),
		ArtifactSize:        apkHeader.Size,
	}

	if imageFile, imageHeader, err := formFile(r, "imageFile", "image"); err == nil {
		defer imageFile.Close()
		req.Preview = imageFile
		req.PreviewFilename = imageHeader.Filename
		req.PreviewContentType = imageHeader.Header.Get("Content-Type")
		req.PreviewSize = imageHeader.Size
	}

	apk, err := h.svc.Ingest(r.Context(), req)
	if err != nil {
		var verr *apkstore.ValidationError
		if errors.As(err, &verr) {
			h.respondError(w, r, http.StatusBadRequest, verr.Error())
			return
		}
		h.logger.Error("upload failed", "name", req.Name, "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "Upload failed")
		return
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"apk":     toApkResponse(apk),
	})
}

// formFile looks up an uploaded file under the primary field name, then
// the legacy fallback name.
func formFile(r *http.Request, name, fallback string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(name)
	if err == nil {
		return file, header, nil
	}
	return r.FormFile(fallback)
}

// DeleteApk retires a record by id or slug. A record that is already gone
// still reports success, so retries are harmless.
func (h *Handler) DeleteApk(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.svc.Retire(r.Context(), key); err != nil {
		h.logger.Error("delete failed", "key", key, "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "Delete failed")
		return
	}

	render.JSON(w, r, map[string]any{"success": true})
}

// FindOrphans lists blobs no catalog record references
func (h *Handler) FindOrphans(w http.ResponseWriter, r *http.Request) {
	resp, err := h.admin.FindOrphans(r.Context(), admin.FindOrphansRequest{
		Backend: r.URL.Query().Get("backend"),
	})
	if err != nil {
		h.logger.Error("orphan scan failed", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "orphan scan failed")
		return
	}
	render.JSON(w, r, resp)
}

// SweepOrphans deletes orphaned blobs older than the grace period
func (h *Handler) SweepOrphans(w http.ResponseWriter, r *http.Request) {
	req := admin.SweepOrphansRequest{
		Backend: r.URL.Query().Get("backend"),
		DryRun:  r.URL.Query().Get("dry_run") == "true",
	}
	if raw := r.URL.Query().Get("grace_period"); raw != "" {
		grace, err := time.ParseDuration(raw)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, "invalid grace_period")
			return
		}
		req.GracePeriod = grace
	}

	resp, err := h.admin.SweepOrphans(r.Context(), req)
	if err != nil {
		h.logger.Error("orphan sweep failed", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "orphan sweep failed")
		return
	}
	render.JSON(w, r, resp)
}

// requireAdminCode gates the reconciliation routes on the shared secret
func (h *Handler) requireAdminCode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.adminCodeMatches(r.Header.Get("X-Admin-Code")) {
			h.respondError(w, r, http.StatusUnauthorized, "admin code required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"error": msg})
}

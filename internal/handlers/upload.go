package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/maneesh/mediabin/internal/audit"
	"github.com/maneesh/mediabin/internal/classify"
	"github.com/maneesh/mediabin/internal/metadata"
	"github.com/maneesh/mediabin/internal/models"
	"github.com/maneesh/mediabin/internal/ratelimit"
	"github.com/maneesh/mediabin/internal/storage"
	"github.com/maneesh/mediabin/internal/thumbnail"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("mediabin-handlers")

// Failure kinds surfaced by the upload pipeline.
var (
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrRejectedExtension = errors.New("file extension not allowed")
)

// Fixed thumbnails for categories that never get a generated preview.
const (
	AudioPlaceholderURL = "/static/audio-placeholder.png"
	FilePlaceholderURL  = "/static/file-placeholder.png"
)

// DefaultDescription is used when the form omits the description field.
const DefaultDescription = "No description provided"

// blockedExtensions rejects active content that would otherwise be served
// from the upload origin. Known gap: double extensions and MIME-sniffing
// bypasses are not covered.
var blockedExtensions = map[string]bool{
	".html":  true,
	".htm":   true,
	".xhtml": true,
	".js":    true,
	".mjs":   true,
	".svg":   true,
	".php":   true,
	".sh":    true,
	".exe":   true,
	".bat":   true,
	".cmd":   true,
}

// UploadHandler coordinates the limiter, classifier, blob store,
// thumbnailer and catalog to process one upload end to end.
type UploadHandler struct {
	limiter        *ratelimit.Limiter
	blobs          storage.BlobStore
	catalog        *metadata.Store
	thumbs         thumbnail.Generator
	cache          *storage.ListingCache // nil when redis is disabled
	audit          *audit.Recorder
	logger         *log.Logger
	thumbTimeout   time.Duration
	maxUploadBytes int64
}

// NewUploadHandler creates the upload orchestrator.
func NewUploadHandler(
	limiter *ratelimit.Limiter,
	blobs storage.BlobStore,
	catalog *metadata.Store,
	thumbs thumbnail.Generator,
	cache *storage.ListingCache,
	auditRec *audit.Recorder,
	logger *log.Logger,
	thumbTimeout time.Duration,
	maxUploadBytes int64,
) *UploadHandler {
	return &UploadHandler{
		limiter:        limiter,
		blobs:          blobs,
		catalog:        catalog,
		thumbs:         thumbs,
		cache:          cache,
		audit:          auditRec,
		logger:         logger,
		thumbTimeout:   thumbTimeout,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadResponse is the success body for POST /upload.
type UploadResponse struct {
	Success      bool   `json:"success"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Description  string `json:"description"`
}

// ServeHTTP handles POST /upload (multipart form: file, description).
func (uh *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, "upload_file",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, uh.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Upload failed or not allowed.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		span.RecordError(err)
		http.Error(w, "Upload failed or not allowed.", http.StatusBadRequest)
		return
	}

	description := r.FormValue("description")
	if description == "" {
		description = DefaultDescription
	}

	clientID := ClientIP(r)
	span.SetAttributes(
		attribute.String("client_id", clientID),
		attribute.String("original_filename", header.Filename),
		attribute.Int("size_bytes", len(data)),
	)

	record, err := uh.process(ctx, clientID, header.Filename, header.Header.Get("Content-Type"), data, description)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, ErrRateLimited):
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
		case errors.Is(err, ErrRejectedExtension):
			http.Error(w, "Upload failed or not allowed.", http.StatusBadRequest)
		default:
			uh.logger.Error("upload failed", "client", clientID, "error", err)
			http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResponse{
		Success:      true,
		Name:         record.Name,
		URL:          record.URL,
		ThumbnailURL: record.ThumbnailURL,
		Description:  record.Description,
	})
}

// process runs the ordered upload steps, each a potential early exit:
// rate limit, extension blocklist, classification, blob storage, thumbnail
// (non-fatal), metadata append, audit log.
func (uh *UploadHandler) process(ctx context.Context, clientID, originalName, declaredType string, data []byte, description string) (models.AssetRecord, error) {
	// Step 1: quota check before any file processing. A rejected attempt
	// leaves no trace: no bytes stored, no record appended.
	if !uh.limiter.Allow(clientID, time.Now()) {
		return models.AssetRecord{}, fmt.Errorf("%w: client %s", ErrRateLimited, clientID)
	}

	// Step 2: refuse active content outright.
	ext := strings.ToLower(filepath.Ext(originalName))
	if blockedExtensions[ext] {
		return models.AssetRecord{}, fmt.Errorf("%w: %s", ErrRejectedExtension, ext)
	}

	// Step 3: classify once; the category never changes afterwards.
	mimeType := classify.EffectiveMimeType(declaredType, data)
	category := classify.Classify(mimeType)

	// Step 4: store the bytes under a collision-resistant name inside the
	// category partition.
	name := uuid.New().String() + ext
	url, err := uh.storeFile(ctx, category, name, data, mimeType)
	if err != nil {
		return models.AssetRecord{}, fmt.Errorf("failed to store file: %w", err)
	}

	// Step 5: thumbnail, never fatal.
	thumbURL := uh.makeThumbnail(ctx, category, name, data)

	// Step 6: append the catalog record. If this fails the stored file is
	// orphaned; accepted, cleanup is out of scope.
	record := models.AssetRecord{
		Name:          name,
		URL:           url,
		ThumbnailURL:  thumbURL,
		Description:   description,
		ReportCount:   0,
		ReportReasons: []string{},
	}
	if err := uh.catalog.Append(ctx, category, record); err != nil {
		return models.AssetRecord{}, fmt.Errorf("failed to save metadata: %w", err)
	}

	// The listing changed; stale cache entries must go. Log but don't fail.
	if uh.cache != nil {
		if err := uh.cache.Invalidate(ctx); err != nil {
			uh.logger.Warn("failed to invalidate listing cache", "error", err)
		}
	}

	// Step 7: best-effort audit trail.
	uh.audit.Action(clientID, "uploaded "+name)

	uh.logger.Info("file uploaded", "client", clientID, "name", name, "category", category)
	return record, nil
}

func (uh *UploadHandler) storeFile(ctx context.Context, category models.Category, name string, data []byte, mimeType string) (string, error) {
	ctx, span := tracer.Start(ctx, "store_file",
		trace.WithAttributes(
			attribute.String("category", string(category)),
			attribute.String("asset_name", name),
		),
	)
	defer span.End()

	url, err := uh.blobs.Put(ctx, path.Join(string(category), name), data, mimeType)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return url, nil
}

// makeThumbnail returns the thumbnail URL for the asset: a generated preview
// for images and videos, a fixed placeholder for audio and other. Generation
// failures leave the URL empty.
func (uh *UploadHandler) makeThumbnail(ctx context.Context, category models.Category, name string, data []byte) string {
	switch category {
	case models.CategoryAudio:
		return AudioPlaceholderURL
	case models.CategoryOther:
		return FilePlaceholderURL
	}

	ctx, span := tracer.Start(ctx, "make_thumbnail",
		trace.WithAttributes(attribute.String("asset_name", name)),
	)
	defer span.End()

	// The generator runs an external process; bound it.
	genCtx, cancel := context.WithTimeout(ctx, uh.thumbTimeout)
	defer cancel()

	thumb, err := uh.thumbs.Generate(genCtx, category, name, data)
	if err != nil {
		span.RecordError(err)
		uh.logger.Warn("thumbnail generation failed", "name", name, "error", err)
		return ""
	}

	url, err := uh.blobs.Put(ctx, path.Join("thumbs", name+".jpg"), thumb, "image/jpeg")
	if err != nil {
		span.RecordError(err)
		uh.logger.Warn("failed to store thumbnail", "name", name, "error", err)
		return ""
	}
	return url
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/maneesh/mediabin/internal/metadata"
	"github.com/maneesh/mediabin/internal/models"
	"github.com/maneesh/mediabin/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListHandler serves the public file listing: every category's records in
// fixed category order, each reduced to its four public fields.
type ListHandler struct {
	catalog *metadata.Store
	cache   *storage.ListingCache // nil when redis is disabled
	logger  *log.Logger
}

// NewListHandler creates the listing handler.
func NewListHandler(catalog *metadata.Store, cache *storage.ListingCache, logger *log.Logger) *ListHandler {
	return &ListHandler{catalog: catalog, cache: cache, logger: logger}
}

// ServeHTTP handles GET /files.
func (lh *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, "list_files",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	if lh.cache != nil {
		assets, err := lh.cache.GetListing(ctx)
		if err != nil {
			lh.logger.Warn("listing cache lookup failed", "error", err)
		} else if assets != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			writeListing(w, assets)
			return
		}
	}

	assets, err := lh.catalog.ListEverything(ctx)
	if err != nil {
		// Partial listing: an unreadable category must not take down the
		// others.
		span.RecordError(err)
		lh.logger.Warn("some categories could not be read", "error", err)
	}

	if lh.cache != nil && err == nil {
		if cacheErr := lh.cache.SetListing(ctx, assets); cacheErr != nil {
			lh.logger.Warn("failed to populate listing cache", "error", cacheErr)
		}
	}

	span.SetAttributes(attribute.Int("record_count", len(assets)))
	writeListing(w, assets)
}

func writeListing(w http.ResponseWriter, assets []models.PublicAsset) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assets)
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maneesh/mediabin/internal/models"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// listingKey holds the cached public listing
	listingKey = "mediabin:listing"

	// ListingTTL bounds staleness if an invalidation is ever missed
	ListingTTL = time.Minute
)

// ListingCache is a redis cache-aside for the public file listing. Every
// successful upload invalidates it; reads repopulate it on a miss.
type ListingCache struct {
	client *redis.Client
}

// NewListingCache initializes the cache and verifies the connection.
func NewListingCache(addr, password string, db int) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &ListingCache{client: client}, nil
}

// Close closes the Redis connection.
func (lc *ListingCache) Close() error {
	return lc.client.Close()
}

// GetListing returns the cached listing, or nil on a miss.
func (lc *ListingCache) GetListing(ctx context.Context) ([]models.PublicAsset, error) {
	ctx, span := tracer.Start(ctx, "redis.get_listing")
	defer span.End()

	data, err := lc.client.Get(ctx, listingKey).Result()
	if err == redis.Nil {
		span.SetAttributes(attribute.Bool("cache_hit", false))
		return nil, nil // cache miss, not an error
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var assets []models.PublicAsset
	if err := json.Unmarshal([]byte(data), &assets); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal cached listing: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("cache_hit", true),
		attribute.Int("record_count", len(assets)),
	)
	return assets, nil
}

// SetListing stores the listing with a short TTL.
func (lc *ListingCache) SetListing(ctx context.Context, assets []models.PublicAsset) error {
	ctx, span := tracer.Start(ctx, "redis.set_listing",
		trace.WithAttributes(attribute.Int("record_count", len(assets))),
	)
	defer span.End()

	data, err := json.Marshal(assets)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	if err := lc.client.Set(ctx, listingKey, data, ListingTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached listing.
func (lc *ListingCache) Invalidate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.invalidate_listing")
	defer span.End()

	if err := lc.client.Del(ctx, listingKey).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Package metadata keeps the durable per-category catalog of uploaded
// assets. Each category is one JSON file holding the full record sequence
// in insertion order; an append rereads the file, extends the sequence in
// memory and writes the whole file back.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/maneesh/mediabin/internal/models"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("mediabin-metadata")

// Store is the category-partitioned asset catalog. Appends to one category
// are serialized by that category's lock; reads of a category may run
// concurrently with each other but not with an in-progress write. The
// categories are fully independent: a corrupt or missing file for one
// never affects the others.
type Store struct {
	fs      afero.Fs
	dataDir string
	locks   map[models.Category]*sync.RWMutex
}

// NewStore creates the catalog rooted at dataDir, creating the directory
// if needed. Category files themselves are created lazily on first append.
func NewStore(fs afero.Fs, dataDir string) (*Store, error) {
	if err := fs.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	locks := make(map[models.Category]*sync.RWMutex, len(models.Categories))
	for _, c := range models.Categories {
		locks[c] = &sync.RWMutex{}
	}

	return &Store{fs: fs, dataDir: dataDir, locks: locks}, nil
}

func (s *Store) filePath(category models.Category) string {
	return filepath.Join(s.dataDir, string(category)+".json")
}

// Append durably adds record to the end of the category's collection.
func (s *Store) Append(ctx context.Context, category models.Category, record models.AssetRecord) error {
	_, span := tracer.Start(ctx, "metadata.append",
		trace.WithAttributes(
			attribute.String("category", string(category)),
			attribute.String("asset_name", record.Name),
		),
	)
	defer span.End()

	lock, ok := s.locks[category]
	if !ok {
		return fmt.Errorf("unknown category: %s", category)
	}

	lock.Lock()
	defer lock.Unlock()

	records, err := s.read(category)
	if err != nil {
		span.RecordError(err)
		return err
	}

	records = append(records, record)
	if err := s.write(category, records); err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.Int("record_count", len(records)))
	return nil
}

// ListAll returns every record in the category in insertion order.
func (s *Store) ListAll(ctx context.Context, category models.Category) ([]models.AssetRecord, error) {
	_, span := tracer.Start(ctx, "metadata.list_all",
		trace.WithAttributes(attribute.String("category", string(category))),
	)
	defer span.End()

	lock, ok := s.locks[category]
	if !ok {
		return nil, fmt.Errorf("unknown category: %s", category)
	}

	lock.RLock()
	defer lock.RUnlock()

	records, err := s.read(category)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("record_count", len(records)))
	return records, nil
}

// ListEverything concatenates all categories in the fixed order images,
// videos, audio, other, each projected to its public fields. A category
// whose file cannot be read is skipped; its error is returned alongside
// the records that could be read so callers can serve a partial listing.
func (s *Store) ListEverything(ctx context.Context) ([]models.PublicAsset, error) {
	ctx, span := tracer.Start(ctx, "metadata.list_everything")
	defer span.End()

	assets := make([]models.PublicAsset, 0)
	var errs []error

	for _, category := range models.Categories {
		records, err := s.ListAll(ctx, category)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, r := range records {
			assets = append(assets, r.Public())
		}
	}

	span.SetAttributes(attribute.Int("record_count", len(assets)))
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		return assets, err
	}
	return assets, nil
}

// read loads a category file. Caller holds at least the read lock.
func (s *Store) read(category models.Category) ([]models.AssetRecord, error) {
	data, err := afero.ReadFile(s.fs, s.filePath(category))
	if errors.Is(err, os.ErrNotExist) {
		return []models.AssetRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s catalog: %w", category, err)
	}

	var records []models.AssetRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s catalog: %w", category, err)
	}
	return records, nil
}

// write replaces a category file. The new content goes to a temp file in
// the same directory which is then renamed over the old one, so a reader
// never observes a truncated or half-written catalog. Caller holds the
// write lock.
func (s *Store) write(category models.Category, records []models.AssetRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s catalog: %w", category, err)
	}

	tmp, err := afero.TempFile(s.fs, s.dataDir, string(category)+"-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp catalog: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write temp catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp catalog: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.filePath(category)); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s catalog: %w", category, err)
	}
	return nil
}

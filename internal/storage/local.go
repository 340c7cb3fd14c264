package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LocalStore keeps uploads on the local filesystem under rootDir, laid out
// as <rootDir>/<category>/<name>. The files are served statically from
// /cdn by the router, so the public URL is baseURL + /cdn/ + key.
type LocalStore struct {
	fs      afero.Fs
	rootDir string
	baseURL string
}

// NewLocalStore initializes the local backend, creating rootDir if needed.
func NewLocalStore(fs afero.Fs, rootDir, baseURL string) (*LocalStore, error) {
	if err := fs.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{fs: fs, rootDir: rootDir, baseURL: baseURL}, nil
}

// Put writes data under objectKey and returns its public URL.
func (ls *LocalStore) Put(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	_, span := tracer.Start(ctx, "local.put",
		trace.WithAttributes(
			attribute.String("object_key", objectKey),
			attribute.Int("size_bytes", len(data)),
		),
	)
	defer span.End()

	dst := filepath.Join(ls.rootDir, filepath.FromSlash(objectKey))
	if err := ls.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create partition dir: %w", err)
	}

	if err := afero.WriteFile(ls.fs, dst, data, 0o644); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return ls.baseURL + path.Join("/cdn", objectKey), nil
}

package storage

import (
	"context"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("mediabin-storage")

// BlobStore persists uploaded bytes under an object key and resolves the
// public URL they will be served from. The upload pipeline does not care
// whether the backing store is the local disk or a remote object store.
type BlobStore interface {
	Put(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
}

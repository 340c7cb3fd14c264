package classify

import (
	"testing"

	"github.com/maneesh/mediabin/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		mimeType string
		want     models.Category
	}{
		{"image/png", models.CategoryImages},
		{"image/jpeg", models.CategoryImages},
		{"IMAGE/GIF", models.CategoryImages},
		{"image/png; charset=binary", models.CategoryImages},
		{"video/mp4", models.CategoryVideos},
		{"video/webm", models.CategoryVideos},
		{"audio/mpeg", models.CategoryAudio},
		{"audio/ogg", models.CategoryAudio},
		{"application/pdf", models.CategoryOther},
		{"text/plain", models.CategoryOther},
		{"", models.CategoryOther},
		{"imagex/png", models.CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.mimeType), "mime type %q", tt.mimeType)
	}
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func TestEffectiveMimeTypeSniffsWhenMissing(t *testing.T) {
	assert.Equal(t, "image/png", EffectiveMimeType("", pngHeader))
	assert.Equal(t, "image/png", EffectiveMimeType("application/octet-stream", pngHeader))
}

func TestEffectiveMimeTypeKeepsDeclared(t *testing.T) {
	// A concrete declared type wins even when the bytes say otherwise
	assert.Equal(t, "text/plain", EffectiveMimeType("text/plain", pngHeader))
}

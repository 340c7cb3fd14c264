// Package classify maps declared MIME types onto the fixed category set
// used to partition uploaded assets.
package classify

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/maneesh/mediabin/internal/models"
)

// Classify maps a MIME type to its asset category. Pure function: image/*
// becomes images, video/* videos, audio/* audio, anything else other.
func Classify(mimeType string) models.Category {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch {
	case strings.HasPrefix(mt, "image/"):
		return models.CategoryImages
	case strings.HasPrefix(mt, "video/"):
		return models.CategoryVideos
	case strings.HasPrefix(mt, "audio/"):
		return models.CategoryAudio
	default:
		return models.CategoryOther
	}
}

// EffectiveMimeType returns the declared content type unless it is missing
// or the generic octet-stream, in which case the content is sniffed.
func EffectiveMimeType(declared string, data []byte) string {
	d := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(d, ";"); i >= 0 {
		d = strings.TrimSpace(d[:i])
	}
	if d == "" || d == "application/octet-stream" {
		return mimetype.Detect(data).String()
	}
	return declared
}

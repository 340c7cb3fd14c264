// Package thumbnail produces small JPEG previews for stored uploads by
// shelling out to ffmpeg. Generation is best-effort: the upload pipeline
// treats any failure here as non-fatal.
package thumbnail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/charmbracelet/log"
	"github.com/maneesh/mediabin/internal/models"
)

// Generator produces preview bytes for an uploaded asset.
type Generator interface {
	Generate(ctx context.Context, category models.Category, name string, data []byte) ([]byte, error)
}

// FFmpeg generates previews with the ffmpeg binary: a scaled-down copy for
// images, a scaled frame from one second in for videos. The caller bounds
// the external process through the context deadline.
type FFmpeg struct {
	logger *log.Logger
}

// NewFFmpeg creates the ffmpeg-backed generator.
func NewFFmpeg(logger *log.Logger) *FFmpeg {
	return &FFmpeg{logger: logger}
}

// Generate writes data to a scratch file, runs ffmpeg against it and
// returns the produced JPEG bytes.
func (f *FFmpeg) Generate(ctx context.Context, category models.Category, name string, data []byte) ([]byte, error) {
	src, err := os.CreateTemp("", "mediabin-src-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer os.Remove(src.Name())

	if _, err := src.Write(data); err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := src.Close(); err != nil {
		return nil, fmt.Errorf("failed to close scratch file: %w", err)
	}

	out := src.Name() + ".thumb.jpg"
	defer os.Remove(out)

	var args []string
	switch category {
	case models.CategoryImages:
		args = []string{"-y", "-i", src.Name(), "-vf", "scale=320:-1", "-frames:v", "1", out}
	case models.CategoryVideos:
		args = []string{"-y", "-ss", "00:00:01", "-i", src.Name(), "-vf", "scale=320:-1", "-frames:v", "1", out}
	default:
		return nil, fmt.Errorf("no thumbnailer for category %s", category)
	}

	task := execute.ExecTask{
		Command: "ffmpeg",
		Args:    args,
	}

	res, err := task.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	if res.ExitCode != 0 {
		f.logger.Debug("ffmpeg stderr", "output", res.Stderr)
		return nil, fmt.Errorf("ffmpeg exited with code %d", res.ExitCode)
	}

	thumb, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read generated thumbnail: %w", err)
	}
	return thumb, nil
}

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Artifact is binary evidence captured for a scenario.
type Artifact struct {
	Scenario   string
	MediaType  string
	Body       []byte
	Path       string
	CapturedAt time.Time
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName derives a filesystem safe name from the scenario and capture time.
func (a Artifact) FileName() string {
	name := strings.Trim(unsafeName.ReplaceAllString(a.Scenario, "_"), "_")
	if name == "" {
		name = "scenario"
	}
	if len(name) > 80 {
		name = name[:80]
	}
	stamp := a.CapturedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	return fmt.Sprintf("%s_%s%s", name, stamp.UTC().Format("20060102T150405.000"), extensionFor(a.MediaType))
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "text/html":
		return ".html"
	default:
		return ".bin"
	}
}

// ArtifactSink stores artifacts outside the report.
type ArtifactSink interface {
	Save(ctx context.Context, a Artifact) (string, error)
}

// FileSink writes artifacts under Dir, creating it on first use.
type FileSink struct {
	Dir string
}

func (s FileSink) Save(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, a.FileName())
	if err := os.WriteFile(path, a.Body, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}

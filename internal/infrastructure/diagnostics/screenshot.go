// Package diagnostics captures failure evidence from execution contexts so a
// user can see what the page looked like when a job went wrong.
package diagnostics

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"signup-agent/internal/application/port/output"
	"signup-agent/internal/usecase/bulkrun"
)

const maxWidth = 1024

var _ bulkrun.Diagnoser = (*ScreenshotCapturer)(nil)

// ScreenshotCapturer writes resized JPEG screenshots of failed jobs.
type ScreenshotCapturer struct {
	dir    string
	logger output.LoggerPort
}

func NewScreenshotCapturer(dir string, logger output.LoggerPort) *ScreenshotCapturer {
	return &ScreenshotCapturer{dir: dir, logger: logger}
}

// CaptureFailure is best-effort by contract: a broken screenshot never turns
// into a second failure on top of the one being documented.
func (s *ScreenshotCapturer) CaptureFailure(ctx context.Context, ec output.ExecContext, retailerID string) {
	raw, err := ec.Screenshot(ctx)
	if err != nil {
		s.logger.Warn("failure screenshot", "retailer", retailerID, "error", err)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		s.logger.Warn("failure screenshot decode", "retailer", retailerID, "error", err)
		return
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("failure screenshot dir", "error", err)
		return
	}
	name := fmt.Sprintf("%s_%s.jpg", time.Now().Format("2006-01-02_15-04-05"), retailerID)
	path := filepath.Join(s.dir, name)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		s.logger.Warn("failure screenshot encode", "retailer", retailerID, "error", err)
		return
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		s.logger.Warn("failure screenshot write", "path", path, "error", err)
		return
	}
	s.logger.Info("failure screenshot saved", "retailer", retailerID, "path", path)
}

// File: internal/vision/framesource.go
package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/chromedp/chromedp"
)

// FrameSource captures the current visible screen as a raster image on
// demand. Implementations must be read-only probes of the display; the
// locator never mutates what it observes.
type FrameSource interface {
	Capture(ctx context.Context) (image.Image, error)
}

// CDPFrameSource grabs frames from the browser window hosting the target
// applications via the DevTools screenshot command.
type CDPFrameSource struct{}

// NewCDPFrameSource creates a production frame source.
func NewCDPFrameSource() *CDPFrameSource {
	return &CDPFrameSource{}
}

// Capture takes a single screenshot of the visible viewport and decodes it.
func (s *CDPFrameSource) Capture(ctx context.Context) (image.Image, error) {
	var buf []byte
	if err := chromedp.CaptureScreenshot(&buf).Do(ctx); err != nil {
		return nil, fmt.Errorf("frame capture failed: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode captured frame: %w", err)
	}
	return img, nil
}

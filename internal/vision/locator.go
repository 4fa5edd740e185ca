// File: internal/vision/locator.go
package vision

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"go.uber.org/zap"
)

// Match is the result of a successful locate: a confidence score in [0,1],
// the bounding rectangle of the best match in frame coordinates, and its
// center point. Ephemeral; used immediately to drive an action.
type Match struct {
	Score  float64
	Bounds image.Rectangle
	Center image.Point
}

// NotFoundError reports that a template never cleared its acceptance
// threshold in the probed frame. It carries the best-observed score for
// diagnostics.
type NotFoundError struct {
	Name      string
	Best      float64
	Threshold float64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("anchor %q not found (best score %.3f < threshold %.2f)", e.Name, e.Best, e.Threshold)
}

// Locator finds the best-matching position of a registered template within
// a captured frame using normalized cross-correlation. A Locate call is a
// single deterministic probe of the current screen state: one capture, no
// retry, no waiting.
type Locator struct {
	frames   FrameSource
	registry *Registry
	logger   *zap.Logger
}

// NewLocator creates a locator over the given frame source and template
// registry.
func NewLocator(frames FrameSource, registry *Registry, logger *zap.Logger) *Locator {
	return &Locator{
		frames:   frames,
		registry: registry,
		logger:   logger.Named("locator"),
	}
}

// Locate captures one frame and searches it (or the given sub-region of it)
// for the named template. A zero threshold selects the template's default.
// Returns a *NotFoundError when the best correlation stays below the
// threshold, and ErrTemplateMissing when the template cannot be resolved.
func (l *Locator) Locate(ctx context.Context, name string, threshold float64, region *image.Rectangle) (Match, error) {
	tpl, defThreshold, err := l.registry.Resolve(name)
	if err != nil {
		return Match{}, err
	}
	if threshold == 0 {
		threshold = defThreshold
	}
	if threshold < 0 || threshold > 1 {
		return Match{}, fmt.Errorf("threshold must be in (0,1], got %v", threshold)
	}

	frame, err := l.frames.Capture(ctx)
	if err != nil {
		return Match{}, err
	}

	search := frame.Bounds()
	offset := image.Point{}
	if region != nil {
		if !region.In(frame.Bounds()) {
			return Match{}, fmt.Errorf("search region %v exceeds frame bounds %v", *region, frame.Bounds())
		}
		search = *region
		offset = region.Min
	}

	best, loc := matchTemplate(grayPlane(frame, search), grayPlane(tpl, tpl.Bounds()))
	if best < threshold {
		l.logger.Debug("Template below threshold",
			zap.String("template", name),
			zap.Float64("best", best),
			zap.Float64("threshold", threshold))
		return Match{}, &NotFoundError{Name: name, Best: best, Threshold: threshold}
	}

	tw := tpl.Bounds().Dx()
	th := tpl.Bounds().Dy()
	bounds := image.Rect(
		offset.X+loc.X,
		offset.Y+loc.Y,
		offset.X+loc.X+tw,
		offset.Y+loc.Y+th,
	)
	m := Match{
		Score:  best,
		Bounds: bounds,
		Center: image.Point{X: bounds.Min.X + tw/2, Y: bounds.Min.Y + th/2},
	}
	l.logger.Debug("Template located",
		zap.String("template", name),
		zap.Float64("score", m.Score),
		zap.Int("x", m.Center.X),
		zap.Int("y", m.Center.Y))
	return m, nil
}

// plane is a grayscale pixel buffer used by the correlation kernel.
type plane struct {
	w, h int
	pix  []float64
}

// grayPlane converts a rectangular window of img into a luminance plane.
func grayPlane(img image.Image, r image.Rectangle) plane {
	p := plane{w: r.Dx(), h: r.Dy(), pix: make([]float64, r.Dx()*r.Dy())}
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			p.pix[i] = float64(g.Y)
			i++
		}
	}
	return p
}

// matchTemplate slides tpl over hay and returns the maximum zero-mean
// normalized cross-correlation score (clamped to [0,1]) together with the
// offset of the best match. A template larger than the search window can
// never match.
func matchTemplate(hay, tpl plane) (float64, image.Point) {
	if tpl.w > hay.w || tpl.h > hay.h || tpl.w == 0 || tpl.h == 0 {
		return 0, image.Point{}
	}

	n := float64(tpl.w * tpl.h)

	// Zero-mean the template once.
	var tSum float64
	for _, v := range tpl.pix {
		tSum += v
	}
	tMean := tSum / n
	tz := make([]float64, len(tpl.pix))
	var tEnergy float64
	for i, v := range tpl.pix {
		tz[i] = v - tMean
		tEnergy += tz[i] * tz[i]
	}
	tNorm := math.Sqrt(tEnergy)

	best := math.Inf(-1)
	var bestLoc image.Point

	for oy := 0; oy <= hay.h-tpl.h; oy++ {
		for ox := 0; ox <= hay.w-tpl.w; ox++ {
			var pSum float64
			for ty := 0; ty < tpl.h; ty++ {
				row := (oy+ty)*hay.w + ox
				for tx := 0; tx < tpl.w; tx++ {
					pSum += hay.pix[row+tx]
				}
			}
			pMean := pSum / n

			var cross, pEnergy float64
			for ty := 0; ty < tpl.h; ty++ {
				row := (oy+ty)*hay.w + ox
				trow := ty * tpl.w
				for tx := 0; tx < tpl.w; tx++ {
					pv := hay.pix[row+tx] - pMean
					cross += pv * tz[trow+tx]
					pEnergy += pv * pv
				}
			}

			var score float64
			denom := math.Sqrt(pEnergy) * tNorm
			if denom < 1e-9 {
				// Flat patch against flat template counts as a
				// perfect match; against anything else, no
				// correlation.
				if tNorm < 1e-9 && pEnergy < 1e-9 {
					score = 1
				}
			} else {
				score = cross / denom
			}
			if score > best {
				best = score
				bestLoc = image.Point{X: ox, Y: oy}
			}
		}
	}

	if best < 0 {
		best = 0
	}
	if best > 1 {
		best = 1
	}
	return best, bestLoc
}

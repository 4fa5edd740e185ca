// File: internal/actuator/actuator.go
package actuator

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/chromedp/cdproto/input"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pkarlgren/bryggan/internal/config"
)

// pathNoiseAmp is the maximum perpendicular wobble, in pixels, applied to
// a pointer glide. It decays to zero as the pointer approaches the target.
const pathNoiseAmp = 2.5

// Actuator converts anchor coordinates into human-like pointer and
// keyboard actions. All primitives are fire-and-forget with respect to
// effect verification: correctness of the resulting UI state is established
// by later locator probes, never here.
type Actuator struct {
	exec    Executor
	cfg     config.InputConfig
	logger  *zap.Logger
	limiter *rate.Limiter

	rng       *rand.Rand
	noise     *perlin.Perlin
	noiseTime float64

	pos image.Point
}

// New creates an actuator with the given input persona. A nil rng derives
// one from cfg.Seed (or the wall clock when the seed is zero), so tests can
// pin randomness down while production stays organic.
func New(exec Executor, cfg config.InputConfig, rng *rand.Rand, logger *zap.Logger) *Actuator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(seed))
	}
	eps := cfg.EventsPerSecond
	if eps <= 0 {
		eps = 240
	}
	return &Actuator{
		exec:    exec,
		cfg:     cfg,
		logger:  logger.Named("actuator"),
		limiter: rate.NewLimiter(rate.Limit(eps), 16),
		rng:     rng,
		noise:   perlin.NewPerlin(2, 2, 3, seed),
	}
}

// Click adds independent uniform jitter in [-jitterPx, +jitterPx] to both
// coordinates of pt, glides the pointer there over moveDuration, and issues
// a single primary click. The click lands on the jittered point, not the
// raw anchor.
func (a *Actuator) Click(ctx context.Context, pt image.Point, jitterPx int, moveDuration time.Duration) error {
	target := pt
	if jitterPx > 0 {
		target.X += a.rng.Intn(2*jitterPx+1) - jitterPx
		target.Y += a.rng.Intn(2*jitterPx+1) - jitterPx
	}

	if err := a.moveTo(ctx, target, moveDuration); err != nil {
		return fmt.Errorf("pointer move failed: %w", err)
	}

	x, y := float64(target.X), float64(target.Y)
	press := input.DispatchMouseEvent(input.MousePressed, x, y).
		WithButton(input.Left).
		WithButtons(1).
		WithClickCount(1)
	if err := a.dispatchMouse(ctx, press); err != nil {
		return fmt.Errorf("mouse press failed: %w", err)
	}
	release := input.DispatchMouseEvent(input.MouseReleased, x, y).
		WithButton(input.Left).
		WithClickCount(1)
	if err := a.dispatchMouse(ctx, release); err != nil {
		return fmt.Errorf("mouse release failed: %w", err)
	}

	a.logger.Debug("Clicked",
		zap.Int("x", target.X),
		zap.Int("y", target.Y),
		zap.Int("anchor_x", pt.X),
		zap.Int("anchor_y", pt.Y))
	return nil
}

// Type emits one keystroke per character of text, preserving order, with a
// randomized pause of perCharBase + U(0, per_char_jitter) between
// keystrokes. When clearFirst is set the focused field is select-all'd and
// deleted before typing.
func (a *Actuator) Type(ctx context.Context, text string, clearFirst bool, perCharBase time.Duration) error {
	if clearFirst {
		if err := a.PressChord(ctx, ChordSelectAll); err != nil {
			return err
		}
		if err := a.exec.Sleep(ctx, 50*time.Millisecond); err != nil {
			return err
		}
		if err := a.PressChord(ctx, KeyBackspace); err != nil {
			return err
		}
		if err := a.exec.Sleep(ctx, 50*time.Millisecond); err != nil {
			return err
		}
	}

	for _, r := range text {
		if err := a.exec.SendText(ctx, string(r)); err != nil {
			return fmt.Errorf("keystroke %q failed: %w", r, err)
		}
		pause := perCharBase
		if a.cfg.PerCharJitter > 0 {
			pause += time.Duration(a.rng.Int63n(int64(a.cfg.PerCharJitter)))
		}
		if err := a.exec.Sleep(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

// Sleep pauses between actions, respecting context cancellation.
func (a *Actuator) Sleep(ctx context.Context, d time.Duration) error {
	return a.exec.Sleep(ctx, d)
}

// PressChord issues one simultaneous key combination: key down with
// modifiers applied, then key up.
func (a *Actuator) PressChord(ctx context.Context, c Chord) error {
	down := input.DispatchKeyEvent(input.KeyDown).
		WithModifiers(c.Modifiers).
		WithKey(c.Key).
		WithCode(c.Code).
		WithWindowsVirtualKeyCode(c.KeyCode).
		WithNativeVirtualKeyCode(c.KeyCode)
	if err := a.dispatchKey(ctx, down); err != nil {
		return fmt.Errorf("chord %s: key down failed: %w", c.Name, err)
	}
	up := input.DispatchKeyEvent(input.KeyUp).
		WithModifiers(c.Modifiers).
		WithKey(c.Key).
		WithCode(c.Code).
		WithWindowsVirtualKeyCode(c.KeyCode).
		WithNativeVirtualKeyCode(c.KeyCode)
	if err := a.dispatchKey(ctx, up); err != nil {
		return fmt.Errorf("chord %s: key up failed: %w", c.Name, err)
	}
	return nil
}

// CopyFocused selects the content of the focused field and copies it to
// the system clipboard, to be pasted elsewhere with PasteFocused. The
// clipboard is the sole mechanism for moving field values between windows:
// window content is never read programmatically, only through the same
// input channel a person would use.
func (a *Actuator) CopyFocused(ctx context.Context) error {
	if err := a.PressChord(ctx, ChordSelectAll); err != nil {
		return err
	}
	if err := a.exec.Sleep(ctx, 50*time.Millisecond); err != nil {
		return err
	}
	if err := a.PressChord(ctx, ChordCopy); err != nil {
		return err
	}
	return a.exec.Sleep(ctx, 50*time.Millisecond)
}

// PasteFocused replaces the content of the focused field with the current
// clipboard value.
func (a *Actuator) PasteFocused(ctx context.Context) error {
	if err := a.PressChord(ctx, ChordSelectAll); err != nil {
		return err
	}
	if err := a.exec.Sleep(ctx, 50*time.Millisecond); err != nil {
		return err
	}
	return a.PressChord(ctx, ChordPaste)
}

// moveTo animates the pointer from its last known position to target over
// the given duration, wobbling the path with decaying perlin noise so the
// glide does not look machine-straight.
func (a *Actuator) moveTo(ctx context.Context, target image.Point, duration time.Duration) error {
	start := a.pos
	steps := int(duration / (8 * time.Millisecond))
	if steps < 4 {
		steps = 4
	}
	if steps > 120 {
		steps = 120
	}
	stepDelay := duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		// Ease-in-out: slow start, fast middle, slow landing.
		ease := t * t * (3 - 2*t)

		x := float64(start.X) + (float64(target.X)-float64(start.X))*ease
		y := float64(start.Y) + (float64(target.Y)-float64(start.Y))*ease

		// Wobble fades out so the final event lands exactly on target.
		a.noiseTime += 0.07
		fade := 1 - t
		x += a.noise.Noise1D(a.noiseTime) * pathNoiseAmp * fade
		y += a.noise.Noise1D(a.noiseTime+97.3) * pathNoiseAmp * fade

		move := input.DispatchMouseEvent(input.MouseMoved, math.Round(x), math.Round(y))
		if err := a.dispatchMouse(ctx, move); err != nil {
			return err
		}
		if err := a.exec.Sleep(ctx, stepDelay); err != nil {
			return err
		}
	}

	a.pos = target
	return nil
}

func (a *Actuator) dispatchMouse(ctx context.Context, p *input.DispatchMouseEventParams) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	return a.exec.DispatchMouseEvent(ctx, p)
}

func (a *Actuator) dispatchKey(ctx context.Context, p *input.DispatchKeyEventParams) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	return a.exec.DispatchKeyEvent(ctx, p)
}

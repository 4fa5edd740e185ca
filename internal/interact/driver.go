// File: internal/interact/driver.go
package interact

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	retry "github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/pkarlgren/bryggan/internal/actuator"
	"github.com/pkarlgren/bryggan/internal/config"
	"github.com/pkarlgren/bryggan/internal/vision"
)

// Locator is the slice of the visual locator the driver needs.
type Locator interface {
	Locate(ctx context.Context, name string, threshold float64, region *image.Rectangle) (vision.Match, error)
}

// Input is the slice of the actuator the driver needs.
type Input interface {
	Click(ctx context.Context, pt image.Point, jitterPx int, moveDuration time.Duration) error
	Type(ctx context.Context, text string, clearFirst bool, perCharBase time.Duration) error
	PressChord(ctx context.Context, c actuator.Chord) error
	CopyFocused(ctx context.Context) error
	PasteFocused(ctx context.Context) error
	Sleep(ctx context.Context, d time.Duration) error
}

// ClickSpec describes one anchor interaction: which template to chase, how
// picky to be about it, and where to click relative to the match center.
// Zero-valued budget fields fall back to the driver's configured defaults.
type ClickSpec struct {
	Template  string
	Threshold float64
	Offset    image.Point
	Region    *image.Rectangle

	Retries    int
	RetryDelay time.Duration
}

// Driver composes the locator and the actuator into failure-tolerant
// compound operations. Every operation blocks the calling step for at most
// its configured budget; no two operations ever run concurrently.
type Driver struct {
	loc    Locator
	input  Input
	cfg    config.InteractConfig
	inCfg  config.InputConfig
	logger *zap.Logger
}

// NewDriver wires a driver over the given locator and input layer.
func NewDriver(loc Locator, input Input, cfg config.InteractConfig, inCfg config.InputConfig, logger *zap.Logger) *Driver {
	return &Driver{
		loc:    loc,
		input:  input,
		cfg:    cfg,
		inCfg:  inCfg,
		logger: logger.Named("interact"),
	}
}

// ClickAnchor locates the anchor, retrying the locate up to the retry
// budget, then clicks its match center plus the configured offset. The
// anchor may still be rendering or animating, so misses are expected;
// exhausting the budget returns an *AnchorError wrapping the last
// underlying failure. The click itself is issued exactly once: a dispatch
// failure is returned as-is, never retried.
func (d *Driver) ClickAnchor(ctx context.Context, spec ClickSpec) (vision.Match, error) {
	retries := spec.Retries
	if retries <= 0 {
		retries = d.cfg.ClickRetries
	}
	delay := spec.RetryDelay
	if delay <= 0 {
		delay = d.cfg.ClickRetryDelay
	}

	var match vision.Match
	err := retry.Do(
		func() error {
			m, err := d.loc.Locate(ctx, spec.Template, spec.Threshold, spec.Region)
			if err != nil {
				return err
			}
			match = m
			return nil
		},
		retry.Attempts(uint(retries)),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		d.logger.Warn("Anchor unreachable",
			zap.String("template", spec.Template),
			zap.Int("attempts", retries),
			zap.Error(err))
		return vision.Match{}, &AnchorError{Template: spec.Template, Attempts: retries, Err: err}
	}

	target := match.Center.Add(spec.Offset)
	if err := d.input.Click(ctx, target, d.inCfg.JitterPx, d.inCfg.MoveDuration); err != nil {
		return vision.Match{}, fmt.Errorf("click on %q failed: %w", spec.Template, err)
	}
	return match, nil
}

// WaitForSignature polls until the signature template becomes visible or
// the timeout expires. No click is issued: this only confirms that a
// popup, dialog or wizard has actually appeared before anything interacts
// with it. Zero-valued budgets fall back to the configured defaults.
func (d *Driver) WaitForSignature(ctx context.Context, template string, timeout, poll time.Duration, threshold float64) (vision.Match, error) {
	if timeout <= 0 {
		timeout = d.cfg.SignatureTimeout
	}
	if poll <= 0 {
		poll = d.cfg.SignaturePoll
	}
	if threshold == 0 {
		threshold = d.cfg.SignatureThreshold
	}

	end := time.Now().Add(timeout)
	for time.Now().Before(end) {
		m, err := d.loc.Locate(ctx, template, threshold, nil)
		if err == nil {
			return m, nil
		}
		if errors.Is(err, vision.ErrTemplateMissing) {
			// No amount of waiting conjures up a missing asset.
			return vision.Match{}, err
		}
		if err := d.input.Sleep(ctx, poll); err != nil {
			return vision.Match{}, err
		}
	}
	d.logger.Warn("Signature timed out",
		zap.String("template", template),
		zap.Duration("timeout", timeout))
	return vision.Match{}, &SignatureTimeoutError{Template: template, Timeout: timeout}
}

// SwitchUntilVisible cycles through top-level windows until the signature
// template is visible, bringing the owning application to the foreground.
// No window-manager API is used beyond the single cycle-windows keystroke.
func (d *Driver) SwitchUntilVisible(ctx context.Context, template string, maxSwitches int, threshold float64) (vision.Match, error) {
	if maxSwitches <= 0 {
		maxSwitches = d.cfg.MaxWindowSwitches
	}
	if threshold == 0 {
		threshold = d.cfg.SignatureThreshold
	}

	var lastErr error
	for i := 0; i < maxSwitches; i++ {
		m, err := d.loc.Locate(ctx, template, threshold, nil)
		if err == nil {
			return m, nil
		}
		if errors.Is(err, vision.ErrTemplateMissing) {
			return vision.Match{}, err
		}
		lastErr = err

		if err := d.input.PressChord(ctx, actuator.ChordCycleWindow); err != nil {
			return vision.Match{}, fmt.Errorf("window cycle failed: %w", err)
		}
		if err := d.input.Sleep(ctx, d.cfg.SwitchPause); err != nil {
			return vision.Match{}, err
		}
	}
	d.logger.Warn("Window not found",
		zap.String("template", template),
		zap.Int("switches", maxSwitches),
		zap.Error(lastErr))
	return vision.Match{}, &WindowNotFoundError{Template: template, Switches: maxSwitches}
}

// TypeAt clicks the anchor (label plus offset reaches the associated
// field) and types text into the focused field, clearing it first.
func (d *Driver) TypeAt(ctx context.Context, spec ClickSpec, text string) error {
	if _, err := d.ClickAnchor(ctx, spec); err != nil {
		return err
	}
	return d.input.Type(ctx, text, true, d.inCfg.PerCharDelay)
}

// CopyFieldAt clicks the anchor and copies the focused field's content to
// the clipboard.
func (d *Driver) CopyFieldAt(ctx context.Context, spec ClickSpec) error {
	if _, err := d.ClickAnchor(ctx, spec); err != nil {
		return err
	}
	return d.input.CopyFocused(ctx)
}

// PasteFieldAt clicks the anchor and replaces the focused field's content
// with the clipboard value.
func (d *Driver) PasteFieldAt(ctx context.Context, spec ClickSpec) error {
	if _, err := d.ClickAnchor(ctx, spec); err != nil {
		return err
	}
	return d.input.PasteFocused(ctx)
}

// SelectDropdown clicks the anchor, opens the combo box dropdown, moves
// down one entry and confirms it. The workflow only ever needs "pick the
// next option", so that is all this does.
func (d *Driver) SelectDropdown(ctx context.Context, spec ClickSpec) error {
	if _, err := d.ClickAnchor(ctx, spec); err != nil {
		return err
	}
	if err := d.input.PressChord(ctx, actuator.ChordOpenDropdown); err != nil {
		return err
	}
	if err := d.input.Sleep(ctx, 150*time.Millisecond); err != nil {
		return err
	}
	if err := d.input.PressChord(ctx, actuator.KeyArrowDown); err != nil {
		return err
	}
	return d.input.PressChord(ctx, actuator.KeyEnter)
}

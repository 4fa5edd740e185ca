// File: internal/flows/lime.go
package flows

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/pkarlgren/bryggan/internal/interact"
	"github.com/pkarlgren/bryggan/internal/vision"
)

// WindowDriver is the slice of the interact layer the visual collaborators
// drive windows through.
type WindowDriver interface {
	ClickAnchor(ctx context.Context, spec interact.ClickSpec) (vision.Match, error)
	WaitForSignature(ctx context.Context, template string, timeout, poll time.Duration, threshold float64) (vision.Match, error)
	SwitchUntilVisible(ctx context.Context, template string, maxSwitches int, threshold float64) (vision.Match, error)
	TypeAt(ctx context.Context, spec interact.ClickSpec, text string) error
	CopyFieldAt(ctx context.Context, spec interact.ClickSpec) error
	PasteFieldAt(ctx context.Context, spec interact.ClickSpec) error
	SelectDropdown(ctx context.Context, spec interact.ClickSpec) error
}

// limeFieldOffset reaches the entry widget below a LIME label anchor.
var limeFieldOffset = image.Pt(0, 32)

// tokenKundNr names the clipboard value carried from the CRM window to
// the agreement wizard.
const tokenKundNr = "kundnr"

// VisualCase drives the CRM window through the visual layer. Values that
// cannot be read through the glass come from the seed case (the case the
// operator queued up before starting the run); the customer number travels
// to its destination as a clipboard token.
type VisualCase struct {
	drv    WindowDriver
	seed   Case
	logger *zap.Logger
}

// NewVisualCase creates the visual CRM collaborator.
func NewVisualCase(drv WindowDriver, seed Case, logger *zap.Logger) *VisualCase {
	return &VisualCase{drv: drv, seed: seed, logger: logger.Named("lime")}
}

// FetchCase brings the CRM window to the foreground and returns the queued
// case. The customer number is returned as a clipboard token; it is copied
// out of the window only right before it is pasted at its destination,
// because the clipboard holds a single value at a time.
func (v *VisualCase) FetchCase(ctx context.Context) (Case, error) {
	if _, err := v.drv.SwitchUntilVisible(ctx, TplLimeSignature, 0, 0); err != nil {
		return Case{}, err
	}
	c := v.seed
	c.KundNr = ClipboardToken(tokenKundNr)
	return c, nil
}

// SetCheckItem ticks the next open checklist item. The CRM window exposes
// a single tick button that always marks the next open item, so the index
// is advisory here.
func (v *VisualCase) SetCheckItem(ctx context.Context, index int, done bool) error {
	if !done {
		return nil
	}
	if _, err := v.drv.SwitchUntilVisible(ctx, TplLimeSignature, 0, 0); err != nil {
		return err
	}
	_, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplLimeBtnTick})
	if err != nil {
		return err
	}
	v.logger.Debug("Checklist item ticked", zap.Int("index", index))
	return nil
}

// SetStatus records the wanted case status. The CRM window exposes no
// clickable status control, so the status change is logged for the case
// handler to apply; parked cases therefore stay visibly open in the CRM.
func (v *VisualCase) SetStatus(ctx context.Context, status, reason string) error {
	v.logger.Info("Case status requested",
		zap.String("status", status),
		zap.String("reason", reason))
	return nil
}

// ResetState brings the CRM window back to the foreground. The window's
// own state is restored by the application itself.
func (v *VisualCase) ResetState(ctx context.Context) error {
	_, err := v.drv.SwitchUntilVisible(ctx, TplLimeSignature, 0, 0)
	return err
}

// copyToClipboard foregrounds the CRM window and copies the field under
// the given label anchor onto the system clipboard.
func copyToClipboard(ctx context.Context, drv WindowDriver, labelTemplate string) error {
	if _, err := drv.SwitchUntilVisible(ctx, TplLimeSignature, 0, 0); err != nil {
		return err
	}
	return drv.CopyFieldAt(ctx, interact.ClickSpec{
		Template: labelTemplate,
		Offset:   limeFieldOffset,
	})
}

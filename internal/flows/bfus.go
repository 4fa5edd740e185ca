// File: internal/flows/bfus.go
package flows

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/pkarlgren/bryggan/internal/actuator"
	"github.com/pkarlgren/bryggan/internal/config"
	"github.com/pkarlgren/bryggan/internal/interact"
)

// Offsets from a label anchor to its associated input widget.
var (
	bfusFieldOffset    = image.Pt(240, 0)
	avtalFieldOffset   = image.Pt(260, 0)
	treeFirstRowOffset = image.Pt(40, 60)
)

// VisualService drives the billing window through the visual layer: the
// overview form, the service-search popup and the agreement wizard.
type VisualService struct {
	drv    WindowDriver
	input  interact.Input
	inCfg  config.InputConfig
	logger *zap.Logger
}

// NewVisualService creates the visual billing collaborator.
func NewVisualService(drv WindowDriver, input interact.Input, inCfg config.InputConfig, logger *zap.Logger) *VisualService {
	return &VisualService{drv: drv, input: input, inCfg: inCfg, logger: logger.Named("bfus")}
}

// UpdateOverview fills the overview fields, links the service via the
// search popup and saves. The popup's appearance is confirmed before
// anything interacts with it.
func (v *VisualService) UpdateOverview(ctx context.Context, tjanstenr, anlaggningsID, saking string) error {
	if _, err := v.drv.SwitchUntilVisible(ctx, TplBfusSignature, 0, 0); err != nil {
		return err
	}

	if err := v.drv.TypeAt(ctx, v.field(TplBfusLblTjanst), tjanstenr); err != nil {
		return err
	}
	if err := v.drv.TypeAt(ctx, v.field(TplBfusLblAnlID), anlaggningsID); err != nil {
		return err
	}
	if err := v.pickComboValue(ctx, v.field(TplBfusLblSaking), saking); err != nil {
		return err
	}

	// Link the service record through the search popup.
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplBfusBtnSokTjanst}); err != nil {
		return err
	}
	if _, err := v.drv.WaitForSignature(ctx, TplPopupSignature, 0, 0, 0); err != nil {
		return err
	}
	if err := v.drv.TypeAt(ctx, interact.ClickSpec{Template: TplPopupLblTjanst, Offset: bfusFieldOffset}, tjanstenr); err != nil {
		return err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplPopupBtnSok}); err != nil {
		return err
	}
	// Select the first result row under the tree header.
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplPopupTreeHeader, Offset: treeFirstRowOffset}); err != nil {
		return err
	}
	if err := v.input.PressChord(ctx, actuator.KeyArrowDown); err != nil {
		return err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplPopupBtnOK}); err != nil {
		return err
	}

	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplBfusBtnSpara}); err != nil {
		return err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplMsgboxOK}); err != nil {
		return err
	}
	v.logger.Info("Overview updated",
		zap.String("tjanstenr", tjanstenr),
		zap.String("anlaggnings_id", anlaggningsID))
	return nil
}

// CreateAgreement walks the agreement wizard end to end. Clipboard-token
// values are copied out of the CRM window right before their paste, since
// the clipboard holds one value at a time. The created agreement's id is
// not readable through the glass, so an empty id is returned.
func (v *VisualService) CreateAgreement(ctx context.Context, a Agreement) (string, error) {
	if _, err := v.drv.SwitchUntilVisible(ctx, TplBfusSignature, 0, 0); err != nil {
		return "", err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplBfusBtnSkapaAvtal}); err != nil {
		return "", err
	}
	if _, err := v.drv.WaitForSignature(ctx, TplAvtalSignature, 0, 0, 0); err != nil {
		return "", err
	}

	// Page 1: parties and start date.
	if err := v.drv.SelectDropdown(ctx, v.wizardField(TplAvtalLblCompany)); err != nil {
		return "", err
	}
	if err := v.drv.SelectDropdown(ctx, v.wizardField(TplAvtalLblGoal)); err != nil {
		return "", err
	}
	if err := v.fillField(ctx, v.wizardField(TplAvtalLblKundNr), a.KundNr, TplLimeLblKundNr); err != nil {
		return "", err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplAvtalBtnCalendar}); err != nil {
		return "", err
	}
	if _, err := v.drv.WaitForSignature(ctx, TplCalendarSignature, 0, 0, 0); err != nil {
		return "", err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplCalendarFirstDate}); err != nil {
		return "", err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplCalendarBtnOK}); err != nil {
		return "", err
	}
	if err := v.drv.SelectDropdown(ctx, v.wizardField(TplAvtalLblForbruk)); err != nil {
		return "", err
	}
	if err := v.next(ctx); err != nil {
		return "", err
	}

	// Page 2: product and debiting.
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplAvtalBtnSokProdukt}); err != nil {
		return "", err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplAvtalBtnSok}); err != nil {
		return "", err
	}
	if err := v.drv.SelectDropdown(ctx, v.wizardField(TplAvtalLblDebSatt)); err != nil {
		return "", err
	}
	if err := v.drv.SelectDropdown(ctx, v.wizardField(TplAvtalLblDebFormel)); err != nil {
		return "", err
	}
	if err := v.next(ctx); err != nil {
		return "", err
	}

	// Page 3: price parameters.
	if err := v.drv.SelectDropdown(ctx, v.wizardField(TplAvtalLblPP1)); err != nil {
		return "", err
	}
	if err := v.drv.SelectDropdown(ctx, v.wizardField(TplAvtalLblPP2)); err != nil {
		return "", err
	}
	if err := v.next(ctx); err != nil {
		return "", err
	}

	// Page 4: invoice terms, then save.
	if err := v.fillField(ctx, v.wizardField(TplAvtalLblKundRef), a.CustomerRef, TplLimeLblTjanst); err != nil {
		return "", err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplAvtalBtnSpara}); err != nil {
		return "", err
	}
	if _, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplMsgboxAvtalOK}); err != nil {
		return "", err
	}

	v.logger.Info("Agreement wizard completed")
	return "", nil
}

// ResetState brings the billing window back to the foreground. The form
// state is restored by the application itself.
func (v *VisualService) ResetState(ctx context.Context) error {
	_, err := v.drv.SwitchUntilVisible(ctx, TplBfusSignature, 0, 0)
	return err
}

func (v *VisualService) field(label string) interact.ClickSpec {
	return interact.ClickSpec{Template: label, Offset: bfusFieldOffset}
}

func (v *VisualService) wizardField(label string) interact.ClickSpec {
	return interact.ClickSpec{Template: label, Offset: avtalFieldOffset}
}

func (v *VisualService) next(ctx context.Context) error {
	_, err := v.drv.ClickAnchor(ctx, interact.ClickSpec{Template: TplAvtalBtnNext})
	return err
}

// fillField puts value into the field behind spec. A clipboard token is
// realized by copying the named CRM field and pasting it here; a plain
// value is typed.
func (v *VisualService) fillField(ctx context.Context, spec interact.ClickSpec, value, limeLabel string) error {
	if !IsClipboardToken(value) {
		return v.drv.TypeAt(ctx, spec, value)
	}
	if err := copyToClipboard(ctx, v.drv, limeLabel); err != nil {
		return fmt.Errorf("clipboard transfer failed: %w", err)
	}
	if _, err := v.drv.SwitchUntilVisible(ctx, TplAvtalSignature, 0, 0); err != nil {
		return err
	}
	return v.drv.PasteFieldAt(ctx, spec)
}

// pickComboValue opens the combo box behind spec and types the wanted
// value without clearing, then confirms it.
func (v *VisualService) pickComboValue(ctx context.Context, spec interact.ClickSpec, value string) error {
	if _, err := v.drv.ClickAnchor(ctx, spec); err != nil {
		return err
	}
	if err := v.input.PressChord(ctx, actuator.ChordOpenDropdown); err != nil {
		return err
	}
	if err := v.input.Type(ctx, value, false, v.inCfg.PerCharDelay); err != nil {
		return err
	}
	return v.input.PressChord(ctx, actuator.KeyEnter)
}

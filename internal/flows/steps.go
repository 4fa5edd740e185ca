// File: internal/flows/steps.go
package flows

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/pkarlgren/bryggan/internal/pipeline"
)

// Run context keys written and read by the steps. No compile-time schema
// is enforced; the cross-step data dependencies are covered by tests.
const (
	KeyCaseID        = "case_id"
	KeyRefNr         = "ref_nr"
	KeyTjanstNr      = "tjanstenr"
	KeyKundNr        = "kundnr"
	KeyAnlaggningsID = "anlaggnings_id"
	KeySaking        = "saking"
	KeyAgreementID   = "agreement_id"
)

// Document labels as they appear in the grid-portal record.
const (
	lblRefNr         = "Ref. nr."
	lblAnlaggningsID = "Anläggnings-id"
	lblSaking        = "Säkring"
)

// facilityIDPattern is the validation rule: a facility id is exactly 16
// digits. Anything else parks the case.
var facilityIDPattern = regexp.MustCompile(`^\d{16}$`)

// Workflow builds the six-step pipeline over the three collaborators.
type Workflow struct {
	cases  CaseSystem
	svc    ServiceSystem
	doc    DocumentSource
	log    *pipeline.RunLog
	logger *zap.Logger

	// today is injectable so agreement start dates are stable in tests.
	today func() time.Time
}

// NewWorkflow wires the business pipeline.
func NewWorkflow(cases CaseSystem, svc ServiceSystem, doc DocumentSource, log *pipeline.RunLog, logger *zap.Logger) *Workflow {
	return &Workflow{
		cases:  cases,
		svc:    svc,
		doc:    doc,
		log:    log,
		logger: logger.Named("flows"),
		today:  time.Now,
	}
}

// Collaborators returns the reset surfaces in the order they are restored.
func (w *Workflow) Collaborators() []pipeline.Resettable {
	return []pipeline.Resettable{w.cases, w.svc, w.doc}
}

// Build is the pipeline.Builder: the fixed, ordered sequence of named
// steps for one run. Rebuilt on reset.
func (w *Workflow) Build(rc *pipeline.Context) []pipeline.Step {
	return []pipeline.Step{
		{Name: "Läs ärende från LIME", Run: w.stepReadCase},
		{Name: "Hämta data från ELSMART", Run: w.stepReadDocument},
		{Name: "Validera data", Run: w.stepValidate},
		{Name: "Uppdatera BFUS (övergripande uppgifter)", Run: w.stepUpdateOverview},
		{Name: "Skapa avtal i BFUS", Run: w.stepCreateAgreement},
		{Name: "Sätt LIME-status = Klart", Run: w.stepComplete},
	}
}

func (w *Workflow) stepReadCase(ctx context.Context, rc *pipeline.Context) error {
	c, err := w.cases.FetchCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to read case: %w", err)
	}
	rc.Set(KeyCaseID, c.ID)
	rc.Set(KeyRefNr, c.RefNr)
	rc.Set(KeyTjanstNr, c.TjanstNr)
	rc.Set(KeyKundNr, c.KundNr)

	if err := w.cases.SetCheckItem(ctx, 0, true); err != nil {
		return err
	}
	w.log.Appendf("LIME: case=%s tjanstenr=%s kundnr=%s", c.ID, c.TjanstNr, c.KundNr)
	return nil
}

func (w *Workflow) stepReadDocument(ctx context.Context, rc *pipeline.Context) error {
	payload, err := w.doc.Payload(ctx)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if ref := payload[lblRefNr]; ref != "" {
		rc.Set(KeyRefNr, ref)
	}
	rc.Set(KeyAnlaggningsID, payload[lblAnlaggningsID])
	saking := payload[lblSaking]
	if saking == "" {
		saking = "16A"
	}
	rc.Set(KeySaking, saking)

	if err := w.cases.SetCheckItem(ctx, 1, true); err != nil {
		return err
	}
	w.log.Appendf("ELSMART: anläggnings-id=%s säkring=%s", rc.Get(KeyAnlaggningsID), saking)
	return nil
}

// stepValidate sets the validation outcome exactly once; downstream steps
// honor it rather than re-validating. A failed validation is a business
// outcome, not a fault: the case is parked and the run continues.
func (w *Workflow) stepValidate(ctx context.Context, rc *pipeline.Context) error {
	ok := facilityIDPattern.MatchString(rc.Get(KeyAnlaggningsID))
	rc.SetValidated(ok)
	if ok {
		w.log.Append("VALIDERING: OK")
		return nil
	}
	w.log.Append("VALIDERING: FEL – saknar/ogiltigt anläggnings-id")
	if err := w.cases.SetStatus(ctx, "Parkerad", "Ogiltigt anläggnings-id"); err != nil {
		return fmt.Errorf("failed to park case: %w", err)
	}
	return nil
}

func (w *Workflow) stepUpdateOverview(ctx context.Context, rc *pipeline.Context) error {
	if !rc.Validated() {
		w.log.Append("BFUS: hoppar över uppdatering (validering ej OK)")
		return nil
	}
	err := w.svc.UpdateOverview(ctx, rc.Get(KeyTjanstNr), rc.Get(KeyAnlaggningsID), rc.Get(KeySaking))
	if err != nil {
		return fmt.Errorf("overview update failed: %w", err)
	}
	if err := w.cases.SetCheckItem(ctx, 3, true); err != nil {
		return err
	}
	w.log.Append("BFUS: service uppdaterad")
	return nil
}

func (w *Workflow) stepCreateAgreement(ctx context.Context, rc *pipeline.Context) error {
	if !rc.Validated() {
		w.log.Append("BFUS: hoppar över avtal (validering ej OK)")
		return nil
	}
	agreement := Agreement{
		Company:      "Exempelbolag A",
		Goal:         "Nätavtal",
		KundNr:       rc.Get(KeyKundNr),
		StartDate:    w.today().Format("2006-01-02"),
		ConsumerType: "Hushåll",
		Product:      "Produkt 1",
		DebitMethod:  "Månadsvis",
		DebitFormula: "Formel A",
		PriceParam1:  "PP1-A",
		PriceParam2:  "PP2-A",
		CustomerRef:  rc.Get(KeyTjanstNr),
	}
	id, err := w.svc.CreateAgreement(ctx, agreement)
	if err != nil {
		return fmt.Errorf("agreement creation failed: %w", err)
	}
	rc.Set(KeyAgreementID, id)
	if err := w.cases.SetCheckItem(ctx, 4, true); err != nil {
		return err
	}
	if id != "" {
		w.log.Appendf("BFUS: avtal skapat id=%s", id)
	} else {
		w.log.Append("BFUS: avtal skapat")
	}
	return nil
}

func (w *Workflow) stepComplete(ctx context.Context, rc *pipeline.Context) error {
	if !rc.Validated() {
		w.log.Append("LIME: ärende parkerat (ej klart)")
		return nil
	}
	if err := w.cases.SetCheckItem(ctx, 2, true); err != nil {
		return err
	}
	if err := w.cases.SetStatus(ctx, "Klart", ""); err != nil {
		return fmt.Errorf("failed to complete case: %w", err)
	}
	w.log.Append("LIME: status satt till Klart")
	return nil
}

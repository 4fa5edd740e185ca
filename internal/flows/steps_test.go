// File: internal/flows/steps_test.go
package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pkarlgren/bryggan/internal/config"
	"github.com/pkarlgren/bryggan/internal/pipeline"
)

type statusChange struct {
	status, reason string
}

type fakeCases struct {
	seed     Case
	fetchErr error
	statuses []statusChange
	checks   []int
	resets   int
}

func (f *fakeCases) FetchCase(ctx context.Context) (Case, error) {
	if f.fetchErr != nil {
		return Case{}, f.fetchErr
	}
	return f.seed, nil
}

func (f *fakeCases) SetStatus(ctx context.Context, status, reason string) error {
	f.statuses = append(f.statuses, statusChange{status, reason})
	return nil
}

func (f *fakeCases) SetCheckItem(ctx context.Context, index int, done bool) error {
	if done {
		f.checks = append(f.checks, index)
	}
	return nil
}

func (f *fakeCases) ResetState(ctx context.Context) error {
	f.resets++
	return nil
}

type overviewArgs struct {
	tjanstenr, anlaggningsID, saking string
}

type fakeService struct {
	overviews  []overviewArgs
	agreements []Agreement
	id         string
	createErr  error
	resets     int
}

func (f *fakeService) UpdateOverview(ctx context.Context, tjanstenr, anlaggningsID, saking string) error {
	f.overviews = append(f.overviews, overviewArgs{tjanstenr, anlaggningsID, saking})
	return nil
}

func (f *fakeService) CreateAgreement(ctx context.Context, a Agreement) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.agreements = append(f.agreements, a)
	return f.id, nil
}

func (f *fakeService) ResetState(ctx context.Context) error {
	f.resets++
	return nil
}

type fakeDoc struct {
	payload map[string]string
	err     error
	resets  int
}

func (f *fakeDoc) Payload(ctx context.Context) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *fakeDoc) ResetState(ctx context.Context) error {
	f.resets++
	return nil
}

func validPayload() map[string]string {
	return map[string]string{
		"Ref. nr.":       "E-1111-11",
		"Anläggnings-id": "1234567890123456",
		"Säkring":        "20A",
	}
}

func newTestWorkflow(cases *fakeCases, svc *fakeService, doc *fakeDoc) (*Workflow, *pipeline.RunLog) {
	log := pipeline.NewRunLog()
	w := NewWorkflow(cases, svc, doc, log, zap.NewNop())
	w.today = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return w, log
}

// runSteps executes the built pipeline in order, stopping on the first
// error, and returns the run context.
func runSteps(t *testing.T, w *Workflow) (*pipeline.Context, error) {
	t.Helper()
	rc := pipeline.NewContext()
	for _, step := range w.Build(rc) {
		if err := step.Run(context.Background(), rc); err != nil {
			return rc, err
		}
	}
	return rc, nil
}

func logMessages(log *pipeline.RunLog) []string {
	entries := log.Snapshot()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestWorkflowHappyPath(t *testing.T) {
	cases := &fakeCases{seed: Case{ID: "A-1001", RefNr: "E-0000-00", TjanstNr: "445323", KundNr: "K-77"}}
	svc := &fakeService{}
	doc := &fakeDoc{payload: validPayload()}
	w, log := newTestWorkflow(cases, svc, doc)

	rc, err := runSteps(t, w)
	require.NoError(t, err)

	assert.True(t, rc.Validated())
	assert.Equal(t, "E-1111-11", rc.Get(KeyRefNr), "document ref nr overrides the seed")
	assert.Equal(t, "1234567890123456", rc.Get(KeyAnlaggningsID))
	assert.Equal(t, "20A", rc.Get(KeySaking))

	require.Len(t, svc.overviews, 1)
	assert.Equal(t, overviewArgs{"445323", "1234567890123456", "20A"}, svc.overviews[0])

	require.Len(t, svc.agreements, 1)
	a := svc.agreements[0]
	assert.Equal(t, "Exempelbolag A", a.Company)
	assert.Equal(t, "Nätavtal", a.Goal)
	assert.Equal(t, "K-77", a.KundNr)
	assert.Equal(t, "2026-03-02", a.StartDate)
	assert.Equal(t, "Hushåll", a.ConsumerType)
	assert.Equal(t, "445323", a.CustomerRef)

	assert.Equal(t, []int{0, 1, 3, 4, 2}, cases.checks, "checklist order follows the operator's routine")
	assert.Equal(t, []statusChange{{"Klart", ""}}, cases.statuses)

	msgs := logMessages(log)
	assert.Contains(t, msgs, "VALIDERING: OK")
	assert.Contains(t, msgs, "BFUS: service uppdaterad")
	assert.Contains(t, msgs, "LIME: status satt till Klart")
}

func TestWorkflowParksInvalidCase(t *testing.T) {
	run := func(t *testing.T, anlID string) (*fakeCases, *fakeService, []string) {
		t.Helper()
		payload := validPayload()
		if anlID == "" {
			delete(payload, "Anläggnings-id")
		} else {
			payload["Anläggnings-id"] = anlID
		}
		cases := &fakeCases{seed: Case{ID: "A-1001", TjanstNr: "445323"}}
		svc := &fakeService{}
		w, log := newTestWorkflow(cases, svc, &fakeDoc{payload: payload})

		rc, err := runSteps(t, w)
		require.NoError(t, err, "a parked case is a business outcome, not a fault")
		assert.False(t, rc.Validated())
		return cases, svc, logMessages(log)
	}

	t.Run("TooShort", func(t *testing.T) {
		cases, svc, msgs := run(t, "1234567890")

		assert.Empty(t, svc.overviews, "billing must stay untouched")
		assert.Empty(t, svc.agreements)
		assert.Equal(t, []statusChange{{"Parkerad", "Ogiltigt anläggnings-id"}}, cases.statuses)
		assert.Equal(t, []int{0, 1}, cases.checks, "only the read steps tick their items")

		assert.Contains(t, msgs, "VALIDERING: FEL – saknar/ogiltigt anläggnings-id")
		assert.Contains(t, msgs, "BFUS: hoppar över uppdatering (validering ej OK)")
		assert.Contains(t, msgs, "BFUS: hoppar över avtal (validering ej OK)")
		assert.Contains(t, msgs, "LIME: ärende parkerat (ej klart)")
	})

	t.Run("NonDigits", func(t *testing.T) {
		_, svc, _ := run(t, "12345678901234AB")
		assert.Empty(t, svc.agreements)
	})

	t.Run("Missing", func(t *testing.T) {
		cases, _, _ := run(t, "")
		assert.Equal(t, []statusChange{{"Parkerad", "Ogiltigt anläggnings-id"}}, cases.statuses)
	})
}

func TestWorkflowDocumentDefaults(t *testing.T) {
	payload := validPayload()
	delete(payload, "Säkring")
	delete(payload, "Ref. nr.")
	cases := &fakeCases{seed: Case{ID: "A-1001", RefNr: "E-0000-00", TjanstNr: "445323"}}
	svc := &fakeService{}
	w, _ := newTestWorkflow(cases, svc, &fakeDoc{payload: payload})

	rc, err := runSteps(t, w)
	require.NoError(t, err)

	assert.Equal(t, "16A", rc.Get(KeySaking), "missing fuse rating falls back to 16A")
	assert.Equal(t, "E-0000-00", rc.Get(KeyRefNr), "missing document ref nr keeps the seed")
}

func TestWorkflowAgreementID(t *testing.T) {
	t.Run("RecordedWhenReturned", func(t *testing.T) {
		cases := &fakeCases{seed: Case{ID: "A-1001", TjanstNr: "445323"}}
		svc := &fakeService{id: "AVT-9"}
		w, log := newTestWorkflow(cases, svc, &fakeDoc{payload: validPayload()})

		rc, err := runSteps(t, w)
		require.NoError(t, err)
		assert.Equal(t, "AVT-9", rc.Get(KeyAgreementID))
		assert.Contains(t, logMessages(log), "BFUS: avtal skapat id=AVT-9")
	})

	t.Run("EmptyIDStillLogged", func(t *testing.T) {
		cases := &fakeCases{seed: Case{ID: "A-1001", TjanstNr: "445323"}}
		svc := &fakeService{}
		w, log := newTestWorkflow(cases, svc, &fakeDoc{payload: validPayload()})

		_, err := runSteps(t, w)
		require.NoError(t, err)
		assert.Contains(t, logMessages(log), "BFUS: avtal skapat")
	})
}

func TestWorkflowStepFailures(t *testing.T) {
	t.Run("FetchFailureStopsRun", func(t *testing.T) {
		sentinel := errors.New("CRM-fönster saknas")
		cases := &fakeCases{fetchErr: sentinel}
		svc := &fakeService{}
		w, _ := newTestWorkflow(cases, svc, &fakeDoc{payload: validPayload()})

		_, err := runSteps(t, w)
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel)
		assert.Empty(t, svc.overviews)
	})

	t.Run("DocumentFailureStopsRun", func(t *testing.T) {
		cases := &fakeCases{seed: Case{ID: "A-1001"}}
		w, _ := newTestWorkflow(cases, &fakeService{}, &fakeDoc{err: errors.New("källa nere")})

		_, err := runSteps(t, w)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "källa nere")
	})

	t.Run("AgreementFailurePropagates", func(t *testing.T) {
		cases := &fakeCases{seed: Case{ID: "A-1001", TjanstNr: "445323"}}
		svc := &fakeService{createErr: errors.New("guiden stängdes")}
		w, _ := newTestWorkflow(cases, svc, &fakeDoc{payload: validPayload()})

		_, err := runSteps(t, w)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "guiden stängdes")
	})
}

// The workflow drives the controller end to end: the deferred continuation
// chain, the run log and the collaborator resets all cooperate.
func TestWorkflowThroughController(t *testing.T) {
	cases := &fakeCases{seed: Case{ID: "A-1001", TjanstNr: "445323", KundNr: "K-77"}}
	svc := &fakeService{}
	doc := &fakeDoc{payload: validPayload()}
	log := pipeline.NewRunLog()
	w := NewWorkflow(cases, svc, doc, log, zap.NewNop())
	w.today = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }

	ctrl := pipeline.NewController(w.Build, log, pipeline.NewTimerScheduler(), w.Collaborators(),
		config.PipelineConfig{PreStepDelay: time.Millisecond, StepPacing: time.Millisecond}, nil, zap.NewNop())

	select {
	case err := <-ctrl.RunAll(context.Background()):
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline never completed")
	}

	assert.Len(t, svc.agreements, 1)
	msgs := logMessages(log)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "KLAR: processen slutförd", msgs[len(msgs)-1])
	assert.Contains(t, msgs, "START: steg 1/6: Läs ärende från LIME")

	ctrl.Reset(context.Background())
	assert.Equal(t, 1, cases.resets)
	assert.Equal(t, 1, svc.resets)
	assert.Equal(t, 1, doc.resets)
}

func TestCatalogNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	files := make(map[string]bool)
	for _, ref := range Catalog() {
		assert.False(t, seen[ref.Name], "duplicate template name %q", ref.Name)
		seen[ref.Name] = true
		files[ref.File] = true
		assert.Greater(t, ref.Threshold, 0.0)
		assert.LessOrEqual(t, ref.Threshold, 1.0)
	}
	assert.Len(t, files, len(Catalog()), "every template has its own asset file")
}

func TestClipboardTokens(t *testing.T) {
	tok := ClipboardToken("kundnr")
	assert.True(t, IsClipboardToken(tok))
	assert.False(t, IsClipboardToken("K-77"))
	assert.False(t, IsClipboardToken(""))
}

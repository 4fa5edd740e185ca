// File: internal/pipeline/controller_test.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/pkarlgren/bryggan/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// immediateScheduler runs every callback synchronously, collapsing the
// controller's deferred continuations into a plain call chain.
type immediateScheduler struct{}

func (immediateScheduler) Schedule(d time.Duration, fn func()) { fn() }
func (immediateScheduler) Cancel()                             {}

// manualScheduler queues callbacks until the test pumps them, so a run can
// be frozen mid-flight and inspected.
type manualScheduler struct {
	queue     []func()
	cancelled int
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) {
	s.queue = append(s.queue, fn)
}

func (s *manualScheduler) Cancel() {
	s.cancelled++
	s.queue = nil
}

// pumpOne runs the oldest pending callback, reporting whether there was one.
func (s *manualScheduler) pumpOne() bool {
	if len(s.queue) == 0 {
		return false
	}
	fn := s.queue[0]
	s.queue = s.queue[1:]
	fn()
	return true
}

type fakeCollab struct {
	resets     int
	resetErr   error
	lastCtxErr error
}

func (f *fakeCollab) ResetState(ctx context.Context) error {
	f.resets++
	f.lastCtxErr = ctx.Err()
	return f.resetErr
}

// stepTracker builds a fixed-length pipeline that records execution order
// and can be told to fail or panic at one index.
type stepTracker struct {
	executed []int
	builds   int

	failAt   int // 1-based; 0 disables
	failErr  error
	panicAt  int // 1-based; 0 disables
}

func (st *stepTracker) build(rc *Context) []Step {
	st.builds++
	steps := make([]Step, 6)
	for i := range steps {
		idx := i
		steps[i] = Step{
			Name: fmt.Sprintf("steg-%d", idx+1),
			Run: func(ctx context.Context, rc *Context) error {
				st.executed = append(st.executed, idx+1)
				if st.panicAt == idx+1 {
					panic("boom")
				}
				if st.failAt == idx+1 {
					return st.failErr
				}
				return nil
			},
		}
	}
	return steps
}

func newTestController(st *stepTracker, sched Scheduler, collabs ...Resettable) *Controller {
	return NewController(st.build, NewRunLog(), sched, collabs, config.PipelineConfig{}, nil, zap.NewNop())
}

func logMessages(l *RunLog) []string {
	entries := l.Snapshot()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestRunAll(t *testing.T) {
	ctx := context.Background()

	t.Run("CompletesAllSteps", func(t *testing.T) {
		st := &stepTracker{}
		c := newTestController(st, immediateScheduler{})

		done := c.RunAll(ctx)
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("run did not complete")
		}

		assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, st.executed)
		assert.Equal(t, 6, c.Cursor())
		assert.Equal(t, 6, c.Progress())
		assert.False(t, c.Running())

		msgs := logMessages(c.Log())
		assert.Contains(t, msgs, "START: steg 1/6: steg-1")
		assert.Contains(t, msgs, "OK: steg-6")
		assert.Equal(t, "KLAR: processen slutförd", msgs[len(msgs)-1])
	})

	t.Run("FailureHaltsRun", func(t *testing.T) {
		sentinel := errors.New("fönster borta")
		st := &stepTracker{failAt: 3, failErr: sentinel}
		var failedStep string
		c := NewController(st.build, NewRunLog(), immediateScheduler{}, nil, config.PipelineConfig{},
			func(step string, err error) { failedStep = step }, zap.NewNop())

		done := c.RunAll(ctx)
		select {
		case err := <-done:
			require.Error(t, err)
			assert.ErrorIs(t, err, sentinel)
		case <-time.After(time.Second):
			t.Fatal("run did not terminate")
		}

		assert.Equal(t, []int{1, 2, 3}, st.executed, "steps after the failure must never run")
		assert.Equal(t, 2, c.Cursor(), "cursor stays on the failed step")
		assert.Equal(t, 2, c.Progress(), "progress counts only completed steps")
		assert.False(t, c.Running())
		assert.Equal(t, "steg-3", failedStep)
		assert.Contains(t, logMessages(c.Log()), "FEL: fönster borta")
	})

	t.Run("PanicBecomesStepFailure", func(t *testing.T) {
		st := &stepTracker{panicAt: 2}
		c := newTestController(st, immediateScheduler{})

		done := c.RunAll(ctx)
		select {
		case err := <-done:
			require.Error(t, err)
			assert.Contains(t, err.Error(), "panicked")
		case <-time.After(time.Second):
			t.Fatal("run did not terminate")
		}
		assert.Equal(t, []int{1, 2}, st.executed)
	})

	t.Run("NoOpWhileRunning", func(t *testing.T) {
		st := &stepTracker{}
		sched := &manualScheduler{}
		c := newTestController(st, sched)

		done1 := c.RunAll(ctx)
		assert.True(t, c.Running())
		done2 := c.RunAll(ctx)
		assert.Equal(t, done1, done2, "a second RunAll must join the run in flight, not start another")

		for sched.pumpOne() {
		}
		require.NoError(t, <-done1)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, st.executed)
	})
}

func TestRunNext(t *testing.T) {
	ctx := context.Background()

	t.Run("ExecutesExactlyOneStep", func(t *testing.T) {
		st := &stepTracker{}
		c := newTestController(st, &manualScheduler{})

		require.NoError(t, c.RunNext(ctx))
		assert.Equal(t, []int{1}, st.executed)
		assert.Equal(t, 1, c.Cursor())
		assert.False(t, c.Running())
	})

	t.Run("PastEndAnnouncesCompletion", func(t *testing.T) {
		st := &stepTracker{}
		c := newTestController(st, &manualScheduler{})

		for i := 0; i < 6; i++ {
			require.NoError(t, c.RunNext(ctx))
		}
		require.NoError(t, c.RunNext(ctx))
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, st.executed)

		msgs := logMessages(c.Log())
		assert.Equal(t, "KLAR: processen slutförd", msgs[len(msgs)-1])
	})

	t.Run("SurfacesStepError", func(t *testing.T) {
		sentinel := errors.New("nej")
		st := &stepTracker{failAt: 1, failErr: sentinel}
		c := newTestController(st, &manualScheduler{})

		err := c.RunNext(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 0, c.Cursor())
	})

	t.Run("NoOpDuringAutoRun", func(t *testing.T) {
		st := &stepTracker{}
		sched := &manualScheduler{}
		c := newTestController(st, sched)

		_ = c.RunAll(ctx)
		require.NoError(t, c.RunNext(ctx))
		assert.Empty(t, st.executed, "manual stepping must not race an auto run")

		c.Reset(ctx)
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("MidRunCancelsAndRestores", func(t *testing.T) {
		st := &stepTracker{}
		sched := &manualScheduler{}
		collab := &fakeCollab{}
		c := newTestController(st, sched, collab)

		done := c.RunAll(ctx)
		require.True(t, sched.pumpOne()) // step 1 executes
		assert.Equal(t, []int{1}, st.executed)

		c.Reset(ctx)

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrRunCancelled)
		case <-time.After(time.Second):
			t.Fatal("cancelled run never reported")
		}

		assert.Equal(t, 0, c.Cursor())
		assert.Equal(t, 0, c.Progress())
		assert.False(t, c.Running())
		assert.Equal(t, 1, collab.resets)
		assert.GreaterOrEqual(t, sched.cancelled, 1)
		assert.Equal(t, 2, st.builds, "the pipeline must be rebuilt from scratch")

		msgs := logMessages(c.Log())
		require.NotEmpty(t, msgs)
		assert.Equal(t, "RESET: allt återställt", msgs[len(msgs)-1])

		// A stale continuation from the dead run must be inert.
		for sched.pumpOne() {
		}
		assert.Equal(t, []int{1}, st.executed)
	})

	t.Run("Idempotent", func(t *testing.T) {
		st := &stepTracker{}
		collab := &fakeCollab{}
		c := newTestController(st, &manualScheduler{}, collab)

		c.Reset(ctx)
		c.Reset(ctx)
		assert.Equal(t, 2, collab.resets)
		assert.Equal(t, 0, c.Cursor())

		done := c.RunAll(ctx)
		_ = done
		assert.True(t, c.Running())
		c.Reset(ctx)
		assert.False(t, c.Running())
	})

	t.Run("CollaboratorFailureDoesNotAbortReset", func(t *testing.T) {
		st := &stepTracker{}
		bad := &fakeCollab{resetErr: errors.New("fönster saknas")}
		good := &fakeCollab{}
		c := newTestController(st, &manualScheduler{}, bad, good)

		c.Reset(ctx)
		assert.Equal(t, 1, bad.resets)
		assert.Equal(t, 1, good.resets, "remaining collaborators still reset")

		msgs := logMessages(c.Log())
		assert.Equal(t, "RESET: allt återställt", msgs[len(msgs)-1])
	})

	t.Run("RestoreUsesTheResetContext", func(t *testing.T) {
		st := &stepTracker{}
		sched := &manualScheduler{}
		collab := &fakeCollab{}
		c := newTestController(st, sched, collab)

		runCtx, cancelRun := context.WithCancel(context.Background())
		done := c.RunAll(runCtx)
		require.True(t, sched.pumpOne())
		cancelRun()

		c.Reset(context.Background())
		assert.Equal(t, 1, collab.resets)
		assert.NoError(t, collab.lastCtxErr,
			"window restore must run on a live context even after the run context dies")

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrRunCancelled)
		case <-time.After(time.Second):
			t.Fatal("cancelled run never reported")
		}
	})

	t.Run("RunAfterResetStartsOver", func(t *testing.T) {
		st := &stepTracker{}
		c := newTestController(st, immediateScheduler{})

		require.NoError(t, <-c.RunAll(ctx))
		c.Reset(ctx)
		require.NoError(t, <-c.RunAll(ctx))
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 1, 2, 3, 4, 5, 6}, st.executed)
	})
}

func TestStepNames(t *testing.T) {
	st := &stepTracker{}
	c := newTestController(st, &manualScheduler{})
	assert.Equal(t, []string{"steg-1", "steg-2", "steg-3", "steg-4", "steg-5", "steg-6"}, c.StepNames())
}

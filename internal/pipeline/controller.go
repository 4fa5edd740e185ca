// File: internal/pipeline/controller.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pkarlgren/bryggan/internal/config"
)

// ErrRunCancelled is delivered to RunAll waiters when a reset lands while
// an auto-advance run is still in flight.
var ErrRunCancelled = errors.New("run cancelled by reset")

// Resettable is the narrow surface every external collaborator exposes for
// restoring its default state on reset.
type Resettable interface {
	ResetState(ctx context.Context) error
}

// Builder constructs the step pipeline for a run context. It is invoked
// once at startup and again on every reset, so steps can capture fresh
// closures over the new context.
type Builder func(rc *Context) []Step

// FailureNotifier receives a blocking notification identifying which named
// step failed and why. The presentation layer hangs off this.
type FailureNotifier func(step string, err error)

// Controller owns the run state: the cursor, the running flag and the
// append-only log. It executes steps strictly in pipeline order, one at a
// time; auto-advance is a chain of deferred continuations on the scheduler
// so the hosting process stays responsive between steps. The controller is
// the single boundary that catches step failures: they are logged,
// surfaced, and never allowed to terminate the process.
type Controller struct {
	logger    *zap.Logger
	log       *RunLog
	sched     Scheduler
	build     Builder
	collabs   []Resettable
	cfg       config.PipelineConfig
	onFailure FailureNotifier

	mu       sync.Mutex
	steps    []Step
	rc       *Context
	cursor   int
	progress int
	running  bool
	gen      uint64
	done     chan error
}

// NewController builds the initial pipeline and returns an idle controller.
// The run log is shared with the step implementations so business lines
// and lifecycle lines interleave in order.
func NewController(build Builder, log *RunLog, sched Scheduler, collabs []Resettable, cfg config.PipelineConfig, onFailure FailureNotifier, logger *zap.Logger) *Controller {
	rc := NewContext()
	if log == nil {
		log = NewRunLog()
	}
	return &Controller{
		logger:    logger.Named("pipeline"),
		log:       log,
		sched:     sched,
		build:     build,
		collabs:   collabs,
		cfg:       cfg,
		onFailure: onFailure,
		steps:     build(rc),
		rc:        rc,
	}
}

// Log exposes the run log for live rendering.
func (c *Controller) Log() *RunLog { return c.log }

// Cursor returns the index of the next step to execute.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Progress returns the number of successfully completed steps.
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Running reports whether an auto-advance run is in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// StepNames returns the names of the pipeline steps in order.
func (c *Controller) StepNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name
	}
	return names
}

// RunAll starts auto-advancing through the remaining steps. A no-op when a
// run is already in flight. The returned channel delivers the terminal
// outcome: nil on completion, the step error on failure, ErrRunCancelled
// when a reset interrupts the run.
func (c *Controller) RunAll(ctx context.Context) <-chan error {
	c.mu.Lock()
	if c.running {
		done := c.done
		c.mu.Unlock()
		return done
	}
	c.running = true
	c.done = make(chan error, 1)
	done := c.done
	gen := c.gen
	c.mu.Unlock()

	c.advance(ctx, gen)
	return done
}

// RunNext executes exactly one step at the cursor and does not
// auto-continue; used for manual, presentation-paced stepping. Failure
// handling matches RunAll: caught here, logged, surfaced as the return
// value. A no-op while an auto-advance run is in flight.
func (c *Controller) RunNext(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	if c.cursor >= len(c.steps) {
		c.mu.Unlock()
		c.log.Append("KLAR: processen slutförd")
		return nil
	}
	idx := c.cursor
	step := c.steps[idx]
	total := len(c.steps)
	gen := c.gen
	c.mu.Unlock()

	c.announce(idx, total, step.Name)
	if err := sleepCtx(ctx, c.cfg.PreStepDelay); err != nil {
		return err
	}
	return c.execute(ctx, idx, gen, false)
}

// Reset cancels any in-flight auto-advance, zeroes cursor and progress,
// clears the log, asks every collaborator to restore its default state,
// and rebuilds the pipeline and run context from scratch. Idempotent.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	wasRunning := c.running
	c.running = false
	c.cursor = 0
	c.progress = 0
	prevDone := c.done
	c.done = nil
	c.mu.Unlock()

	c.sched.Cancel()
	c.log.Clear()

	for _, collab := range c.collabs {
		if err := collab.ResetState(ctx); err != nil {
			c.logger.Warn("Collaborator reset failed", zap.Error(err))
			c.log.Appendf("RESET: återställning misslyckades: %v", err)
		}
	}

	rc := NewContext()
	steps := c.build(rc)
	c.mu.Lock()
	c.rc = rc
	c.steps = steps
	c.mu.Unlock()

	c.log.Append("RESET: allt återställt")

	if wasRunning && prevDone != nil {
		select {
		case prevDone <- ErrRunCancelled:
		default:
		}
	}
}

// advance announces the step at the cursor and schedules its execution
// after the pre-step delay, so the "about to execute" state is observable
// before the step's side effects occur.
func (c *Controller) advance(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return
	}
	if c.cursor >= len(c.steps) {
		c.running = false
		done := c.done
		c.mu.Unlock()
		c.log.Append("KLAR: processen slutförd")
		c.logger.Info("Pipeline completed")
		if done != nil {
			select {
			case done <- nil:
			default:
			}
		}
		return
	}
	idx := c.cursor
	step := c.steps[idx]
	total := len(c.steps)
	c.mu.Unlock()

	c.announce(idx, total, step.Name)
	c.sched.Schedule(c.cfg.PreStepDelay, func() {
		_ = c.execute(ctx, idx, gen, true)
	})
}

// execute runs the step at idx, records the outcome, and (in auto mode)
// schedules the next continuation after the pacing delay.
func (c *Controller) execute(ctx context.Context, idx int, gen uint64, auto bool) error {
	c.mu.Lock()
	if gen != c.gen || idx != c.cursor || idx >= len(c.steps) {
		c.mu.Unlock()
		return nil
	}
	step := c.steps[idx]
	rc := c.rc
	c.mu.Unlock()

	err := runStep(ctx, step, rc)

	c.mu.Lock()
	if gen != c.gen {
		// A reset landed while the step was running; its outcome
		// belongs to a dead run.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.running = false
		done := c.done
		c.mu.Unlock()

		c.log.Appendf("FEL: %v", err)
		c.logger.Error("Step failed",
			zap.String("step", step.Name),
			zap.Error(err))
		if c.onFailure != nil {
			c.onFailure(step.Name, err)
		}
		if done != nil {
			select {
			case done <- fmt.Errorf("step %q failed: %w", step.Name, err):
			default:
			}
		}
		return err
	}

	c.cursor = idx + 1
	c.progress = idx + 1
	stillRunning := c.running
	c.mu.Unlock()

	c.log.Appendf("OK: %s", step.Name)

	if auto && stillRunning {
		c.sched.Schedule(c.cfg.StepPacing, func() {
			c.advance(ctx, gen)
		})
	}
	return nil
}

func (c *Controller) announce(idx, total int, name string) {
	c.log.Appendf("START: steg %d/%d: %s", idx+1, total, name)
	c.logger.Info("Executing step",
		zap.Int("step", idx+1),
		zap.Int("of", total),
		zap.String("name", name))
}

// runStep invokes the step and converts a panic into a step failure, so a
// misbehaving step can never take the whole process down.
func runStep(ctx context.Context, step Step, rc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()
	return step.Run(ctx, rc)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

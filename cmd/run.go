// -- cmd/run.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pkarlgren/bryggan/internal/actuator"
	"github.com/pkarlgren/bryggan/internal/docreader"
	"github.com/pkarlgren/bryggan/internal/flows"
	"github.com/pkarlgren/bryggan/internal/interact"
	"github.com/pkarlgren/bryggan/internal/observability"
	"github.com/pkarlgren/bryggan/internal/pipeline"
	"github.com/pkarlgren/bryggan/internal/vision"
)

// runCmd executes the full pipeline once against the live windows.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full workflow pipeline once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(parent context.Context) error {
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The template registry is loaded once, up front; a missing asset
	// aborts here rather than halfway through a run.
	registry, err := vision.NewRegistry(cfg.Vision().TemplateDir, cfg.Vision().DefaultThreshold, flows.Catalog())
	if err != nil {
		return fmt.Errorf("template registry: %w", err)
	}

	// Collaborator applications, when configured, are started before
	// the browser session so their windows exist by the first switch.
	if err := launchCollaborators(ctx, logger); err != nil {
		return err
	}

	// The browser session is scoped to the process, not to the signal
	// context: an interrupt must still leave a live session for the
	// window-restoring reset before the deferred cancel tears it down.
	taskCtx, cancel, err := newBrowserContext(context.Background())
	if err != nil {
		return err
	}
	defer cancel()

	// Steps run on a child of the session that the interrupt cancels.
	runCtx, cancelRun := context.WithCancel(taskCtx)
	defer cancelRun()
	stopForward := context.AfterFunc(ctx, cancelRun)
	defer stopForward()

	if err := chromedp.Run(runCtx, chromedp.Navigate(cfg.Browser().DocumentURL)); err != nil {
		return fmt.Errorf("failed to open document source: %w", err)
	}

	// Composition: locator over live frames, actuator over CDP input,
	// driver on top of both, collaborators on top of the driver.
	locator := vision.NewLocator(vision.NewCDPFrameSource(), registry, logger)
	act := actuator.New(actuator.NewCDPExecutor(), cfg.Input(), nil, logger)
	driver := interact.NewDriver(locator, act, cfg.Interact(), cfg.Input(), logger)

	seed := flows.Case{
		ID:       cfg.Case().ID,
		RefNr:    cfg.Case().RefNr,
		TjanstNr: cfg.Case().TjanstNr,
	}
	cases := flows.NewVisualCase(driver, seed, logger)
	service := flows.NewVisualService(driver, act, cfg.Input(), logger)
	document := flows.NewElsmartSource(docreader.NewPageReader(cfg.Browser().DocumentURL, logger), logger)

	runLog := pipeline.NewRunLog()
	workflow := flows.NewWorkflow(cases, service, document, runLog, logger)
	ctrl := pipeline.NewController(
		workflow.Build,
		runLog,
		pipeline.NewTimerScheduler(),
		workflow.Collaborators(),
		cfg.Pipeline(),
		func(step string, err error) {
			logger.Error("Step failed; run halted, reset required",
				zap.String("step", step),
				zap.Error(err))
		},
		logger,
	)

	select {
	case err := <-ctrl.RunAll(runCtx):
		for _, e := range ctrl.Log().Snapshot() {
			fmt.Printf("%s  %s\n", e.Time.Format("15:04:05"), e.Message)
		}
		return err
	case <-ctx.Done():
		cancelRun()
		// Restore the collaborator windows over the still-live session,
		// bounded so a wedged window cannot stall shutdown.
		resetCtx, cancelReset := context.WithTimeout(taskCtx, 15*time.Second)
		defer cancelReset()
		ctrl.Reset(resetCtx)
		return ctx.Err()
	}
}

// newBrowserContext attaches to a running browser when configured, or
// launches one sized for the demo layout.
func newBrowserContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if url := cfg.Browser().AttachURL; url != "" {
		allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, url)
		taskCtx, cancelTask := chromedp.NewContext(allocCtx)
		return taskCtx, func() { cancelTask(); cancelAlloc() }, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser().Headless),
		chromedp.WindowSize(cfg.Browser().WindowWidth, cfg.Browser().WindowHeight),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)

	// Force allocation now so a broken browser install fails fast.
	if err := chromedp.Run(taskCtx); err != nil {
		cancelTask()
		cancelAlloc()
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return taskCtx, func() { cancelTask(); cancelAlloc() }, nil
}

// launchCollaborators starts the configured target applications and gives
// their windows a moment to appear.
func launchCollaborators(ctx context.Context, logger *zap.Logger) error {
	cmds := cfg.Browser().LaunchCommands
	if len(cmds) == 0 {
		return nil
	}
	for _, line := range cmds {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		c := exec.CommandContext(ctx, fields[0], fields[1:]...)
		c.Stdout = nil
		c.Stderr = nil
		if err := c.Start(); err != nil {
			return fmt.Errorf("failed to launch %q: %w", line, err)
		}
		logger.Info("Collaborator launched", zap.String("command", line))
	}

	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

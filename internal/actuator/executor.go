// File: internal/actuator/executor.go
package actuator

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// Executor defines the contract for dispatching raw input to the host,
// allowing for mocking during tests. This interface is the cornerstone of
// the module's testability strategy: the actuator decides what to send and
// when, the executor only delivers it.
type Executor interface {
	// Sleep pauses execution for a given duration (context-aware).
	Sleep(ctx context.Context, d time.Duration) error

	// DispatchMouseEvent sends a raw low-level mouse event.
	DispatchMouseEvent(ctx context.Context, p *input.DispatchMouseEventParams) error

	// DispatchKeyEvent sends a raw low-level key event.
	DispatchKeyEvent(ctx context.Context, p *input.DispatchKeyEventParams) error

	// SendText delivers printable text to the focused element.
	SendText(ctx context.Context, text string) error
}

// CDPExecutor is the production implementation of the Executor interface.
// It wraps the real chromedp/cdproto calls.
type CDPExecutor struct{}

// NewCDPExecutor creates a new production-ready executor.
func NewCDPExecutor() *CDPExecutor {
	return &CDPExecutor{}
}

func (e *CDPExecutor) Sleep(ctx context.Context, d time.Duration) error {
	return chromedp.Sleep(d).Do(ctx)
}

func (e *CDPExecutor) DispatchMouseEvent(ctx context.Context, p *input.DispatchMouseEventParams) error {
	return p.Do(ctx)
}

func (e *CDPExecutor) DispatchKeyEvent(ctx context.Context, p *input.DispatchKeyEventParams) error {
	return p.Do(ctx)
}

func (e *CDPExecutor) SendText(ctx context.Context, text string) error {
	return chromedp.SendKeys("document.activeElement", text, chromedp.ByJSPath).Do(ctx)
}

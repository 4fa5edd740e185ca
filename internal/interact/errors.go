// File: internal/interact/errors.go
package interact

import (
	"fmt"
	"time"
)

// AnchorError reports that every attempt to locate and click an anchor was
// exhausted. It wraps the last underlying locate or click failure.
type AnchorError struct {
	Template string
	Attempts int
	Err      error
}

func (e *AnchorError) Error() string {
	return fmt.Sprintf("anchor %q unreachable after %d attempts: %v", e.Template, e.Attempts, e.Err)
}

func (e *AnchorError) Unwrap() error { return e.Err }

// SignatureTimeoutError reports that a signature never appeared within its
// wait budget.
type SignatureTimeoutError struct {
	Template string
	Timeout  time.Duration
}

func (e *SignatureTimeoutError) Error() string {
	return fmt.Sprintf("signature %q did not appear within %v", e.Template, e.Timeout)
}

// WindowNotFoundError reports that cycling through top-level windows never
// brought the wanted signature into view.
type WindowNotFoundError struct {
	Template string
	Switches int
}

func (e *WindowNotFoundError) Error() string {
	return fmt.Sprintf("window with signature %q not found after %d switches", e.Template, e.Switches)
}

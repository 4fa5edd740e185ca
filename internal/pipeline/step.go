// File: internal/pipeline/step.go
package pipeline

import "context"

// Step is a named unit of work in the pipeline. Steps are immutable once
// registered; the pipeline itself is an ordered sequence, rebuilt from
// scratch on reset so fresh closures capture the reset context.
type Step struct {
	Name string
	Run  func(ctx context.Context, rc *Context) error
}

// Context is the key/value state threaded through one workflow run. It is
// created empty at the start of a run, mutated only by the single execution
// thread, and discarded on reset.
type Context struct {
	values    map[string]string
	validated bool
}

// NewContext creates an empty run context.
func NewContext() *Context {
	return &Context{values: make(map[string]string)}
}

// Get returns the value stored under key, or "" when absent.
func (c *Context) Get(key string) string { return c.values[key] }

// Set stores value under key, overwriting any previous value.
func (c *Context) Set(key, value string) { c.values[key] = value }

// Validated reports the validation outcome set earlier in the run. It is
// set once by the validation step and honored, never re-derived, by every
// downstream step.
func (c *Context) Validated() bool { return c.validated }

// SetValidated records the validation outcome for the rest of the run.
func (c *Context) SetValidated(ok bool) { c.validated = ok }

// Len returns the number of stored keys.
func (c *Context) Len() int { return len(c.values) }

// Package completion wraps the hosted text-completion collaborator.
package completion

import "context"

// Options tune a single completion request.
type Options struct {
	// System is an optional system instruction.
	System string
	// Temperature overrides the model default when non-nil.
	Temperature *float32
	// JSON requests structured output: the model is asked to respond
	// with a JSON document instead of prose.
	JSON bool
}

// Client issues one-shot completion requests. Implementations must be
// safe for concurrent use: the fan-out helper calls Complete from
// several goroutines at once.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Package specialist defines the unit of dispatch: an independently
// addressable actor exposing named tools, resolved either fresh per
// gateway invocation or pinned to a session by the multiplexer.
package specialist

import (
	"context"
	"fmt"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
)

// Params carries the decoded parameter object of one invocation.
type Params map[string]any

// Emitter receives informational status messages from a running tool.
// Emissions are best-effort and strictly precede the terminal result.
type Emitter func(message string)

// Specialist is an addressable actor. Implementations are cheap to
// construct: the gateway builds a fresh one for every invocation.
type Specialist interface {
	// Name returns the dispatch name clients address this specialist by.
	Name() string

	// Tools lists the tool names Invoke accepts.
	Tools() []string

	// Invoke runs one tool and returns its JSON-serializable result.
	// emit may be nil when the caller has no status channel.
	Invoke(ctx context.Context, tool string, params Params, emit Emitter) (any, error)
}

// String extracts a required string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fault.New(fault.KindValidation, "parameter %q is required", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fault.New(fault.KindValidation, "parameter %q must be a non-empty string", key)
	}
	return s, nil
}

// OptionalString extracts a string parameter, returning def when absent.
func (p Params) OptionalString(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// OptionalInt extracts an integer parameter, returning def when absent.
// JSON numbers decode as float64, so both are accepted.
func (p Params) OptionalInt(key string, def int) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// StringSlice extracts an optional list-of-strings parameter.
func (p Params) StringSlice(key string) ([]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fault.New(fault.KindValidation, "parameter %q must be a list of strings", key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fault.New(fault.KindValidation, "parameter %q must be a list of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// UnknownTool is the error every specialist returns for a tool name it
// does not implement.
func UnknownTool(name, tool string) error {
	return fault.New(fault.KindConfiguration, "specialist %q has no tool %q", name, tool)
}

// Emitf formats a status message if emit is non-nil.
func Emitf(emit Emitter, format string, args ...any) {
	if emit != nil {
		emit(fmt.Sprintf(format, args...))
	}
}

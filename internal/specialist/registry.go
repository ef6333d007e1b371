package specialist

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
)

// Factory builds a fresh specialist instance. The gateway calls it once
// per invocation so that two calls against the same name never share
// in-memory state; the session multiplexer calls it once per session.
type Factory func() Specialist

// Registry maps specialist names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
}

// Register adds a factory under the given name, replacing any previous one.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	r.logger.Info("registered specialist", "specialist", name)
}

// Resolve returns a fresh instance of the named specialist. Unknown names
// fail with a configuration fault before any collaborator is contacted.
func (r *Registry) Resolve(name string) (Specialist, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fault.New(fault.KindConfiguration, "specialist %q is not configured", name)
	}
	return factory(), nil
}

// Names returns the registered specialist names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

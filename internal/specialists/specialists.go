// Package specialists holds the concrete actors wired into the
// registry. Each is a thin adapter binding tool names to orchestrator
// methods: parameter decoding and shaping live here, the business logic
// lives in workflow and ensemble.
package specialists

import (
	"github.com/jmbish04/lightbulb-aquarium/internal/ensemble"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
	"github.com/jmbish04/lightbulb-aquarium/internal/workflow"
)

// RegisterAll wires every specialist into the registry. The factories
// close over shared collaborators; the instances themselves stay cheap
// so the gateway can build one per invocation.
func RegisterAll(reg *specialist.Registry, orch *workflow.Orchestrator, gen *ensemble.Generator) {
	reg.Register("source-control", func() specialist.Specialist {
		return &SourceControl{orch: orch}
	})
	reg.Register("research", func() specialist.Specialist {
		return &Research{orch: orch}
	})
	reg.Register("consult", func() specialist.Specialist {
		return &Consult{orch: orch}
	})
	reg.Register("drafting", func() specialist.Specialist {
		return &Drafting{gen: gen}
	})
}

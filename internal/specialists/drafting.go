package specialists

import (
	"context"

	"github.com/jmbish04/lightbulb-aquarium/internal/ensemble"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
)

// defaultDrafts is how many candidates draftBest fans out when the
// caller does not say.
const defaultDrafts = 3

// Drafting produces prose through the fan-out-and-judge generator.
type Drafting struct {
	gen *ensemble.Generator
}

func (d *Drafting) Name() string    { return "drafting" }
func (d *Drafting) Tools() []string { return []string{"draftBest"} }

func (d *Drafting) Invoke(ctx context.Context, tool string, params specialist.Params, emit specialist.Emitter) (any, error) {
	if tool != "draftBest" {
		return nil, specialist.UnknownTool(d.Name(), tool)
	}

	topic, err := params.String("topic")
	if err != nil {
		return nil, err
	}
	n := params.OptionalInt("candidates", defaultDrafts)

	specialist.Emitf(emit, "drafting %d candidates for %q", n, topic)
	body, err := d.gen.BestOf(ctx, topic, n)
	if err != nil {
		return nil, err
	}

	return map[string]any{"topic": topic, "body": body}, nil
}

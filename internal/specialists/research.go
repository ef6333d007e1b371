package specialists

import (
	"context"

	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
	"github.com/jmbish04/lightbulb-aquarium/internal/workflow"
)

// Research runs the research-brief workflow and serves brief lookups.
type Research struct {
	orch *workflow.Orchestrator
}

func (r *Research) Name() string    { return "research" }
func (r *Research) Tools() []string { return []string{"researchBrief", "getBrief", "listBriefs"} }

func (r *Research) Invoke(ctx context.Context, tool string, params specialist.Params, emit specialist.Emitter) (any, error) {
	switch tool {
	case "researchBrief":
		return r.researchBrief(ctx, params, emit)
	case "getBrief":
		return r.getBrief(ctx, params)
	case "listBriefs":
		return r.orch.Store().ListBriefs(ctx)
	default:
		return nil, specialist.UnknownTool(r.Name(), tool)
	}
}

func (r *Research) researchBrief(ctx context.Context, params specialist.Params, emit specialist.Emitter) (any, error) {
	topic, err := params.String("topic")
	if err != nil {
		return nil, err
	}
	seeds, err := params.StringSlice("seeds")
	if err != nil {
		return nil, err
	}

	req := workflow.BriefRequest{Topic: topic, Seeds: seeds}
	return r.orch.ResearchBrief(ctx, req, workflow.Notify(emit))
}

func (r *Research) getBrief(ctx context.Context, params specialist.Params) (any, error) {
	id, err := params.String("briefId")
	if err != nil {
		return nil, err
	}

	st := r.orch.Store()
	brief, err := st.GetBrief(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := st.ListRepoReviews(ctx, id)
	if err != nil {
		return nil, err
	}
	findings, err := st.ListFindings(ctx, id)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"brief":    brief,
		"reviews":  reviews,
		"findings": findings,
	}
	if synthesis, ok := r.orch.BriefSynthesis(id); ok {
		out["synthesis"] = synthesis
	}
	return out, nil
}

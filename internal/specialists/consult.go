package specialists

import (
	"context"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
	"github.com/jmbish04/lightbulb-aquarium/internal/workflow"
)

// Consult runs the error/debug workflow and lets operators close out
// consultation records by hand.
type Consult struct {
	orch *workflow.Orchestrator
}

func (c *Consult) Name() string { return "consult" }
func (c *Consult) Tools() []string {
	return []string{"reportIssue", "resolveIssue", "listConsultations"}
}

func (c *Consult) Invoke(ctx context.Context, tool string, params specialist.Params, emit specialist.Emitter) (any, error) {
	switch tool {
	case "reportIssue":
		return c.reportIssue(ctx, params, emit)
	case "resolveIssue":
		return c.resolveIssue(ctx, params)
	case "listConsultations":
		return c.orch.Store().ListConsultations(ctx)
	default:
		return nil, specialist.UnknownTool(c.Name(), tool)
	}
}

func (c *Consult) reportIssue(ctx context.Context, params specialist.Params, emit specialist.Emitter) (any, error) {
	question, err := params.String("question")
	if err != nil {
		return nil, err
	}
	contextText := params.OptionalString("context", "")

	return c.orch.Consult(ctx, question, contextText, workflow.Notify(emit))
}

// resolveIssue overrides a consultation's status, for runs the model
// parked at unresolved that a human later closed out, or fixes that
// turned out not to hold.
func (c *Consult) resolveIssue(ctx context.Context, params specialist.Params) (any, error) {
	id, err := params.String("consultationId")
	if err != nil {
		return nil, err
	}
	status := params.OptionalString("status", store.ConsultFixed)
	if status != store.ConsultFixed && status != store.ConsultUnresolved {
		return nil, fault.New(fault.KindValidation, "status must be %q or %q", store.ConsultFixed, store.ConsultUnresolved)
	}

	st := c.orch.Store()
	existing, err := st.GetConsultation(ctx, id)
	if err != nil {
		return nil, err
	}

	response := params.OptionalString("resolution", existing.Response)
	if err := st.UpdateConsultation(ctx, id, status, response); err != nil {
		return nil, err
	}
	return st.GetConsultation(ctx, id)
}

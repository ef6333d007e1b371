package specialists

import (
	"context"

	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
	"github.com/jmbish04/lightbulb-aquarium/internal/workflow"
)

// SourceControl runs the fork/plan workflow and serves project lookups.
type SourceControl struct {
	orch *workflow.Orchestrator
}

func (s *SourceControl) Name() string { return "source-control" }
func (s *SourceControl) Tools() []string {
	return []string{"forkAndPlan", "getProject", "updateProjectStatus"}
}

func (s *SourceControl) Invoke(ctx context.Context, tool string, params specialist.Params, emit specialist.Emitter) (any, error) {
	switch tool {
	case "forkAndPlan":
		return s.forkAndPlan(ctx, params, emit)
	case "getProject":
		return s.getProject(ctx, params)
	case "updateProjectStatus":
		return s.updateProjectStatus(ctx, params)
	default:
		return nil, specialist.UnknownTool(s.Name(), tool)
	}
}

func (s *SourceControl) forkAndPlan(ctx context.Context, params specialist.Params, emit specialist.Emitter) (any, error) {
	repoURL, err := params.String("repoUrl")
	if err != nil {
		return nil, err
	}
	task, err := params.String("taskDescription")
	if err != nil {
		return nil, err
	}

	req := workflow.ForkPlanRequest{
		RepoURL:         repoURL,
		NewRepoName:     params.OptionalString("newRepoName", ""),
		TaskDescription: task,
	}
	return s.orch.ForkPlan(ctx, req, workflow.Notify(emit))
}

func (s *SourceControl) getProject(ctx context.Context, params specialist.Params) (any, error) {
	id, err := params.String("projectId")
	if err != nil {
		return nil, err
	}

	project, err := s.orch.Store().GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.orch.Store().GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	out := map[string]any{"project": project, "plan": plan}
	if step, ok := s.orch.Store().GetKV(ctx, "project:"+id+":last_step"); ok {
		out["lastStep"] = step
	}
	return out, nil
}

// updateProjectStatus moves a project through its lifecycle; the
// orchestrator rejects transitions the status graph does not allow.
func (s *SourceControl) updateProjectStatus(ctx context.Context, params specialist.Params) (any, error) {
	id, err := params.String("projectId")
	if err != nil {
		return nil, err
	}
	status, err := params.String("status")
	if err != nil {
		return nil, err
	}
	return s.orch.AdvanceProject(ctx, id, status)
}

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmbish04/lightbulb-aquarium/internal/completion"
	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/hosting"
	"github.com/jmbish04/lightbulb-aquarium/internal/observability"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
)

// ForkPlanRequest starts a fork/plan workflow run.
type ForkPlanRequest struct {
	RepoURL         string `json:"repoUrl"`
	NewRepoName     string `json:"newRepoName"`
	TaskDescription string `json:"taskDescription"`
}

// ForkPlanResult is returned to the caller once the run is persisted.
type ForkPlanResult struct {
	NewRepoURL    string `json:"newRepoUrl"`
	Plan          *Plan  `json:"plan"`
	WorkflowRunID string `json:"workflowRunId"`
}

// Plan is the structured planning artifact produced by the completion
// service. A response that cannot be parsed degrades into a plan whose
// summary holds the raw text.
type Plan struct {
	Summary        string      `json:"summary"`
	Milestones     []Milestone `json:"milestones"`
	Risks          []string    `json:"risks"`
	SuccessMetrics []string    `json:"successMetrics"`
}

// Milestone is one ordered step of a plan.
type Milestone struct {
	Title      string   `json:"title"`
	Tasks      []string `json:"tasks"`
	EffortDays float64  `json:"effortDays"`
}

// ForkPlan runs the fork/plan workflow: validate, fetch source, fork,
// poll the fork for availability, generate a plan, persist project and
// plan together.
func (o *Orchestrator) ForkPlan(ctx context.Context, req ForkPlanRequest, notify Notify) (*ForkPlanResult, error) {
	started := time.Now()

	result, err := o.forkPlan(ctx, req, notify)
	observability.RecordWorkflow("fork_plan", err == nil, time.Since(started))
	return result, err
}

func (o *Orchestrator) forkPlan(ctx context.Context, req ForkPlanRequest, notify Notify) (*ForkPlanResult, error) {
	if req.RepoURL == "" {
		return nil, fault.New(fault.KindValidation, "repoUrl is required")
	}
	if req.TaskDescription == "" {
		return nil, fault.New(fault.KindValidation, "taskDescription is required")
	}

	owner, name, err := hosting.ParseRepoURL(req.RepoURL)
	if err != nil {
		return nil, err
	}

	newName := req.NewRepoName
	if newName == "" {
		newName = name + "-fork"
	}

	o.logger.Info("fork/plan started", "source", owner+"/"+name, "new_name", newName)
	o.notify(notify, fmt.Sprintf("fetching metadata for %s/%s", owner, name))

	source, err := o.host.GetRepo(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetch source metadata: %w", err)
	}

	o.notify(notify, fmt.Sprintf("forking %s as %s", source.FullName, newName))

	var fork *hosting.Repo
	err = o.callUpstream(ctx, func() error {
		var ferr error
		fork, ferr = o.host.ForkRepo(ctx, owner, name, newName)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("request fork: %w", err)
	}

	o.notify(notify, fmt.Sprintf("waiting for %s to become available", fork.FullName))
	o.waitForFork(ctx, fork)

	o.notify(notify, "drafting project plan")
	plan := o.generatePlan(ctx, source, req.TaskDescription)

	planBody, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}

	project := &store.Project{
		Name:        newName,
		Description: req.TaskDescription,
		SourceURL:   source.URL,
		Status:      store.ProjectPlanned,
	}
	if _, err := o.store.CreateProjectWithPlan(ctx, project, string(planBody)); err != nil {
		return nil, fmt.Errorf("persist workflow run: %w", err)
	}

	o.store.PutKV(ctx, "project:"+project.ID+":last_step", "persisted")
	o.putBlob("plans/"+project.ID+".json", planBody)

	o.logger.Info("fork/plan completed", "project_id", project.ID, "fork", fork.URL)
	return &ForkPlanResult{
		NewRepoURL:    fork.URL,
		Plan:          plan,
		WorkflowRunID: project.ID,
	}, nil
}

// projectTransitions is the allowed status graph: planned runs are
// activated, active runs finish as completed or archived, and either
// may be parked at failed.
var projectTransitions = map[string][]string{
	store.ProjectPlanned: {store.ProjectActive, store.ProjectArchived, store.ProjectFailed},
	store.ProjectActive:  {store.ProjectCompleted, store.ProjectArchived, store.ProjectFailed},
}

// AdvanceProject moves a workflow run through its lifecycle, rejecting
// transitions the status graph does not allow. Completed, archived and
// failed are terminal.
func (o *Orchestrator) AdvanceProject(ctx context.Context, id, status string) (*store.Project, error) {
	project, err := o.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range projectTransitions[project.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fault.New(fault.KindValidation, "cannot move project from %q to %q", project.Status, status)
	}

	if err := o.store.UpdateProjectStatus(ctx, id, status); err != nil {
		return nil, err
	}
	o.store.PutKV(ctx, "project:"+id+":last_step", status)

	o.logger.Info("project status updated", "project_id", id, "from", project.Status, "to", status)
	return o.store.GetProject(ctx, id)
}

// waitForFork polls the fork's metadata until it reads back or the
// deadline passes. The remote copy is created asynchronously; deadline
// expiry is non-fatal because the fork request itself succeeded.
func (o *Orchestrator) waitForFork(ctx context.Context, fork *hosting.Repo) {
	deadline := time.After(o.cfg.PollDeadline)
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := o.host.GetRepo(ctx, fork.Owner, fork.Name); err == nil {
			o.logger.Debug("fork is available", "fork", fork.FullName)
			return
		}

		select {
		case <-ctx.Done():
			o.logger.Warn("fork poll cancelled", "fork", fork.FullName)
			return
		case <-deadline:
			o.logger.Warn("fork not readable before deadline, proceeding",
				"fork", fork.FullName,
				"deadline", o.cfg.PollDeadline)
			return
		case <-ticker.C:
		}
	}
}

// generatePlan asks the completion service for a structured plan. The
// call retries on upstream failures; an unparseable response degrades
// to a summary-only plan rather than failing the workflow.
func (o *Orchestrator) generatePlan(ctx context.Context, source *hosting.Repo, task string) *Plan {
	prompt := planPrompt(source, task)

	var raw string
	err := o.callUpstream(ctx, func() error {
		var cerr error
		raw, cerr = o.llm.Complete(ctx, prompt, completion.Options{
			System: planSystemPrompt,
			JSON:   true,
		})
		return cerr
	})
	if err != nil {
		o.logger.Warn("plan generation failed, using task description", "error", err)
		return &Plan{Summary: task}
	}

	plan, err := parsePlan(raw)
	if err != nil {
		o.logger.Warn("plan response not parseable, degrading", "error", err)
		return &Plan{Summary: strings.TrimSpace(raw)}
	}
	return plan
}

// parsePlan decodes the model's JSON, tolerating markdown fences.
func parsePlan(raw string) (*Plan, error) {
	cleaned := stripFences(raw)

	var plan Plan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fault.Wrap(fault.KindParse, err, "plan is not valid JSON")
	}
	if plan.Summary == "" && len(plan.Milestones) == 0 {
		return nil, fault.New(fault.KindParse, "plan JSON has no summary or milestones")
	}
	return &plan, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

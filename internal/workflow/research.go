package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmbish04/lightbulb-aquarium/internal/completion"
	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/hosting"
	"github.com/jmbish04/lightbulb-aquarium/internal/observability"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
)

// analysisConcurrency bounds how many candidates are analyzed at once.
const analysisConcurrency = 4

// BriefRequest starts a research-brief workflow run.
type BriefRequest struct {
	Topic string   `json:"topic"`
	Seeds []string `json:"seeds"`
}

// RepoAnalysis is the structured per-candidate assessment.
type RepoAnalysis struct {
	URL                 string   `json:"url"`
	Summary             string   `json:"summary"`
	NotableCapabilities []string `json:"notableCapabilities"`
	FitScore            float64  `json:"fitScore"`
	Findings            []string `json:"findings"`
}

// Synthesis is the executive summary over all analyses.
type Synthesis struct {
	OverallSummary  string   `json:"overallSummary"`
	Recommendations []string `json:"recommendations"`
}

// BriefResult is returned once the brief reaches complete.
type BriefResult struct {
	BriefID   string          `json:"briefId"`
	Synthesis *Synthesis      `json:"synthesis"`
	Analyses  []*RepoAnalysis `json:"analyses"`
}

// ResearchBrief runs the research workflow: register the brief first,
// analyze each candidate (skipping failures), persist reviews as they
// complete, then synthesize.
func (o *Orchestrator) ResearchBrief(ctx context.Context, req BriefRequest, notify Notify) (*BriefResult, error) {
	started := time.Now()

	result, err := o.researchBrief(ctx, req, notify)
	observability.RecordWorkflow("research_brief", err == nil, time.Since(started))
	return result, err
}

func (o *Orchestrator) researchBrief(ctx context.Context, req BriefRequest, notify Notify) (*BriefResult, error) {
	if req.Topic == "" {
		return nil, fault.New(fault.KindValidation, "topic is required")
	}

	// The brief row exists before any expensive work so partial progress
	// is always inspectable.
	briefID, err := o.store.CreateBrief(ctx, req.Topic, store.BriefPending)
	if err != nil {
		return nil, fmt.Errorf("register brief: %w", err)
	}

	o.logger.Info("research brief started", "brief_id", briefID, "topic", req.Topic)
	o.notify(notify, "collecting candidate repositories")

	candidates := o.collectCandidates(ctx, req)
	if len(candidates) == 0 {
		_ = o.store.UpdateBrief(ctx, briefID, store.BriefError, "no candidates found")
		return nil, fault.New(fault.KindNotFound, "no candidate repositories for topic %q", req.Topic)
	}

	if err := o.store.UpdateBrief(ctx, briefID, store.BriefResearching, ""); err != nil {
		return nil, fmt.Errorf("start research: %w", err)
	}

	o.notify(notify, fmt.Sprintf("analyzing %d candidates", len(candidates)))

	analyses := make([]*RepoAnalysis, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analysisConcurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			analysis, err := o.analyzeCandidate(gctx, req.Topic, candidate)
			if err != nil {
				// One bad candidate never aborts the brief.
				o.logger.Warn("candidate analysis failed, skipping",
					"brief_id", briefID,
					"candidate", candidate,
					"error", err)
				return nil
			}

			review := &store.RepoReview{BriefID: briefID, URL: analysis.URL, Notes: analysis.Summary}
			if err := o.store.AddRepoReview(gctx, review, analysis.Findings); err != nil {
				o.logger.Warn("failed to persist review", "brief_id", briefID, "url", analysis.URL, "error", err)
				return nil
			}

			mu.Lock()
			analyses[i] = analysis
			mu.Unlock()
			o.notify(notify, fmt.Sprintf("analyzed %s", analysis.URL))
			return nil
		})
	}
	_ = g.Wait()

	completed := make([]*RepoAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if a != nil {
			completed = append(completed, a)
		}
	}
	if len(completed) == 0 {
		_ = o.store.UpdateBrief(ctx, briefID, store.BriefError, "all candidate analyses failed")
		return nil, fault.New(fault.KindUpstream, "all %d candidate analyses failed", len(candidates))
	}

	o.notify(notify, "synthesizing findings")
	synthesis, err := o.synthesize(ctx, req.Topic, completed)
	if err != nil {
		_ = o.store.UpdateBrief(ctx, briefID, store.BriefError, "")
		return nil, fmt.Errorf("synthesize brief: %w", err)
	}

	if err := o.store.UpdateBrief(ctx, briefID, store.BriefComplete, synthesis.OverallSummary); err != nil {
		return nil, fmt.Errorf("complete brief: %w", err)
	}

	o.store.PutKV(ctx, "brief:"+briefID+":candidates", fmt.Sprintf("%d/%d", len(completed), len(candidates)))
	if doc, merr := json.Marshal(synthesis); merr == nil {
		o.putBlob("briefs/"+briefID+".json", doc)
	}

	o.logger.Info("research brief completed", "brief_id", briefID, "analyzed", len(completed), "candidates", len(candidates))

	return &BriefResult{BriefID: briefID, Synthesis: synthesis, Analyses: completed}, nil
}

// BriefSynthesis reloads the full synthesis document archived for a
// brief. The relational row only keeps the summary line; the
// recommendations live in the blob copy.
func (o *Orchestrator) BriefSynthesis(briefID string) (*Synthesis, bool) {
	if o.blobs == nil {
		return nil, false
	}
	data, ok := o.blobs.Get("briefs/" + briefID + ".json")
	if !ok {
		return nil, false
	}

	var synthesis Synthesis
	if err := json.Unmarshal(data, &synthesis); err != nil {
		o.logger.Warn("archived synthesis not parseable", "brief_id", briefID, "error", err)
		return nil, false
	}
	return &synthesis, true
}

// collectCandidates merges explicit seeds with a keyword search, dropping
// duplicates and capping at MaxCandidates. Search failure is tolerated
// when seeds exist.
func (o *Orchestrator) collectCandidates(ctx context.Context, req BriefRequest) []string {
	seen := make(map[string]bool)
	var candidates []string

	add := func(url string) {
		key := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(url), ".git"))
		if key == "" || seen[key] || len(candidates) >= o.cfg.MaxCandidates {
			return
		}
		seen[key] = true
		candidates = append(candidates, strings.TrimSpace(url))
	}

	for _, seed := range req.Seeds {
		add(seed)
	}

	if len(candidates) < o.cfg.MaxCandidates {
		repos, err := o.host.SearchRepos(ctx, req.Topic, o.cfg.MaxCandidates)
		if err != nil {
			o.logger.Warn("candidate search failed", "topic", req.Topic, "error", err)
		}
		for _, repo := range repos {
			add(repo.URL)
		}
	}

	return candidates
}

// analyzeCandidate fetches metadata and the readme, then asks the
// completion service for a structured assessment. An unparseable model
// response degrades to a summary-only analysis.
func (o *Orchestrator) analyzeCandidate(ctx context.Context, topic, candidate string) (*RepoAnalysis, error) {
	owner, name, err := hosting.ParseRepoURL(candidate)
	if err != nil {
		return nil, err
	}

	repo, err := o.host.GetRepo(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate metadata: %w", err)
	}

	readme, err := o.host.GetTextFile(ctx, owner, name, "README.md")
	if err != nil {
		if !fault.Is(err, fault.KindNotFound) {
			o.logger.Debug("readme unavailable", "candidate", repo.FullName, "error", err)
		}
		readme = ""
	}

	var raw string
	err = o.callUpstream(ctx, func() error {
		var cerr error
		raw, cerr = o.llm.Complete(ctx, analysisPrompt(topic, repo, readme), completion.Options{
			System: analysisSystemPrompt,
			JSON:   true,
		})
		return cerr
	})
	if err != nil {
		return nil, fmt.Errorf("analysis completion: %w", err)
	}

	var analysis RepoAnalysis
	if uerr := json.Unmarshal([]byte(stripFences(raw)), &analysis); uerr != nil {
		o.logger.Warn("analysis response not parseable, degrading", "candidate", repo.FullName, "error", uerr)
		analysis = RepoAnalysis{Summary: strings.TrimSpace(raw)}
	}
	analysis.URL = repo.URL
	if analysis.FitScore < 0 {
		analysis.FitScore = 0
	}
	if analysis.FitScore > 1 {
		analysis.FitScore = 1
	}
	return &analysis, nil
}

// synthesize asks for the executive summary over all analyses.
func (o *Orchestrator) synthesize(ctx context.Context, topic string, analyses []*RepoAnalysis) (*Synthesis, error) {
	var raw string
	err := o.callUpstream(ctx, func() error {
		var cerr error
		raw, cerr = o.llm.Complete(ctx, synthesisPrompt(topic, analyses), completion.Options{
			System: synthesisSystemPrompt,
			JSON:   true,
		})
		return cerr
	})
	if err != nil {
		return nil, err
	}

	var synthesis Synthesis
	if uerr := json.Unmarshal([]byte(stripFences(raw)), &synthesis); uerr != nil {
		o.logger.Warn("synthesis response not parseable, degrading", "error", uerr)
		synthesis = Synthesis{OverallSummary: strings.TrimSpace(raw)}
	}
	return &synthesis, nil
}

package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/hosting"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
)

const analysisJSON = `{
	"summary": "solid CSV parser",
	"notableCapabilities": ["streaming", "type inference"],
	"fitScore": 0.8,
	"findings": ["actively maintained", "no cgo"]
}`

const synthesisJSON = `{
	"overallSummary": "two good options exist",
	"recommendations": ["use a/one", "watch b/two"]
}`

func researchFixture(t *testing.T) (*Orchestrator, *store.Store, *fakeHost, *scriptedLLM) {
	t.Helper()
	host := newFakeHost()
	host.addRepo("a", "one", "csv parser")
	host.addRepo("b", "two", "csv toolkit")
	host.readmes["a/one"] = "# one\nparses csv"

	llm := newScriptedLLM()
	llm.responses["candidate for a research brief"] = analysisJSON
	llm.responses["executive synthesis"] = synthesisJSON

	o, st := newTestOrchestrator(t, host, llm)
	return o, st, host, llm
}

func TestResearchBriefHappyPath(t *testing.T) {
	o, st, _, _ := researchFixture(t)

	result, err := o.ResearchBrief(context.Background(), BriefRequest{
		Topic: "csv parsing libraries",
		Seeds: []string{"https://host/a/one", "https://host/b/two"},
	}, nil)
	if err != nil {
		t.Fatalf("ResearchBrief: %v", err)
	}

	if result.Synthesis.OverallSummary != "two good options exist" {
		t.Errorf("unexpected synthesis: %+v", result.Synthesis)
	}
	if len(result.Analyses) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(result.Analyses))
	}

	brief, err := st.GetBrief(context.Background(), result.BriefID)
	if err != nil {
		t.Fatal(err)
	}
	if brief.Status != store.BriefComplete {
		t.Errorf("expected complete brief, got %q", brief.Status)
	}
	if brief.Summary != "two good options exist" {
		t.Errorf("summary not persisted: %q", brief.Summary)
	}

	reviews, _ := st.ListRepoReviews(context.Background(), result.BriefID)
	if len(reviews) != 2 {
		t.Errorf("expected 2 persisted reviews, got %d", len(reviews))
	}
	findings, _ := st.ListFindings(context.Background(), result.BriefID)
	if len(findings) != 4 {
		t.Errorf("expected 4 findings, got %d", len(findings))
	}
}

func TestResearchBriefArchivesFullSynthesis(t *testing.T) {
	o, _, host, _ := researchFixture(t)

	result, err := o.ResearchBrief(context.Background(), BriefRequest{
		Topic: "csv parsing libraries",
		Seeds: []string{"https://host/a/one", "https://host/b/two"},
	}, nil)
	if err != nil {
		t.Fatalf("ResearchBrief: %v", err)
	}

	// The relational row keeps only the summary line; the archived
	// document carries the recommendations too.
	synthesis, ok := o.BriefSynthesis(result.BriefID)
	if !ok {
		t.Fatal("expected an archived synthesis document")
	}
	if len(synthesis.Recommendations) != 2 {
		t.Errorf("recommendations = %v", synthesis.Recommendations)
	}

	if _, ok := o.BriefSynthesis("no-such-brief"); ok {
		t.Error("expected no document for an unknown brief")
	}

	// Candidate analysis reads the readme and nothing else.
	for _, path := range host.filePaths {
		if path != "README.md" {
			t.Errorf("unexpected file request %q", path)
		}
	}
	if len(host.filePaths) != 2 {
		t.Errorf("expected 2 file requests, got %d", len(host.filePaths))
	}
}

func TestResearchBriefSkipsFailedCandidate(t *testing.T) {
	o, st, host, _ := researchFixture(t)
	host.failGet["b/two"] = errors.New("hosting API melted")

	result, err := o.ResearchBrief(context.Background(), BriefRequest{
		Topic: "csv parsing libraries",
		Seeds: []string{"https://host/a/one", "https://host/b/two"},
	}, nil)
	if err != nil {
		t.Fatalf("one bad candidate must not abort the brief: %v", err)
	}

	if len(result.Analyses) != 1 {
		t.Fatalf("expected 1 surviving analysis, got %d", len(result.Analyses))
	}

	brief, _ := st.GetBrief(context.Background(), result.BriefID)
	if brief.Status != store.BriefComplete {
		t.Errorf("brief should still complete, got %q", brief.Status)
	}
	reviews, _ := st.ListRepoReviews(context.Background(), result.BriefID)
	if len(reviews) != 1 {
		t.Errorf("expected 1 persisted review, got %d", len(reviews))
	}
}

func TestResearchBriefDeduplicatesAndCaps(t *testing.T) {
	o, _, host, _ := researchFixture(t)
	host.searchResults = []*hosting.Repo{
		host.repos["a/one"],
		host.repos["b/two"],
	}

	// Seeds repeat a search hit; cap is 3 from the test config.
	candidates := o.collectCandidates(context.Background(), BriefRequest{
		Topic: "csv",
		Seeds: []string{"https://host/a/one", "https://host/a/one.git"},
	})
	if len(candidates) != 2 {
		t.Fatalf("expected deduplicated candidates, got %v", candidates)
	}
}

func TestResearchBriefValidation(t *testing.T) {
	o, _, _, _ := researchFixture(t)
	_, err := o.ResearchBrief(context.Background(), BriefRequest{}, nil)
	if fault.KindOf(err) != fault.KindValidation {
		t.Errorf("expected validation fault, got %v", err)
	}
}

func TestResearchBriefAllCandidatesFail(t *testing.T) {
	o, st, host, _ := researchFixture(t)
	host.failGet["a/one"] = errors.New("down")
	host.failGet["b/two"] = errors.New("down")

	_, err := o.ResearchBrief(context.Background(), BriefRequest{
		Topic: "csv parsing libraries",
		Seeds: []string{"https://host/a/one", "https://host/b/two"},
	}, nil)
	if err == nil {
		t.Fatal("expected failure when every candidate fails")
	}

	// The brief row survives in an inspectable error state.
	briefs, err := st.ListBriefs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(briefs) != 1 {
		t.Fatalf("expected 1 brief row, got %d", len(briefs))
	}
	if briefs[0].Status != store.BriefError {
		t.Errorf("expected error status, got %q", briefs[0].Status)
	}
}

func TestConsultLifecycle(t *testing.T) {
	host := newFakeHost()
	llm := newScriptedLLM()
	llm.responses["debugging consultant"] = "nil map write in the cache layer"

	o, st := newTestOrchestrator(t, host, llm)

	result, err := o.Consult(context.Background(), "why does it crash", "panic: assignment to entry in nil map", nil)
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if result.Status != store.ConsultFixed {
		t.Errorf("expected fixed, got %q", result.Status)
	}

	c, err := st.GetConsultation(context.Background(), result.ConsultationID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Response != "nil map write in the cache layer" {
		t.Errorf("response not persisted: %q", c.Response)
	}
}

func TestConsultUnresolvedOnFailure(t *testing.T) {
	host := newFakeHost()
	llm := newScriptedLLM()
	llm.errors["debugging consultant"] = errors.New("model down")

	o, st := newTestOrchestrator(t, host, llm)

	_, err := o.Consult(context.Background(), "why does it crash", "", nil)
	if err == nil {
		t.Fatal("expected failure")
	}

	// The record is parked at unresolved, not deleted.
	consultations, err := st.ListConsultations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(consultations) != 1 {
		t.Fatalf("expected 1 consultation row, got %d", len(consultations))
	}
	if consultations[0].Status != store.ConsultUnresolved {
		t.Errorf("expected unresolved, got %q", consultations[0].Status)
	}
}

// Package ensemble implements the fan-out-and-judge pattern: generate N
// candidate drafts concurrently, then have the model pick the best one.
package ensemble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmbish04/lightbulb-aquarium/internal/completion"
	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/observability"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
)

const draftSystemPrompt = `You are a skilled technical writer. Write one complete draft for the given
topic. Return only the draft text.`

const judgeSystemPrompt = `You are judging candidate drafts. Return the single best candidate verbatim,
with no commentary and no candidate numbering.`

// Generator runs the pattern. Candidate requests share one prompt
// template; the judge pass is itself a model call with no deterministic
// tie-break, and that non-determinism is accepted.
type Generator struct {
	logger *slog.Logger
	llm    completion.Client
	store  *store.Store
}

// New wires a generator.
func New(llm completion.Client, st *store.Store, logger *slog.Logger) *Generator {
	return &Generator{logger: logger, llm: llm, store: st}
}

// BestOf requests n drafts concurrently, asks the model to select the
// best, persists the selection keyed by topic and returns it. A failure
// of any single candidate fails the whole call: this step has no
// partial-success mode.
func (g *Generator) BestOf(ctx context.Context, topic string, n int) (string, error) {
	started := time.Now()

	text, err := g.bestOf(ctx, topic, n)
	observability.RecordWorkflow("best_of", err == nil, time.Since(started))
	return text, err
}

func (g *Generator) bestOf(ctx context.Context, topic string, n int) (string, error) {
	if topic == "" {
		return "", fault.New(fault.KindValidation, "topic is required")
	}
	if n < 1 {
		return "", fault.New(fault.KindValidation, "candidate count must be at least 1, got %d", n)
	}

	g.logger.Info("fan-out started", "topic", topic, "candidates", n)

	candidates := make([]string, n)
	eg, gctx := errgroup.WithContext(ctx)
	for i := range n {
		eg.Go(func() error {
			draft, err := g.llm.Complete(gctx, draftPrompt(topic), completion.Options{
				System:      draftSystemPrompt,
				Temperature: ptr(float32(0.9)),
			})
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i+1, err)
			}
			candidates[i] = draft
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", fault.Wrap(fault.KindUpstream, err, "fan-out for topic %q failed", topic)
	}

	selected, err := g.llm.Complete(ctx, judgePrompt(topic, candidates), completion.Options{
		System: judgeSystemPrompt,
	})
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, err, "judge pass for topic %q failed", topic)
	}
	selected = strings.TrimSpace(selected)

	if _, err := g.store.SaveArtifact(ctx, topic, selected); err != nil {
		return "", fmt.Errorf("persist selected draft: %w", err)
	}

	g.logger.Info("fan-out completed", "topic", topic, "selected_length", len(selected))
	return selected, nil
}

func draftPrompt(topic string) string {
	return fmt.Sprintf("Write a draft about: %s", topic)
}

func judgePrompt(topic string, candidates []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n\nCandidates:\n", topic)
	for i, c := range candidates {
		fmt.Fprintf(&b, "--- candidate %d ---\n%s\n", i+1, c)
	}
	b.WriteString("--- end of candidates ---\n\nReturn the best candidate verbatim.")
	return b.String()
}

func ptr[T any](v T) *T {
	return &v
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmbish04/lightbulb-aquarium/internal/completion"
	"github.com/jmbish04/lightbulb-aquarium/internal/ensemble"
	"github.com/jmbish04/lightbulb-aquarium/internal/hosting"
	"github.com/jmbish04/lightbulb-aquarium/internal/retry"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
	"github.com/jmbish04/lightbulb-aquarium/internal/workflow"
	"github.com/spf13/viper"
)

// collaborators bundles the shared backends the commands wire together.
type collaborators struct {
	store *store.Store
	blobs *store.BlobStore
	orch  *workflow.Orchestrator
	gen   *ensemble.Generator
}

func (c *collaborators) Close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

// buildCollaborators opens the stores and constructs the orchestrator
// and generator from viper-bound configuration.
func buildCollaborators(ctx context.Context, logger *slog.Logger) (*collaborators, error) {
	st, err := store.Open(viper.GetString("db-path"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	blobs, err := store.NewBlobStore(viper.GetString("blob-dir"), logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	host, err := hosting.NewGitHubHost(
		viper.GetString("github-token"),
		rate.NewLimiter(rate.Limit(viper.GetFloat64("github-rate")), 1),
		logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to create hosting client: %w", err)
	}

	llm, err := completion.NewGeminiClient(ctx,
		viper.GetString("gemini-api-key"),
		viper.GetString("gemini-model"),
		rate.NewLimiter(rate.Limit(viper.GetFloat64("gemini-rate")), 1),
		logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	cfg := workflow.DefaultConfig()
	if v := viper.GetDuration("fork-poll-interval"); v > 0 {
		cfg.PollInterval = v
	}
	if v := viper.GetDuration("fork-poll-deadline"); v > 0 {
		cfg.PollDeadline = v
	}
	if v := viper.GetInt("max-candidates"); v > 0 {
		cfg.MaxCandidates = v
	}
	if v := viper.GetInt("retry-attempts"); v > 0 {
		cfg.RetryAttempts = v
	}
	cfg.Backoff = retry.DefaultBackoff

	return &collaborators{
		store: st,
		blobs: blobs,
		orch:  workflow.New(host, llm, st, blobs, cfg, logger),
		gen:   ensemble.New(llm, st, logger),
	}, nil
}

func init() {
	viper.SetDefault("db-path", "lba.db")
	viper.SetDefault("blob-dir", "lba-blobs")
	viper.SetDefault("gemini-model", "")
	viper.SetDefault("github-rate", 5.0)
	viper.SetDefault("gemini-rate", 2.0)
	viper.SetDefault("fork-poll-interval", 2*time.Second)
	viper.SetDefault("fork-poll-deadline", 30*time.Second)
}

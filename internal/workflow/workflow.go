// Package workflow holds the orchestrators behind the specialist tools:
// fork/plan, research briefs and consultations. Each orchestrator
// sequences calls against the hosting API, the completion service and
// the stores, retrying upstream hiccups and parking failed runs in an
// inspectable state.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmbish04/lightbulb-aquarium/internal/completion"
	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/hosting"
	"github.com/jmbish04/lightbulb-aquarium/internal/retry"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
)

// Notify receives informational progress messages. May be nil.
type Notify func(message string)

// Config tunes the orchestrators.
type Config struct {
	// PollInterval is the delay between fork availability probes.
	PollInterval time.Duration
	// PollDeadline bounds the availability poll. Expiry is non-fatal:
	// the fork request itself already succeeded.
	PollDeadline time.Duration
	// MaxCandidates caps the research-brief candidate list.
	MaxCandidates int
	// RetryAttempts bounds retries of upstream calls.
	RetryAttempts int
	// Backoff is the retry schedule for upstream calls.
	Backoff retry.Backoff
}

// DefaultConfig matches the documented workflow timings.
func DefaultConfig() Config {
	return Config{
		PollInterval:  2 * time.Second,
		PollDeadline:  30 * time.Second,
		MaxCandidates: 5,
		RetryAttempts: 3,
		Backoff:       retry.DefaultBackoff,
	}
}

// Orchestrator drives the multi-step workflows. One instance serves all
// workflows; each run is driven by exactly one in-flight call, so runs
// never contend for the same record.
type Orchestrator struct {
	logger *slog.Logger
	host   hosting.Host
	llm    completion.Client
	store  *store.Store
	blobs  *store.BlobStore
	cfg    Config
}

// New wires an orchestrator. blobs may be nil; blob writes are
// best-effort anyway.
func New(host hosting.Host, llm completion.Client, st *store.Store, blobs *store.BlobStore, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollDeadline <= 0 {
		cfg.PollDeadline = 30 * time.Second
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 5
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}

	return &Orchestrator{
		logger: logger,
		host:   host,
		llm:    llm,
		store:  st,
		blobs:  blobs,
		cfg:    cfg,
	}
}

// Store exposes the backing store for read-only tool lookups.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

func (o *Orchestrator) notify(n Notify, message string) {
	if n != nil {
		n(message)
	}
}

// callUpstream retries fn with bounded attempts and backoff. Validation,
// not-found and conflict faults are permanent and returned immediately.
func (o *Orchestrator) callUpstream(ctx context.Context, fn func() error) error {
	var permanent error
	err := retry.Do(ctx, o.cfg.RetryAttempts, o.cfg.Backoff, func() error {
		err := fn()
		if err == nil {
			return nil
		}
		switch fault.KindOf(err) {
		case fault.KindValidation, fault.KindNotFound, fault.KindConflict, fault.KindConfiguration:
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		return permanent
	}
	if err != nil {
		return fault.Wrap(fault.KindUpstream, err, "upstream call exhausted %d attempts", o.cfg.RetryAttempts)
	}
	return nil
}

func (o *Orchestrator) putBlob(name string, data []byte) {
	if o.blobs != nil {
		o.blobs.Put(name, data)
	}
}

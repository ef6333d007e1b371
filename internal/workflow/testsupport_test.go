package workflow

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmbish04/lightbulb-aquarium/internal/completion"
	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/hosting"
	"github.com/jmbish04/lightbulb-aquarium/internal/retry"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
)

// fakeHost is an in-memory hosting.Host. Repos are keyed owner/name.
type fakeHost struct {
	mu            sync.Mutex
	repos         map[string]*hosting.Repo
	readmes       map[string]string
	searchResults []*hosting.Repo
	forkOwner     string
	// forkVisibleAfter delays fork readability to exercise the poll.
	forkVisibleAfter time.Time
	getCalls         int
	failGet          map[string]error
	filePaths        []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		repos:     make(map[string]*hosting.Repo),
		readmes:   make(map[string]string),
		forkOwner: "forkbot",
		failGet:   make(map[string]error),
	}
}

func (f *fakeHost) addRepo(owner, name, description string) *hosting.Repo {
	repo := &hosting.Repo{
		Owner:       owner,
		Name:        name,
		FullName:    owner + "/" + name,
		URL:         "https://host/" + owner + "/" + name,
		Description: description,
	}
	f.repos[owner+"/"+name] = repo
	return repo
}

func (f *fakeHost) GetRepo(ctx context.Context, owner, name string) (*hosting.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++

	key := owner + "/" + name
	if err, ok := f.failGet[key]; ok {
		return nil, err
	}
	repo, ok := f.repos[key]
	if !ok {
		return nil, fault.New(fault.KindNotFound, "repo %s not found", key)
	}
	if owner == f.forkOwner && time.Now().Before(f.forkVisibleAfter) {
		return nil, fault.New(fault.KindNotFound, "fork %s not ready", key)
	}
	return repo, nil
}

func (f *fakeHost) ForkRepo(ctx context.Context, owner, name, newName string) (*hosting.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fork := &hosting.Repo{
		Owner:    f.forkOwner,
		Name:     newName,
		FullName: f.forkOwner + "/" + newName,
		URL:      "https://host/" + f.forkOwner + "/" + newName,
	}
	f.repos[fork.FullName] = fork
	return fork, nil
}

func (f *fakeHost) SearchRepos(ctx context.Context, query string, limit int) ([]*hosting.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.searchResults) > limit {
		return f.searchResults[:limit], nil
	}
	return f.searchResults, nil
}

func (f *fakeHost) GetTextFile(ctx context.Context, owner, name, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filePaths = append(f.filePaths, path)
	if path == "README.md" {
		if readme, ok := f.readmes[owner+"/"+name]; ok {
			return readme, nil
		}
	}
	return "", fault.New(fault.KindNotFound, "no %s in %s/%s", path, owner, name)
}

// scriptedLLM answers by matching a substring of the system prompt.
type scriptedLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func newScriptedLLM() *scriptedLLM {
	return &scriptedLLM{
		responses: make(map[string]string),
		errors:    make(map[string]error),
	}
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string, opts completion.Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, prompt)

	for key, err := range s.errors {
		if strings.Contains(opts.System, key) || strings.Contains(prompt, key) {
			return "", err
		}
	}
	for key, response := range s.responses {
		if strings.Contains(opts.System, key) || strings.Contains(prompt, key) {
			return response, nil
		}
	}
	return "unscripted response", nil
}

func newTestOrchestrator(t *testing.T, host hosting.Host, llm completion.Client) (*Orchestrator, *store.Store) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	st, err := store.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := store.NewBlobStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}

	cfg := Config{
		PollInterval:  time.Millisecond,
		PollDeadline:  20 * time.Millisecond,
		MaxCandidates: 3,
		RetryAttempts: 2,
		Backoff:       retry.Backoff{InitialDelay: time.Millisecond},
	}
	return New(host, llm, st, blobs, cfg, logger), st
}

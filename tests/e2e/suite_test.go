package e2e_test

import (
	"context"
	"log/slog"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmbish04/lightbulb-aquarium/internal/completion"
	"github.com/jmbish04/lightbulb-aquarium/internal/ensemble"
	"github.com/jmbish04/lightbulb-aquarium/internal/gateway"
	"github.com/jmbish04/lightbulb-aquarium/internal/hosting"
	"github.com/jmbish04/lightbulb-aquarium/internal/retry"
	"github.com/jmbish04/lightbulb-aquarium/internal/sessionmux"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialists"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
	"github.com/jmbish04/lightbulb-aquarium/internal/workflow"
)

func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dispatch Integration Suite")
}

// fakeHost serves repository metadata from memory. Forks land under the
// forkbot owner and are immediately readable.
type fakeHost struct{}

func (fakeHost) GetRepo(ctx context.Context, owner, name string) (*hosting.Repo, error) {
	return &hosting.Repo{
		Owner:       owner,
		Name:        name,
		FullName:    owner + "/" + name,
		URL:         "https://github.com/" + owner + "/" + name,
		Description: "a test repository",
	}, nil
}

func (fakeHost) ForkRepo(ctx context.Context, owner, name, newName string) (*hosting.Repo, error) {
	forked := name
	if newName != "" {
		forked = newName
	}
	return &hosting.Repo{
		Owner:    "forkbot",
		Name:     forked,
		FullName: "forkbot/" + forked,
		URL:      "https://github.com/forkbot/" + forked,
	}, nil
}

func (fakeHost) SearchRepos(ctx context.Context, query string, limit int) ([]*hosting.Repo, error) {
	return []*hosting.Repo{{
		Owner:    "acme",
		Name:     "themes",
		FullName: "acme/themes",
		URL:      "https://github.com/acme/themes",
	}}, nil
}

func (fakeHost) GetTextFile(ctx context.Context, owner, name, path string) (string, error) {
	return "# " + name + "\n\nDoes useful things.", nil
}

// fakeLLM returns a canned JSON document that satisfies the plan,
// analysis and synthesis schemas at once, and reads as prose elsewhere.
type fakeLLM struct{}

func (fakeLLM) Complete(ctx context.Context, prompt string, opts completion.Options) (string, error) {
	if opts.JSON {
		return `{"summary":"canned summary","milestones":[{"title":"step","tasks":["do"],"effortDays":1}],` +
			`"notableCapabilities":["fast"],"fitScore":0.7,"findings":["works"],` +
			`"overallSummary":"canned synthesis","recommendations":["ship it"]}`, nil
	}
	return "canned prose answer", nil
}

var (
	suiteCtx    context.Context
	suiteCancel context.CancelFunc
	logger      *slog.Logger

	st       *store.Store
	registry *specialist.Registry

	gatewayAddr string
	sessionSrv  *httptest.Server
)

var _ = BeforeSuite(func() {
	suiteCtx, suiteCancel = context.WithCancel(context.Background())
	logger = slog.New(slog.DiscardHandler)

	var err error
	st, err = store.Open(":memory:", logger)
	Expect(err).NotTo(HaveOccurred())

	cfg := workflow.Config{
		PollInterval:  time.Millisecond,
		PollDeadline:  10 * time.Millisecond,
		MaxCandidates: 3,
		RetryAttempts: 2,
		Backoff:       retry.DefaultBackoff,
	}
	orch := workflow.New(fakeHost{}, fakeLLM{}, st, nil, cfg, logger)
	gen := ensemble.New(fakeLLM{}, st, logger)

	registry = specialist.NewRegistry(logger)
	specialists.RegisterAll(registry, orch, gen)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	gatewayAddr = ln.Addr().String()

	gw := gateway.New(registry, logger)
	go func() {
		_ = gw.Serve(suiteCtx, ln)
	}()

	sessionSrv = httptest.NewServer(sessionmux.NewServer(registry, nil, logger).Router())
})

var _ = AfterSuite(func() {
	if sessionSrv != nil {
		sessionSrv.Close()
	}
	suiteCancel()
	if st != nil {
		Expect(st.Close()).To(Succeed())
	}
})

package hosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v58/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
)

// GitHubHost implements Host against the GitHub REST API. Calls pass
// through an injected token bucket so orchestrators share one rate
// budget and tests can supply an unlimited one.
type GitHubHost struct {
	logger  *slog.Logger
	client  *github.Client
	limiter *rate.Limiter
}

// NewGitHubHost builds a Host from a personal access token.
func NewGitHubHost(token string, limiter *rate.Limiter, logger *slog.Logger) (*GitHubHost, error) {
	if token == "" {
		return nil, fmt.Errorf("github token must be set")
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	return &GitHubHost{
		logger:  logger,
		client:  github.NewClient(tc),
		limiter: limiter,
	}, nil
}

func (g *GitHubHost) GetRepo(ctx context.Context, owner, name string) (*Repo, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	repo, _, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, g.mapError(err, "get repo %s/%s", owner, name)
	}
	return fromGitHub(repo), nil
}

func (g *GitHubHost) ForkRepo(ctx context.Context, owner, name, newName string) (*Repo, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &github.RepositoryCreateForkOptions{}
	if newName != "" {
		opts.Name = newName
	}

	repo, _, err := g.client.Repositories.CreateFork(ctx, owner, name, opts)
	if err != nil {
		// Forking is asynchronous; the API acknowledges with 202 and the
		// client surfaces that as AcceptedError with the metadata intact.
		var accepted *github.AcceptedError
		if !errors.As(err, &accepted) {
			return nil, g.mapError(err, "fork repo %s/%s", owner, name)
		}
	}
	if repo == nil {
		return nil, fault.New(fault.KindUpstream, "fork of %s/%s returned no metadata", owner, name)
	}

	g.logger.Info("fork requested", "source", owner+"/"+name, "fork", repo.GetFullName())
	return fromGitHub(repo), nil
}

func (g *GitHubHost) SearchRepos(ctx context.Context, query string, limit int) ([]*Repo, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	result, _, err := g.client.Search.Repositories(ctx, query, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, g.mapError(err, "search repos %q", query)
	}

	repos := make([]*Repo, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, fromGitHub(r))
		if len(repos) == limit {
			break
		}
	}
	return repos, nil
}

func (g *GitHubHost) GetTextFile(ctx context.Context, owner, name, path string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	file, _, _, err := g.client.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		return "", g.mapError(err, "get %s from %s/%s", path, owner, name)
	}
	if file == nil {
		return "", fault.New(fault.KindNotFound, "%s in %s/%s is not a file", path, owner, name)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, err, "decode %s from %s/%s", path, owner, name)
	}
	return content, nil
}

// mapError tags GitHub API failures: 404s become not-found faults,
// everything else is upstream.
func (g *GitHubHost) mapError(err error, format string, args ...any) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fault.Wrap(fault.KindNotFound, err, format, args...)
	}
	return fault.Wrap(fault.KindUpstream, err, format, args...)
}

func fromGitHub(r *github.Repository) *Repo {
	return &Repo{
		Owner:       r.GetOwner().GetLogin(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		URL:         r.GetHTMLURL(),
		Description: r.GetDescription(),
		Stars:       r.GetStargazersCount(),
	}
}

// Package hosting wraps the source-code hosting API consumed by the
// workflow orchestrators. The orchestrators only see the Host interface;
// the GitHub implementation lives in github.go.
package hosting

import (
	"context"
	"net/url"
	"strings"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
)

// Repo is the subset of repository metadata the orchestrators consume.
type Repo struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
}

// Host is the hosting-API collaborator.
type Host interface {
	// GetRepo fetches repository metadata, failing with a not-found
	// fault when the repo does not exist or the credential lacks access.
	GetRepo(ctx context.Context, owner, name string) (*Repo, error)

	// ForkRepo requests an asynchronous copy of the repository. The
	// returned metadata identifies the new location; the copy itself may
	// not be readable yet.
	ForkRepo(ctx context.Context, owner, name, newName string) (*Repo, error)

	// SearchRepos returns up to limit repositories matching the query.
	SearchRepos(ctx context.Context, query string, limit int) ([]*Repo, error)

	// GetTextFile returns the decoded contents of one file in the
	// repository, or a not-found fault when the path does not exist.
	GetTextFile(ctx context.Context, owner, name, path string) (string, error)
}

// ParseRepoURL extracts the owner/name pair from a repository URL.
// Accepted shapes: https://<host>/<owner>/<name>[.git],
// git@<host>:<owner>/<name>[.git], and a bare "owner/name".
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(repoURL), ".git")
	if trimmed == "" {
		return "", "", fault.New(fault.KindValidation, "repository URL is empty")
	}

	if strings.Contains(trimmed, "://") {
		u, perr := url.Parse(trimmed)
		if perr != nil {
			return "", "", fault.Wrap(fault.KindValidation, perr, "invalid repository URL %q", repoURL)
		}
		parts := splitRepoPath(u.Path)
		if len(parts) != 2 {
			return "", "", fault.New(fault.KindValidation, "repository URL %q must end in owner/name", repoURL)
		}
		return parts[0], parts[1], nil
	}

	// git@host:owner/name
	if at := strings.Index(trimmed, ":"); at > 0 && strings.Contains(trimmed[:at], "@") {
		parts := splitRepoPath(trimmed[at+1:])
		if len(parts) != 2 {
			return "", "", fault.New(fault.KindValidation, "repository URL %q must end in owner/name", repoURL)
		}
		return parts[0], parts[1], nil
	}

	parts := splitRepoPath(trimmed)
	if len(parts) != 2 {
		return "", "", fault.New(fault.KindValidation, "repository reference %q must be owner/name", repoURL)
	}
	return parts[0], parts[1], nil
}

func splitRepoPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

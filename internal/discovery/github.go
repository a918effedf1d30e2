package discovery

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHub lists repositories of an organisation, or of the authenticated
// user when no namespace is set. The repository full name ("owner/repo")
// is used as the namespace path.
type GitHub struct {
	client *github.Client
	org    string
}

// NewGitHub creates a GitHub source. A non-empty opts.URL selects a GitHub
// Enterprise server.
func NewGitHub(ctx context.Context, opts Options) (*GitHub, error) {
	if !opts.Token.IsSet() && opts.Namespace == "" {
		return nil, fmt.Errorf("%w: listing the authenticated user's repositories", ErrNoToken)
	}

	var hc *http.Client
	if opts.Token.IsSet() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token.Value()})
		hc = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(hc)
	if opts.URL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(opts.URL, opts.URL)
		if err != nil {
			return nil, fmt.Errorf("discovery: github url: %w", err)
		}
	}

	return newGitHub(client, opts.Namespace), nil
}

func newGitHub(client *github.Client, org string) *GitHub {
	return &GitHub{client: client, org: org}
}

// Projects pages through every repository.
func (g *GitHub) Projects(ctx context.Context) ([]Project, error) {
	list := g.listUser
	if g.org != "" {
		list = g.listOrg
	}

	var projects []Project
	page := 1
	for {
		repos, resp, err := list(ctx, github.ListOptions{PerPage: pageSize, Page: page})
		if err != nil {
			return nil, fmt.Errorf("discovery: listing github repositories (page %d): %w", page, err)
		}
		for _, r := range repos {
			projects = append(projects, Project{
				PathWithNamespace: r.GetFullName(),
				HTTPURL:           r.GetCloneURL(),
				SSHURL:            r.GetSSHURL(),
				WebURL:            r.GetHTMLURL(),
			})
		}
		if resp.NextPage == 0 {
			return projects, nil
		}
		page = resp.NextPage
	}
}

func (g *GitHub) listOrg(ctx context.Context, lo github.ListOptions) ([]*github.Repository, *github.Response, error) {
	return g.client.Repositories.ListByOrg(ctx, g.org, &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: lo,
	})
}

func (g *GitHub) listUser(ctx context.Context, lo github.ListOptions) ([]*github.Repository, *github.Response, error) {
	return g.client.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
		ListOptions: lo,
	})
}

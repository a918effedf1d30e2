package discovery

import (
	"context"
	"fmt"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const pageSize = 100

// GitLab lists projects through the GitLab REST API.
type GitLab struct {
	client *gitlab.Client
}

// NewGitLab creates a GitLab source for the server at opts.URL.
func NewGitLab(opts Options) (*GitLab, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("discovery: gitlab url not set")
	}

	client, err := gitlab.NewClient(opts.Token.Value(),
		gitlab.WithBaseURL(opts.URL),
		gitlab.WithCustomRetryMax(0),
	)
	if err != nil {
		return nil, fmt.Errorf("discovery: creating gitlab client: %w", err)
	}
	return &GitLab{client: client}, nil
}

// Projects pages through every project visible to the token.
func (g *GitLab) Projects(ctx context.Context) ([]Project, error) {
	opt := &gitlab.ListProjectsOptions{
		ListOptions: gitlab.ListOptions{PerPage: pageSize, Page: 1},
	}

	var projects []Project
	for {
		page, resp, err := g.client.Projects.ListProjects(opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("discovery: listing gitlab projects (page %d): %w", opt.Page, err)
		}
		for _, p := range page {
			projects = append(projects, Project{
				PathWithNamespace: p.PathWithNamespace,
				HTTPURL:           p.HTTPURLToRepo,
				SSHURL:            p.SSHURLToRepo,
				WebURL:            p.WebURL,
			})
		}
		if resp.NextPage == 0 {
			return projects, nil
		}
		opt.Page = resp.NextPage
	}
}

// Package discovery lists the projects visible on a source-control server.
//
// A Source returns a flat list of projects identified by their full
// namespace path (e.g. "org/teamA/svc1"). Entries turns that list into
// tree entries carrying the clone URL for the selected method.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CommissaiR/gitlabber/internal/config"
	"github.com/CommissaiR/gitlabber/internal/tree"
)

// ErrNoToken is returned when a source needs a token and none is set.
var ErrNoToken = errors.New("discovery: token not set")

// Project is one repository as reported by the server.
type Project struct {
	PathWithNamespace string
	HTTPURL           string
	SSHURL            string
	WebURL            string
}

// Source lists every project visible to the caller.
type Source interface {
	Projects(ctx context.Context) ([]Project, error)
}

// Options configure a Source.
type Options struct {
	URL   string
	Token config.Secret

	// Namespace narrows the listing server-side where the provider can
	// (GitHub organisations). FilterNamespace is still applied afterwards.
	Namespace string
}

// New returns the Source for the named provider.
func New(ctx context.Context, provider string, opts Options) (Source, error) {
	switch provider {
	case config.ProviderGitLab:
		return NewGitLab(opts)
	case config.ProviderGitHub:
		return NewGitHub(ctx, opts)
	default:
		return nil, fmt.Errorf("discovery: unknown provider %q", provider)
	}
}

// FilterNamespace keeps the projects whose first path segment equals ns.
// An empty ns keeps everything.
func FilterNamespace(projects []Project, ns string) []Project {
	if ns == "" {
		return projects
	}
	kept := make([]Project, 0, len(projects))
	for _, p := range projects {
		first, _, _ := strings.Cut(p.PathWithNamespace, "/")
		if first == ns {
			kept = append(kept, p)
		}
	}
	return kept
}

// Entries maps projects to tree entries. The locator is the SSH URL for
// the ssh method and the HTTP URL otherwise.
func Entries(projects []Project, method string) []tree.Entry {
	entries := make([]tree.Entry, 0, len(projects))
	for _, p := range projects {
		locator := p.HTTPURL
		if method == config.MethodSSH {
			locator = p.SSHURL
		}
		entries = append(entries, tree.Entry{Path: p.PathWithNamespace, Locator: locator})
	}
	return entries
}

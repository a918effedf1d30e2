package gitsync

import (
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/CommissaiR/gitlabber/internal/config"
)

// Option configures a Worker.
type Option func(*Worker)

// Auth returns an option that sets the given authentication method.
func Auth(auth transport.AuthMethod) Option {
	return func(w *Worker) {
		w.auth = auth
	}
}

// Branch returns an option that pins the worker to the named branch. Without
// it the remote's default branch is cloned and the current branch pulled.
func Branch(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.branch = plumbing.NewBranchReferenceName(name)
		}
	}
}

// Progress returns an option that sets the progress output.
func Progress(progress io.Writer) Option {
	return func(w *Worker) {
		w.progress = progress
	}
}

// TokenAuth returns HTTP basic auth carrying token, or nil when the token
// is unset or the clone method is not http. SSH clones use the default
// agent-based authentication.
func TokenAuth(method string, token config.Secret) transport.AuthMethod {
	if method != config.MethodHTTP || !token.IsSet() {
		return nil
	}
	return &http.BasicAuth{
		Username: "oauth2",
		Password: token.Value(),
	}
}

// Package app wires discovery, the tree engine and the sync engine into a
// single gitlabber run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/CommissaiR/gitlabber/internal/config"
	"github.com/CommissaiR/gitlabber/internal/discovery"
	"github.com/CommissaiR/gitlabber/internal/gitsync"
	"github.com/CommissaiR/gitlabber/internal/logging"
	"github.com/CommissaiR/gitlabber/internal/tree"
)

// ErrEmptyTree is returned by Sync when filtering left nothing to mirror.
var ErrEmptyTree = errors.New("tree is empty after filtering")

// ErrNotLoaded is returned when the tree is used before Load.
var ErrNotLoaded = errors.New("tree not loaded")

// App orchestrates one run.
type App struct {
	cfg    *config.Config
	logger *logging.Logger
	source discovery.Source
	root   *tree.Node
	stats  tree.FilterStats
}

// Option configures an App.
type Option func(*App)

// WithSource replaces the discovery source built from the configuration.
func WithSource(src discovery.Source) Option {
	return func(a *App) {
		a.source = src
	}
}

// New creates an App. A nil logger discards output.
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) *App {
	if logger == nil {
		logger = logging.Nop()
	}
	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load builds the tree from the input file, or from the server when no
// file is configured, then applies the include/exclude filter.
func (a *App) Load(ctx context.Context) error {
	var (
		root *tree.Node
		err  error
	)
	if a.cfg.Source.InFile != "" {
		root, err = a.loadFile(ctx)
	} else {
		root, err = a.loadSource(ctx)
	}
	if err != nil {
		return err
	}

	a.logger.Debug(ctx, "fetched tree", zap.Int("projects", len(root.Leaves())))

	policy := tree.NewPolicy(a.cfg.Filter.Include, a.cfg.Filter.Exclude)
	a.stats = tree.NewFilter(policy, a.logger.Underlying()).Apply(root)
	a.root = root

	groups, projects := root.Counts()
	a.logger.Info(ctx, "tree loaded",
		zap.Int("groups", groups),
		zap.Int("projects", projects),
		zap.Int("removed", a.stats.Removed),
	)
	return nil
}

func (a *App) loadFile(ctx context.Context) (*tree.Node, error) {
	a.logger.Debug(ctx, "loading tree from file", zap.String("file", a.cfg.Source.InFile))

	f, err := os.Open(a.cfg.Source.InFile)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	root, err := tree.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", a.cfg.Source.InFile, err)
	}
	if root.Locator == "" {
		root.Locator = a.cfg.Source.URL
	}
	return root, nil
}

func (a *App) loadSource(ctx context.Context) (*tree.Node, error) {
	src := a.source
	if src == nil {
		var err error
		src, err = discovery.New(ctx, a.cfg.Source.Provider, discovery.Options{
			URL:       a.cfg.Source.URL,
			Token:     a.cfg.Source.Token,
			Namespace: a.cfg.Source.Namespace,
		})
		if err != nil {
			return nil, err
		}
	}

	a.logger.Info(ctx, "loading tree from server",
		zap.String("provider", a.cfg.Source.Provider),
		zap.String("url", a.cfg.Source.URL),
	)

	projects, err := src.Projects(ctx)
	if err != nil {
		return nil, err
	}
	projects = discovery.FilterNamespace(projects, a.cfg.Source.Namespace)
	for _, p := range projects {
		a.logger.Trace(ctx, "discovered project", zap.String("web_url", p.WebURL))
	}

	root := tree.NewRoot(a.cfg.Source.URL)
	b := tree.NewBuilder(root, a.logger.Underlying())
	if err := b.Build(discovery.Entries(projects, a.cfg.Sync.Method)); err != nil {
		return nil, err
	}
	return root, nil
}

// Root returns the filtered tree, or nil before Load.
func (a *App) Root() *tree.Node {
	return a.root
}

// FilterStats returns the statistics of the last filter pass.
func (a *App) FilterStats() tree.FilterStats {
	return a.stats
}

// Stats returns the number of groups and projects in the filtered tree.
func (a *App) Stats() (groups, projects int) {
	if a.root == nil {
		return 0, 0
	}
	return a.root.Counts()
}

// IsEmpty reports whether the filtered tree has no node below the root.
func (a *App) IsEmpty() bool {
	return a.root == nil || a.root.Height() < 1
}

// Print writes the filtered tree in the given format.
func (a *App) Print(w io.Writer, format string) error {
	if a.root == nil {
		return ErrNotLoaded
	}
	switch format {
	case config.FormatTree:
		return tree.Render(w, a.root)
	case config.FormatYAML:
		return tree.EncodeYAML(w, a.root)
	case config.FormatJSON:
		return tree.EncodeJSON(w, a.root)
	default:
		return fmt.Errorf("invalid print format %q", format)
	}
}

// Sync mirrors the filtered tree under dest.
func (a *App) Sync(ctx context.Context, dest string) (*gitsync.Result, error) {
	if a.root == nil {
		return nil, ErrNotLoaded
	}
	if a.IsEmpty() {
		return nil, ErrEmptyTree
	}

	groups, projects := a.Stats()
	a.logger.Debug(ctx, "going to clone/pull",
		zap.Int("groups", groups),
		zap.Int("projects", projects),
	)

	opts := gitsync.Options{
		Concurrency: a.cfg.Sync.Concurrency,
		Auth:        gitsync.TokenAuth(a.cfg.Sync.Method, a.cfg.Source.Token),
	}
	if a.logger.Enabled(logging.TraceLevel) {
		opts.Progress = os.Stderr
	}

	return gitsync.NewSyncer(opts, a.logger.Named("sync")).Sync(ctx, a.root, dest)
}

package gitsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CommissaiR/gitlabber/internal/logging"
	"github.com/CommissaiR/gitlabber/internal/tree"
)

const defaultConcurrency = 4

// Options configure a Syncer.
type Options struct {
	// Concurrency bounds the number of projects mirrored at once.
	Concurrency int

	Auth     transport.AuthMethod
	Branch   string
	Progress io.Writer
}

// Failure records a project that could not be mirrored.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result summarises a Sync run. Paths are canonical tree paths, sorted.
type Result struct {
	Groups   int
	Cloned   []string
	Updated  []string
	UpToDate []string
	Skipped  []string
	Failed   []Failure
	Duration time.Duration
}

// Err joins every failure, or returns nil.
func (r *Result) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Syncer mirrors a tree under a destination directory.
type Syncer struct {
	opts   Options
	logger *logging.Logger

	// newWorker is swapped in tests.
	newWorker func(path, origin string, options ...Option) cloner
}

type cloner interface {
	CloneOrPull(ctx context.Context) (Outcome, error)
}

// NewSyncer creates a Syncer. A nil logger discards output.
func NewSyncer(opts Options, logger *logging.Logger) *Syncer {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Syncer{
		opts:   opts,
		logger: logger,
		newWorker: func(path, origin string, options ...Option) cloner {
			return New(path, origin, options...)
		},
	}
}

// Sync creates a directory for every group below root and clones or pulls
// every project. Group nodes that ended up childless after filtering, and
// projects without a locator, are created as plain directories and
// reported as skipped.
//
// A failing project never stops its siblings. Sync returns the joined
// failures alongside the full Result; it returns early only when dest
// cannot be created or ctx is cancelled.
func (s *Syncer) Sync(ctx context.Context, root *tree.Node, dest string) (*Result, error) {
	start := time.Now()
	res := &Result{}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create destination %q: %w", dest, err)
	}

	var projects []*tree.Node
	for _, n := range root.Descendants() {
		dir, err := localPath(dest, n.Path())
		if err != nil {
			res.Failed = append(res.Failed, Failure{Path: n.Path(), Err: err})
			continue
		}
		if !n.IsLeaf() {
			res.Groups++
			if err := os.MkdirAll(dir, 0o755); err != nil {
				res.Failed = append(res.Failed, Failure{Path: n.Path(), Err: err})
			}
			continue
		}
		if n.Locator == "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				res.Failed = append(res.Failed, Failure{Path: n.Path(), Err: err})
				continue
			}
			res.Skipped = append(res.Skipped, n.Path())
			continue
		}
		projects = append(projects, n)
	}

	s.logger.Info(ctx, "syncing tree",
		zap.String("dest", dest),
		zap.Int("groups", res.Groups),
		zap.Int("projects", len(projects)),
		zap.Int("concurrency", s.opts.Concurrency),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, n := range projects {
		path, origin := n.Path(), n.Locator
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := s.syncProject(logging.WithProjectPath(gctx, path), dest, path, origin)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed = append(res.Failed, Failure{Path: path, Err: err})
			case outcome == Cloned:
				res.Cloned = append(res.Cloned, path)
			case outcome == Updated:
				res.Updated = append(res.Updated, path)
			case outcome == UpToDate:
				res.UpToDate = append(res.UpToDate, path)
			default:
				res.Skipped = append(res.Skipped, path)
			}
			return nil
		})
	}

	// Only cancellation is returned by the goroutines.
	waitErr := g.Wait()

	res.sort()
	res.Duration = time.Since(start)

	s.logger.Info(ctx, "sync finished",
		zap.Int("cloned", len(res.Cloned)),
		zap.Int("updated", len(res.Updated)),
		zap.Int("up_to_date", len(res.UpToDate)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("duration", res.Duration),
	)

	if waitErr != nil {
		return res, waitErr
	}
	return res, res.Err()
}

func (s *Syncer) syncProject(ctx context.Context, dest, path, origin string) (Outcome, error) {
	dir, err := localPath(dest, path)
	if err != nil {
		return 0, err
	}

	s.logger.Debug(ctx, "syncing project", zap.String("origin", origin))

	w := s.newWorker(dir, origin,
		Auth(s.opts.Auth),
		Branch(s.opts.Branch),
		Progress(s.opts.Progress),
	)
	outcome, err := w.CloneOrPull(ctx)
	if err != nil {
		s.logger.Error(ctx, "project sync failed", zap.Error(err))
		return 0, err
	}

	s.logger.Info(ctx, "project synced", zap.Stringer("outcome", outcome))
	return outcome, nil
}

func (r *Result) sort() {
	sort.Strings(r.Cloned)
	sort.Strings(r.Updated)
	sort.Strings(r.UpToDate)
	sort.Strings(r.Skipped)
	sort.Slice(r.Failed, func(i, j int) bool { return r.Failed[i].Path < r.Failed[j].Path })
}

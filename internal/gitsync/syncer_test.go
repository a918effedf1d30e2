package gitsync

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/CommissaiR/gitlabber/internal/config"
	"github.com/CommissaiR/gitlabber/internal/logging"
	"github.com/CommissaiR/gitlabber/internal/tree"
)

type fakeCloner struct {
	fn func(ctx context.Context) (Outcome, error)
}

func (f fakeCloner) CloneOrPull(ctx context.Context) (Outcome, error) {
	return f.fn(ctx)
}

func buildTree(t *testing.T, entries ...tree.Entry) *tree.Node {
	t.Helper()
	root := tree.NewRoot("https://gitlab.example.com")
	require.NoError(t, tree.NewBuilder(root, nil).Build(entries))
	return root
}

func TestSyncer_Sync(t *testing.T) {
	root := buildTree(t,
		tree.Entry{Path: "org/teamA/svc1", Locator: "origin-svc1"},
		tree.Entry{Path: "org/teamA/svc2", Locator: "origin-svc2"},
		tree.Entry{Path: "org/teamB/svc3", Locator: "origin-svc3"},
		tree.Entry{Path: "org/teamB/broken", Locator: "origin-broken"},
		tree.Entry{Path: "org/teamC/empty", Locator: "origin-empty"},
	)
	dest := t.TempDir()
	logger := logging.NewTestLogger()

	var mu sync.Mutex
	seen := map[string]string{}

	s := NewSyncer(Options{Concurrency: 2}, logger.Logger)
	s.newWorker = func(path, origin string, _ ...Option) cloner {
		mu.Lock()
		seen[path] = origin
		mu.Unlock()
		return fakeCloner{fn: func(context.Context) (Outcome, error) {
			switch origin {
			case "origin-svc1":
				return Cloned, nil
			case "origin-svc2":
				return Updated, nil
			case "origin-svc3":
				return UpToDate, nil
			case "origin-empty":
				return Empty, nil
			default:
				return 0, errors.New("permission denied")
			}
		}}
	}

	res, err := s.Sync(context.Background(), root, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "org/teamB/broken: permission denied")

	assert.Equal(t, 4, res.Groups)
	assert.Equal(t, []string{"org/teamA/svc1"}, res.Cloned)
	assert.Equal(t, []string{"org/teamA/svc2"}, res.Updated)
	assert.Equal(t, []string{"org/teamB/svc3"}, res.UpToDate)
	assert.Equal(t, []string{"org/teamC/empty"}, res.Skipped)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "org/teamB/broken", res.Failed[0].Path)

	assert.Equal(t, "origin-svc1", seen[filepath.Join(dest, "org", "teamA", "svc1")])
	assert.Len(t, seen, 5)
	for _, dir := range []string{"org", "org/teamA", "org/teamB", "org/teamC"} {
		assert.DirExists(t, filepath.Join(dest, filepath.FromSlash(dir)))
	}

	logger.AssertLogged(t, zapcore.InfoLevel, "syncing tree")
	logger.AssertLogged(t, zapcore.ErrorLevel, "project sync failed")
	logger.AssertField(t, "project sync failed", "project.path", "org/teamB/broken")
}

func TestSyncer_BoundedConcurrency(t *testing.T) {
	var entries []tree.Entry
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		entries = append(entries, tree.Entry{Path: "org/" + name, Locator: "origin-" + name})
	}
	root := buildTree(t, entries...)

	var running, peak int32
	s := NewSyncer(Options{Concurrency: 3}, nil)
	s.newWorker = func(string, string, ...Option) cloner {
		return fakeCloner{fn: func(context.Context) (Outcome, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return Cloned, nil
		}}
	}

	res, err := s.Sync(context.Background(), root, t.TempDir())
	require.NoError(t, err)
	assert.Len(t, res.Cloned, 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestSyncer_ChildlessGroupAndMissingLocator(t *testing.T) {
	root := buildTree(t,
		tree.Entry{Path: "org/teamA/svc1", Locator: ""},
	)
	// A childless group kept by an include pattern on its own path.
	group := tree.NewNode("teamB", "")
	require.NoError(t, group.Attach(root.FindChild("org")))

	dest := t.TempDir()
	s := NewSyncer(Options{}, nil)
	s.newWorker = func(string, string, ...Option) cloner {
		t.Fatal("no project should be cloned")
		return nil
	}

	res, err := s.Sync(context.Background(), root, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"org/teamA/svc1", "org/teamB"}, res.Skipped)
	assert.DirExists(t, filepath.Join(dest, "org", "teamB"))
	assert.DirExists(t, filepath.Join(dest, "org", "teamA", "svc1"))
}

func TestSyncer_Cancelled(t *testing.T) {
	root := buildTree(t, tree.Entry{Path: "org/svc", Locator: "origin"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSyncer(Options{}, nil)
	s.newWorker = func(string, string, ...Option) cloner {
		return fakeCloner{fn: func(context.Context) (Outcome, error) { return Cloned, nil }}
	}

	_, err := s.Sync(ctx, root, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncer_RealRepositories(t *testing.T) {
	remoteDir, _ := newRemote(t)
	root := buildTree(t, tree.Entry{Path: "org/svc", Locator: remoteDir})
	dest := t.TempDir()

	s := NewSyncer(Options{Concurrency: 1}, nil)

	res, err := s.Sync(context.Background(), root, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"org/svc"}, res.Cloned)
	assert.FileExists(t, filepath.Join(dest, "org", "svc", "README.md"))

	res, err = s.Sync(context.Background(), root, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"org/svc"}, res.UpToDate)
}

func TestTokenAuth(t *testing.T) {
	assert.Nil(t, TokenAuth(config.MethodSSH, "token"))
	assert.Nil(t, TokenAuth(config.MethodHTTP, ""))

	auth := TokenAuth(config.MethodHTTP, "glpat-x")
	require.NotNil(t, auth)
	assert.Equal(t, "http-basic-auth", auth.Name())
}

func TestSyncer_RefusesPathsOutsideDest(t *testing.T) {
	// Built by hand: the builder and codec refuse these names.
	root := tree.NewRoot("")
	up := tree.NewNode("..", "")
	require.NoError(t, up.Attach(root))
	outside := tree.NewNode("outside", "")
	require.NoError(t, outside.Attach(up))
	repo := tree.NewNode("repo", "origin-repo")
	require.NoError(t, repo.Attach(outside))
	ok := tree.NewNode("ok", "origin-ok")
	require.NoError(t, ok.Attach(root))

	base := t.TempDir()
	dest := filepath.Join(base, "mirror")

	var mu sync.Mutex
	var started []string
	s := NewSyncer(Options{Concurrency: 2}, nil)
	s.newWorker = func(path, _ string, _ ...Option) cloner {
		mu.Lock()
		started = append(started, path)
		mu.Unlock()
		return fakeCloner{fn: func(context.Context) (Outcome, error) { return Cloned, nil }}
	}

	res, err := s.Sync(context.Background(), root, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")

	assert.Equal(t, []string{"ok"}, res.Cloned)
	var failed []string
	for _, f := range res.Failed {
		failed = append(failed, f.Path)
	}
	assert.ElementsMatch(t, []string{"..", "../outside", "../outside/repo"}, failed)
	assert.Equal(t, []string{filepath.Join(dest, "ok")}, started)
	assert.NoDirExists(t, filepath.Join(base, "outside"))
}

func TestLocalPath(t *testing.T) {
	dest := t.TempDir()

	dir, err := localPath(dest, "org/teamA/svc1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "org", "teamA", "svc1"), dir)

	for _, p := range []string{"", "..", "../x", "org/../../x", "."} {
		_, err := localPath(dest, p)
		assert.Error(t, err, p)
	}
}

package gitsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Outcome reports what CloneOrPull did.
type Outcome int

const (
	// Cloned means the repository did not exist locally and was cloned.
	Cloned Outcome = iota + 1
	// Updated means new commits were pulled.
	Updated
	// UpToDate means the local copy already matched the remote.
	UpToDate
	// Empty means the remote has no commits; nothing was written.
	Empty
)

func (o Outcome) String() string {
	switch o {
	case Cloned:
		return "cloned"
	case Updated:
		return "updated"
	case UpToDate:
		return "up-to-date"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Worker keeps a local directory in sync with a remote repository.
// It should be created by calling New.
type Worker struct {
	path     string
	origin   string
	branch   plumbing.ReferenceName
	progress io.Writer
	auth     transport.AuthMethod
}

// New returns a Worker mirroring origin into path.
//
// New is nondestructive. Calls to CloneOrPull will perform file system
// initialization and cloning as needed.
func New(path, origin string, options ...Option) *Worker {
	path, _ = filepath.Abs(path)
	w := &Worker{
		path:   path,
		origin: origin,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Path returns the absolute local directory.
func (w *Worker) Path() string {
	return w.path
}

// CloneOrPull performs the equivalent of git clone, or of git checkout and
// pull, to bring the local copy up to date.
//
// CloneOrPull is destructive. Local changes may be discarded and a
// malformed local copy is deleted and cloned again once.
func (w *Worker) CloneOrPull(ctx context.Context) (Outcome, error) {
	start := time.Now()

	repo, head, cloned, err := w.prepare(ctx)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		w.printf("Remote %s is empty\n", w.origin)
		return Empty, nil
	}
	if err != nil {
		return 0, err
	}

	if cloned {
		w.printf("Clone completed in %s\n", time.Since(start))
		return Cloned, nil
	}

	if err := w.updateOrigin(repo); err != nil {
		return 0, fmt.Errorf("unable to update origin: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return 0, fmt.Errorf("unable to open worktree: %w", err)
	}

	branch := w.branch
	switch {
	case branch == "":
		branch = head.Name()
	case head.Name() != branch:
		w.printf("Switching to %s branch\n", branch.Short())
		if err := w.updateBranch(ctx, repo, worktree); err != nil {
			return 0, err
		}
	}

	w.printf("Pulling %s from %s\n", branch.Short(), w.origin)
	err = worktree.PullContext(ctx, &git.PullOptions{
		ReferenceName: branch,
		Progress:      w.progress,
		Auth:          w.auth,
		Force:         true,
	})
	switch {
	case err == nil:
		w.printf("Pull completed in %s\n", time.Since(start))
		return Updated, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		return UpToDate, nil
	default:
		return 0, fmt.Errorf("unable to pull: %w", err)
	}
}

func (w *Worker) prepare(ctx context.Context) (repo *git.Repository, head *plumbing.Reference, cloned bool, err error) {
	const attempts = 2
	for i := 0; i < attempts; i++ {
		repo, cloned, err = w.openOrClone(ctx)
		if err != nil {
			return
		}

		head, err = repo.Head()
		if err == nil {
			return
		}

		err = fmt.Errorf("unable to determine repository HEAD reference: %w", err)

		if i < attempts-1 {
			w.printf("The repository appears to be malformed\nAttempting delete and re-clone\n")
			if derr := w.delete(); derr != nil {
				err = fmt.Errorf("unable to delete existing malformed repository: %w", derr)
				return
			}
		}
	}

	return
}

func (w *Worker) openOrClone(ctx context.Context) (repo *git.Repository, cloned bool, err error) {
	repo, err = git.PlainOpen(w.path)
	switch {
	case err == nil:
	case errors.Is(err, git.ErrRepositoryNotExists):
		w.printf("Cloning %s into %q\n", w.origin, w.path)
		cloned = true
		repo, err = git.PlainCloneContext(ctx, w.path, false, &git.CloneOptions{
			URL:           w.origin,
			ReferenceName: w.branch,
			SingleBranch:  w.branch != "",
			Progress:      w.progress,
			Auth:          w.auth,
		})
		if err != nil {
			err = fmt.Errorf("unable to clone %s: %w", w.origin, err)
		}
	default:
		err = fmt.Errorf("unable to open repository located at %q: %w", w.path, err)
	}
	return
}

// delete removes the git directory within w.path after performing some
// sanity checks.
func (w *Worker) delete() error {
	root, err := os.Stat(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to access path %q: %w", w.path, err)
	}

	if !root.IsDir() {
		return fmt.Errorf("repository path %q is not a directory", w.path)
	}

	gitPath := filepath.Join(w.path, git.GitDirName)
	gitDir, err := os.Stat(gitPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to access path %q: %w", gitPath, err)
	}

	if !gitDir.IsDir() {
		return fmt.Errorf("repository path %q is not a directory", gitPath)
	}

	w.printf("Deleting repository at %q\n", gitPath)
	return os.RemoveAll(gitPath)
}

// updateOrigin points the origin remote at w.origin, e.g. after the clone
// method changed from ssh to http.
func (w *Worker) updateOrigin(repo *git.Repository) error {
	cfg := gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{w.origin},
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	switch {
	case errors.Is(err, git.ErrRemoteNotFound):
		_, err = repo.CreateRemote(&cfg)
		return err
	case err == nil:
		urls := remote.Config().URLs
		if len(urls) == 1 && urls[0] == w.origin {
			return nil
		}
		w.printf("Updating origin to %s\n", w.origin)
		if err := repo.DeleteRemote(git.DefaultRemoteName); err != nil {
			return err
		}
		_, err = repo.CreateRemote(&cfg)
		return err
	default:
		return err
	}
}

func (w *Worker) updateBranch(ctx context.Context, repo *git.Repository, worktree *git.Worktree) error {
	_, err := repo.Reference(w.branch, false)
	existingBranch := err == nil

	if !existingBranch {
		// The branch must exist as a remote-tracking ref before it can be
		// created locally.
		err = repo.FetchContext(ctx, &git.FetchOptions{
			RefSpecs: []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf(
				"+%s:refs/remotes/%s/%s", w.branch, git.DefaultRemoteName, w.branch.Short()))},
			Auth:     w.auth,
			Progress: w.progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("unable to fetch %s branch: %w", w.branch.Short(), err)
		}
		remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, w.branch.Short()), true)
		if err != nil {
			return fmt.Errorf("unable to resolve remote %s branch: %w", w.branch.Short(), err)
		}
		err = worktree.Checkout(&git.CheckoutOptions{
			Branch: w.branch,
			Hash:   remoteRef.Hash(),
			Create: true,
			Force:  true,
		})
		if err != nil {
			return fmt.Errorf("unable to switch to %s branch: %w", w.branch.Short(), err)
		}
		return nil
	}

	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: w.branch,
		Force:  true,
	})
	if err != nil {
		return fmt.Errorf("unable to switch to %s branch: %w", w.branch.Short(), err)
	}
	return nil
}

func (w *Worker) printf(format string, v ...interface{}) {
	if w.progress == nil {
		return
	}
	fmt.Fprintf(w.progress, format, v...)
}

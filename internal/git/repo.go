// Package git provides a wrapper around git commands and go-git for repository operations.
package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// Repo wraps a go-git repository together with a command runner rooted at the
// same working tree. Read operations go through go-git where possible;
// mutations (push, fetch, rebase, commit rewriting) shell out to git.
type Repo struct {
	repo   *gogit.Repository
	runner *CommandRunner
	root   string
}

// Open opens the git repository containing dir.
func Open(dir string) (*Repo, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	root := worktree.Filesystem.Root()

	return &Repo{
		repo:   repo,
		runner: NewCommandRunner(root),
		root:   root,
	}, nil
}

// OpenFromCwd opens the repository containing the current working directory.
func OpenFromCwd() (*Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return Open(wd)
}

// Root returns the root directory of the repository working tree.
func (r *Repo) Root() string {
	return r.root
}

// Runner returns the command runner rooted at the repository.
func (r *Repo) Runner() *CommandRunner {
	return r.runner
}

// CurrentBranch returns the short name of the branch HEAD points at, or the
// HEAD commit SHA when detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String(), nil
}

// ResolveRevision resolves a git revision (branch, tag, SHA, HEAD~n syntax)
// to a full commit SHA.
func (r *Repo) ResolveRevision(rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		// go-git's revision parser does not cover every rev syntax git
		// accepts, fall back to rev-parse.
		out, cliErr := r.runner.Run(context.Background(), "rev-parse", "--verify", rev+"^{commit}")
		if cliErr != nil {
			return "", fmt.Errorf("failed to resolve %q: %w", rev, err)
		}
		return out, nil
	}
	return hash.String(), nil
}

// IsAncestor returns true if ancestor is reachable from descendant.
func (r *Repo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	_, err := r.runner.Run(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	if err != nil {
		var gitErr *stackprerrors.GitCommandError
		if stderrors.As(err, &gitErr) {
			if exitErr, ok := gitErr.Err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

// IsClean returns true when the working tree has no uncommitted changes.
// Untracked files are ignored, matching what the stack commands care about.
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	lines, err := r.runner.RunLines(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "??") {
			continue
		}
		if strings.TrimSpace(line) != "" {
			return false, nil
		}
	}
	return true, nil
}

// Checkout checks out the given revision or branch.
func (r *Repo) Checkout(ctx context.Context, rev string) error {
	_, err := r.runner.Run(ctx, "checkout", rev)
	return err
}

// BranchExists returns true if a local branch with the given name exists.
func (r *Repo) BranchExists(name string) bool {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	return err == nil
}

// RemoteBranchSHA returns the SHA of remote/name from the local remote
// tracking refs, or false when the remote branch is unknown. Callers fetch
// first to get a current view.
func (r *Repo) RemoteBranchSHA(remote, name string) (string, bool) {
	ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName(remote, name), true)
	if err != nil {
		return "", false
	}
	return ref.Hash().String(), true
}

// Rebase rebases branch onto the given revision, keeping committer dates
// pinned to author dates so rewritten SHAs stay stable across machines.
func (r *Repo) Rebase(ctx context.Context, onto, branch string) error {
	_, err := r.runner.Run(ctx, "rebase", onto, branch, "--committer-date-is-author-date")
	if err != nil {
		// A conflicted rebase leaves the tree mid-rebase, abort to restore it.
		_, _ = r.runner.Run(ctx, "rebase", "--abort")
		return fmt.Errorf("rebase of %s onto %s failed: %w", branch, onto, err)
	}
	return nil
}

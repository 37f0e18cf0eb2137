package git

import (
	"context"
	"fmt"
	"strings"
)

// Fetch updates remote tracking refs, pruning deleted branches.
func (r *Repo) Fetch(ctx context.Context, remote string) error {
	_, err := r.runner.Run(ctx, "fetch", "--prune", remote)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", remote, err)
	}
	return nil
}

// PushCommit force-pushes a commit to a remote branch, creating the branch if
// it does not exist. One call is one atomicity unit: the remote branch either
// moves to the commit or stays untouched.
func (r *Repo) PushCommit(ctx context.Context, remote, sha, branch string) error {
	refspec := fmt.Sprintf("%s:refs/heads/%s", sha, branch)
	_, err := r.runner.Run(ctx, "push", "-f", remote, refspec)
	if err != nil {
		return fmt.Errorf("failed to push %s to %s/%s: %w", sha[:8], remote, branch, err)
	}
	return nil
}

// PushCommits force-pushes several commit/branch pairs in one push.
func (r *Repo) PushCommits(ctx context.Context, remote string, refspecs map[string]string) error {
	if len(refspecs) == 0 {
		return nil
	}
	args := []string{"push", "-f", remote}
	for branch, sha := range refspecs {
		args = append(args, fmt.Sprintf("%s:refs/heads/%s", sha, branch))
	}
	_, err := r.runner.Run(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to push branches to %s: %w", remote, err)
	}
	return nil
}

// DeleteRemoteBranch deletes a branch on the remote. Deleting a branch that
// is already gone is not an error.
func (r *Repo) DeleteRemoteBranch(ctx context.Context, remote, branch string) error {
	_, err := r.runner.Run(ctx, "push", remote, "--delete", branch)
	if err != nil && !strings.Contains(err.Error(), "remote ref does not exist") {
		return fmt.Errorf("failed to delete %s/%s: %w", remote, branch, err)
	}
	return nil
}

// DeleteLocalBranch deletes a local branch if it exists.
func (r *Repo) DeleteLocalBranch(ctx context.Context, branch string) error {
	if !r.BranchExists(branch) {
		return nil
	}
	_, err := r.runner.Run(ctx, "branch", "-D", branch)
	return err
}

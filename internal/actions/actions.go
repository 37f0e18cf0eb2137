// Package actions implements the shared machinery of the stack commands:
// range loading, preflight checks, local base fast-forwarding and stack
// printing. Each command lives in its own subpackage.
package actions

import (
	"context"
	"fmt"

	"stackpr.dev/stackpr/internal/runtime"
	"stackpr.dev/stackpr/internal/stack"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// CommonOptions are the flags every stack command shares.
type CommonOptions struct {
	Base   string
	Head   string
	Remote string
	Target string
}

// LoadStack enumerates the commit range and builds the entry list, oldest
// first. An empty slice means an empty stack, not an error.
func LoadStack(ctx context.Context, rt *runtime.Context, opts CommonOptions) ([]*stack.Entry, error) {
	commits, err := rt.Repo.CommitsBetween(ctx, opts.Base, opts.Head)
	if err != nil {
		return nil, err
	}
	return stack.NewEntries(commits), nil
}

// CheckClean fails with a DirtyWorkingTree error when uncommitted changes
// are present. Every mutating command runs this before touching anything.
func CheckClean(ctx context.Context, rt *runtime.Context) error {
	clean, err := rt.Repo.IsClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("%w: commit or stash them before working with stacks",
			stackprerrors.ErrDirtyWorkingTree)
	}
	return nil
}

// ShouldUpdateLocalBase reports whether the local base branch lags behind
// the remote target while head already contains everything in between. This
// is the common "forgot to pull" case: the stack would otherwise include a
// pile of already-merged commits.
func ShouldUpdateLocalBase(ctx context.Context, rt *runtime.Context, opts CommonOptions) bool {
	remoteTarget := opts.Remote + "/" + opts.Target

	baseSHA, err := rt.Repo.ResolveRevision(opts.Base)
	if err != nil {
		return false
	}
	targetSHA, err := rt.Repo.ResolveRevision(remoteTarget)
	if err != nil {
		return false
	}
	if baseSHA == targetSHA {
		return false
	}

	baseBehind, err := rt.Repo.IsAncestor(ctx, opts.Base, remoteTarget)
	if err != nil || !baseBehind {
		return false
	}
	headCurrent, err := rt.Repo.IsAncestor(ctx, remoteTarget, opts.Head)
	if err != nil {
		return false
	}
	return headCurrent
}

// UpdateLocalBase fast-forwards the local base branch onto the remote
// target and returns to the branch the user was on.
func UpdateLocalBase(ctx context.Context, rt *runtime.Context, opts CommonOptions, currentBranch string) error {
	remoteTarget := opts.Remote + "/" + opts.Target
	rt.Splog.Header(fmt.Sprintf("Updating local branch %s to %s", opts.Base, remoteTarget))
	if err := rt.Repo.Rebase(ctx, remoteTarget, opts.Base); err != nil {
		return err
	}
	return rt.Repo.Checkout(ctx, currentBranch)
}

// PrintStack writes the stack to the console, top of the stack first.
func PrintStack(rt *runtime.Context, entries []*stack.Entry) {
	rt.Splog.Header("Stack:")
	for i := len(entries) - 1; i >= 0; i-- {
		rt.Splog.Info("   * %s", FormatEntry(entries[i]))
	}
}

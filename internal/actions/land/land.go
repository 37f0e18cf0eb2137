// Package land implements the land command: it merges the stack into the
// integration branch bottom to top, one pull request at a time.
package land

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"stackpr.dev/stackpr/internal/actions"
	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/runtime"
	"stackpr.dev/stackpr/internal/stack"
)

// Options control a land run.
type Options struct {
	actions.CommonOptions

	// Yes skips the confirmation prompt.
	Yes bool
}

// landState tracks one entry through the sequencer. Transitions are strictly
// forward: pending, rebasing, landing, then done or failed.
type landState string

const (
	statePending  landState = "pending"
	stateRebasing landState = "rebasing"
	stateLanding  landState = "landing"
	stateDone     landState = "done"
	stateFailed   landState = "failed"
)

// Run lands the stack bottom to top. Each entry is rebased onto the
// freshly-fetched integration branch, its pull request retargeted and
// squash-merged, and its branch deleted. The first failure halts the
// sequence; entries already merged stand, the rest stay open untouched.
func Run(ctx context.Context, rt *runtime.Context, opts Options) error {
	if err := actions.CheckClean(ctx, rt); err != nil {
		return err
	}

	currentBranch, err := rt.Repo.CurrentBranch()
	if err != nil {
		currentBranch = ""
	}

	rt.Splog.Header(fmt.Sprintf("Fetching from %s", opts.Remote))
	if err := rt.Repo.Fetch(ctx, opts.Remote); err != nil {
		return err
	}

	entries, err := actions.LoadStack(ctx, rt, opts.CommonOptions)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		rt.Splog.Info("Empty stack!")
		rt.Splog.Success()
		return nil
	}

	resolver := &stack.Resolver{GitHub: rt.GitHub, Repo: rt.Repo, Remote: opts.Remote, Splog: rt.Splog}
	if err := resolver.Resolve(ctx, entries); err != nil {
		return err
	}
	if err := checkLandable(entries, opts.Target); err != nil {
		return err
	}

	actions.PrintStack(rt, entries)
	if !opts.Yes {
		ok := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Land %d pull requests into %s?", len(entries), opts.Target),
		}
		if err := survey.AskOne(prompt, &ok); err != nil {
			return err
		}
		if !ok {
			rt.Splog.Info("Aborted.")
			return nil
		}
	}

	states := make([]landState, len(entries))
	for i := range states {
		states[i] = statePending
	}

	landed := 0
	for i, e := range entries {
		if err := landEntry(ctx, rt, opts, e, currentBranch, &states[i]); err != nil {
			states[i] = stateFailed
			rt.Splog.Error("landing halted at #%d (%d of %d landed): %v",
				e.ReviewNumber(), landed, len(entries), err)
			rt.Splog.Info("already-merged pull requests stand; fix the failure and run land again")
			restoreBranch(ctx, rt, currentBranch)
			return err
		}
		landed++
	}

	if err := syncAfterLand(ctx, rt, opts, currentBranch); err != nil {
		return err
	}

	rt.Splog.Header(fmt.Sprintf("Landed %d pull requests into %s", landed, opts.Target))
	rt.Splog.Success()
	return nil
}

// checkLandable verifies the stack is fully submitted and linked bottom to
// top. Landing never repairs the stack, that is submit's job.
func checkLandable(entries []*stack.Entry, target string) error {
	prevBranch := target
	for _, e := range entries {
		if !e.HasOpenReview() {
			return fmt.Errorf("commit %s has no open pull request, run submit first", e.Commit.SHA[:8])
		}
		rv := e.Review
		if rv.HeadSHA != e.Commit.SHA {
			return fmt.Errorf("pull request #%d is behind commit %s, run submit first",
				rv.Number, e.Commit.SHA[:8])
		}
		if rv.BaseBranch != prevBranch {
			return fmt.Errorf("pull request #%d targets %s instead of %s, run submit first",
				rv.Number, rv.BaseBranch, prevBranch)
		}
		prevBranch = rv.HeadBranch
	}
	return nil
}

// landEntry lands a single entry: refresh the integration branch, replay the
// entry's branch on top of it, retarget the pull request and squash-merge.
// Patches already merged by earlier iterations drop out during the replay.
func landEntry(ctx context.Context, rt *runtime.Context, opts Options, e *stack.Entry,
	currentBranch string, state *landState) error {

	rv := e.Review
	remoteTarget := opts.Remote + "/" + opts.Target

	*state = stateRebasing
	if err := rt.Repo.Fetch(ctx, opts.Remote); err != nil {
		return err
	}
	tmp := rv.HeadBranch + "-land"
	if _, err := rt.Repo.Runner().Run(ctx, "branch", "-f", tmp, e.Commit.SHA); err != nil {
		return err
	}
	// The rebase leaves the temp branch checked out; return before deleting.
	defer func() {
		restoreBranch(ctx, rt, currentBranch)
		_ = rt.Repo.DeleteLocalBranch(ctx, tmp)
	}()
	if err := rt.Repo.Rebase(ctx, remoteTarget, tmp); err != nil {
		return err
	}
	tip, err := rt.Repo.ResolveRevision(tmp)
	if err != nil {
		return err
	}
	if err := rt.Repo.PushCommit(ctx, opts.Remote, tip, rv.HeadBranch); err != nil {
		return err
	}

	*state = stateLanding
	if rv.BaseBranch != opts.Target {
		base := opts.Target
		if err := rt.GitHub.UpdatePullRequest(ctx, rv.Number, github.UpdatePROptions{Base: &base}); err != nil {
			return err
		}
		rv.BaseBranch = base
	}
	err = rt.GitHub.MergePullRequest(ctx, rv.Number, github.MergeOptions{
		Strategy:    "squash",
		CommitTitle: fmt.Sprintf("%s (#%d)", e.Title(), rv.Number),
		CommitBody:  e.Body(),
	})
	if err != nil {
		return err
	}
	rt.Splog.Info("Landed #%d: %s", rv.Number, e.Title())

	if err := rt.Repo.DeleteRemoteBranch(ctx, opts.Remote, rv.HeadBranch); err != nil {
		rt.Splog.Warn("could not delete %s/%s: %v", opts.Remote, rv.HeadBranch, err)
	}
	*state = stateDone
	return nil
}

// syncAfterLand replays whatever is left of the working branch onto the
// advanced integration branch, dropping the landed commits locally.
func syncAfterLand(ctx context.Context, rt *runtime.Context, opts Options, currentBranch string) error {
	if err := rt.Repo.Fetch(ctx, opts.Remote); err != nil {
		return err
	}
	if currentBranch == "" {
		return nil
	}
	remoteTarget := opts.Remote + "/" + opts.Target
	rt.Splog.Header(fmt.Sprintf("Rebasing %s onto %s", currentBranch, remoteTarget))
	if err := rt.Repo.Rebase(ctx, remoteTarget, currentBranch); err != nil {
		return err
	}
	return nil
}

func restoreBranch(ctx context.Context, rt *runtime.Context, branch string) {
	if branch == "" {
		return
	}
	if err := rt.Repo.Checkout(ctx, branch); err != nil {
		rt.Splog.Warn("could not return to %s: %v", branch, err)
	}
}

// Package abandon implements the abandon command: it closes every pull
// request of the stack, deletes the stack branches and strips the metadata
// trailers from the local commits.
package abandon

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"stackpr.dev/stackpr/internal/actions"
	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/runtime"
	"stackpr.dev/stackpr/internal/stack"
)

// Options control an abandon run.
type Options struct {
	actions.CommonOptions

	// Yes skips the confirmation prompt.
	Yes bool
}

// Run abandons the stack. Unlike submit, abandon does close tracked pull
// requests whose commits vanished from the range: the whole stack identity
// is being retired, nothing may stay behind.
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

	stackID := ""
	for _, e := range entries {
		if e.Metadata != nil && e.Metadata.StackID != "" {
			stackID = e.Metadata.StackID
			break
		}
	}
	if stackID == "" {
		rt.Splog.Info("Nothing to abandon, no commit in the range was ever submitted.")
		rt.Splog.Success()
		return nil
	}

	resolver := &stack.Resolver{GitHub: rt.GitHub, Repo: rt.Repo, Remote: opts.Remote, Splog: rt.Splog}
	if err := resolver.Resolve(ctx, entries); err != nil {
		return err
	}

	owner, err := rt.GitHub.CurrentUsername(ctx)
	if err != nil {
		return err
	}
	tracked, err := stack.TrackedRequests(ctx, rt.GitHub, owner, stackID)
	if err != nil {
		return err
	}

	targets := closeTargets(entries, tracked)
	actions.PrintStack(rt, entries)
	if !opts.Yes {
		ok := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Close %d pull requests and delete their branches?", len(targets)),
		}
		if err := survey.AskOne(prompt, &ok); err != nil {
			return err
		}
		if !ok {
			rt.Splog.Info("Aborted.")
			return nil
		}
	}

	for _, rv := range targets {
		if err := rt.GitHub.ClosePullRequest(ctx, rv.Number); err != nil {
			return err
		}
		rt.Splog.Info("Closed #%d", rv.Number)
		if err := rt.Repo.DeleteRemoteBranch(ctx, opts.Remote, rv.HeadBranch); err != nil {
			rt.Splog.Warn("could not delete %s/%s: %v", opts.Remote, rv.HeadBranch, err)
		}
	}

	if err := stripMetadata(ctx, rt, opts, entries, currentBranch); err != nil {
		return err
	}

	rt.Splog.Success()
	return nil
}

// closeTargets collects every open pull request the stack still owns: the
// resolved entries plus tracked requests no entry claims.
func closeTargets(entries []*stack.Entry, tracked []*stack.ReviewInfo) []*stack.ReviewInfo {
	var targets []*stack.ReviewInfo
	seen := make(map[int]bool)
	for _, e := range entries {
		if e.HasOpenReview() && !seen[e.Review.Number] {
			targets = append(targets, e.Review)
			seen[e.Review.Number] = true
		}
	}
	for _, rv := range tracked {
		if rv.State == stack.ReviewOpen && !seen[rv.Number] {
			targets = append(targets, rv)
			seen[rv.Number] = true
		}
	}
	return targets
}

// stripMetadata rewrites the commit chain without the metadata trailers,
// returning the commits to the state they had before the first submit.
func stripMetadata(ctx context.Context, rt *runtime.Context, opts Options,
	entries []*stack.Entry, currentBranch string) error {

	rewrites := make([]git.RewrittenCommit, 0, len(entries))
	changed := false
	for _, e := range entries {
		message := stack.StripMetadata(e.Commit.Message)
		if message != e.Commit.Message {
			changed = true
		}
		rewrites = append(rewrites, git.RewrittenCommit{Commit: e.Commit, Message: message})
	}
	if !changed {
		return nil
	}

	headBranch := currentBranch
	if opts.Head != "HEAD" && rt.Repo.BranchExists(opts.Head) {
		headBranch = opts.Head
	}
	_, err := rt.Repo.RewriteMessages(ctx, rewrites, headBranch)
	return err
}

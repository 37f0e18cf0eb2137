// Package submit implements the submit command: it reconciles the local
// commit range with the remote branches and pull requests of the stack.
package submit

import (
	"context"
	"fmt"

	"stackpr.dev/stackpr/internal/actions"
	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/runtime"
	"stackpr.dev/stackpr/internal/stack"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// Options control a submit run.
type Options struct {
	actions.CommonOptions

	// Draft requests draft state for every entry. Only honored when
	// DraftSet is true, so an omitted flag leaves existing states alone.
	Draft    bool
	DraftSet bool

	// DraftBitmask requests per-entry draft states, lowest entry first.
	// Takes precedence over Draft.
	DraftBitmask string

	// Reviewers are requested on newly created pull requests.
	Reviewers []string
}

// ParseDraftBitmask decodes a draft bitmask into per-entry draft states,
// lowest entry first. The mask must contain exactly one '0' or '1' per
// entry; anything else fails before any remote state is touched.
func ParseDraftBitmask(mask string, entries int) ([]bool, error) {
	if len(mask) != entries {
		return nil, stackprerrors.NewLengthMismatchError(entries, len(mask))
	}
	states := make([]bool, len(mask))
	for i, c := range mask {
		switch c {
		case '0':
			states[i] = false
		case '1':
			states[i] = true
		default:
			return nil, fmt.Errorf("%w: draft bitmask may only contain 0 and 1, got %q",
				stackprerrors.ErrLengthMismatch, mask)
		}
	}
	return states, nil
}

// Run synchronizes the stack. The flow is enumerate, resolve, diff, apply:
// every run rebuilds its picture of the world from the commit range and the
// hosting system, applies the minimal edits, then rewrites commit messages
// so each commit records its stack identity.
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

	if currentBranch != "" && actions.ShouldUpdateLocalBase(ctx, rt, opts.CommonOptions) {
		if err := actions.UpdateLocalBase(ctx, rt, opts.CommonOptions, currentBranch); err != nil {
			return err
		}
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

	if err := applyDraftFlags(entries, opts); err != nil {
		return err
	}

	owner, err := rt.GitHub.CurrentUsername(ctx)
	if err != nil {
		return err
	}
	stackID := stack.RecoverStackID(entries)

	resolver := &stack.Resolver{GitHub: rt.GitHub, Repo: rt.Repo, Remote: opts.Remote, Splog: rt.Splog}
	if err := resolver.Resolve(ctx, entries); err != nil {
		return err
	}
	tracked, err := stack.TrackedRequests(ctx, rt.GitHub, owner, stackID)
	if err != nil {
		return err
	}

	ops := stack.Diff(entries, tracked, opts.Target)
	counts := stack.Counts(ops)
	rt.Splog.Header(fmt.Sprintf("Submitting stack of %d commits (%d to create, %d to update)",
		len(entries), counts[stack.OpCreate], counts[stack.OpUpdate]))

	if err := apply(ctx, rt, opts, ops, entries, owner, stackID, tracked); err != nil {
		return err
	}

	if err := embedMetadata(ctx, rt, opts, entries, stackID, currentBranch); err != nil {
		return err
	}

	if err := pushBranches(ctx, rt, opts.Remote, entries); err != nil {
		return err
	}

	if err := refreshBodies(ctx, rt, entries); err != nil {
		return err
	}

	actions.PrintStack(rt, entries)
	rt.Splog.Success()
	return nil
}

func applyDraftFlags(entries []*stack.Entry, opts Options) error {
	if opts.DraftBitmask != "" {
		states, err := ParseDraftBitmask(opts.DraftBitmask, len(entries))
		if err != nil {
			return err
		}
		for i, e := range entries {
			draft := states[i]
			e.DesiredDraft = &draft
		}
		return nil
	}
	if opts.DraftSet {
		for _, e := range entries {
			draft := opts.Draft
			e.DesiredDraft = &draft
		}
	}
	return nil
}

// apply walks the op sequence bottom to top, maintaining the base chain:
// each entry's pull request must target the branch of the entry below it,
// the lowest one targets the integration branch.
func apply(ctx context.Context, rt *runtime.Context, opts Options, ops []stack.Op,
	entries []*stack.Entry, owner, stackID string, tracked []*stack.ReviewInfo) error {

	used := make(map[string]bool)
	for _, rv := range tracked {
		used[rv.HeadBranch] = true
	}
	for _, e := range entries {
		if e.Review != nil {
			used[e.Review.HeadBranch] = true
		}
	}

	prevBranch := opts.Target
	for _, op := range ops {
		switch op.Kind {
		case stack.OpCreate:
			e := op.Entry
			branch := allocateBranch(rt, opts.Remote, owner, stackID, e.Position, used)
			used[branch] = true
			if err := rt.Repo.PushCommit(ctx, opts.Remote, e.Commit.SHA, branch); err != nil {
				return err
			}
			pr, err := rt.GitHub.CreatePullRequest(ctx, github.CreatePROptions{
				Title:     e.Title(),
				Body:      stack.RenderReviewBody(e, ""),
				Head:      branch,
				Base:      prevBranch,
				Draft:     e.DesiredDraft != nil && *e.DesiredDraft,
				Reviewers: opts.Reviewers,
			})
			if err != nil {
				return err
			}
			e.Review = stack.NewReviewInfo(pr)
			e.Metadata = &stack.Metadata{StackID: stackID, PRNumber: pr.Number}
			rt.Splog.Info("Created %s for %s", pr.URL, e.Commit.SHA[:8])
			prevBranch = branch

		case stack.OpUpdate:
			e := op.Entry
			rv := e.Review
			update := github.UpdatePROptions{}
			if e.Title() != rv.Title {
				title := e.Title()
				update.Title = &title
			}
			if rv.BaseBranch != prevBranch {
				base := prevBranch
				update.Base = &base
			}
			if e.DesiredDraft != nil && *e.DesiredDraft != rv.Draft {
				update.Draft = e.DesiredDraft
			}
			// A content-only change needs no request edit here, the
			// branch push and body refresh cover it.
			if update.Title != nil || update.Base != nil || update.Draft != nil {
				if err := rt.GitHub.UpdatePullRequest(ctx, rv.Number, update); err != nil {
					return err
				}
			}
			if update.Base != nil {
				rv.BaseBranch = *update.Base
			}
			if update.Draft != nil {
				rv.Draft = *update.Draft
			}
			rt.Splog.Info("Updated #%d for %s", rv.Number, e.Commit.SHA[:8])
			prevBranch = rv.HeadBranch

		case stack.OpKeep:
			prevBranch = op.Entry.Review.HeadBranch

		case stack.OpClose:
			// Submit never closes: a request whose commit vanished from
			// the range may have been moved to another stack on purpose.
			rt.Splog.Warn("pull request #%d (%s) no longer matches any commit in the range; "+
				"close it manually or run abandon", op.Number, op.HeadBranch)
		}
	}
	return nil
}

// allocateBranch derives the branch name for a position, bumping a numeric
// suffix when the name is already taken by another request or a leftover
// remote branch.
func allocateBranch(rt *runtime.Context, remote, owner, stackID string, position int, used map[string]bool) string {
	name := stack.BranchName(owner, stackID, position)
	candidate := name
	for bump := 1; ; bump++ {
		_, exists := rt.Repo.RemoteBranchSHA(remote, candidate)
		if !used[candidate] && !exists {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", name, bump)
	}
}

// embedMetadata rewrites the commit chain so every message carries the
// current trailer. The rewrite is a single pass over the whole range and a
// no-op when every trailer is already current, which keeps a repeated
// submit from touching the repository at all.
func embedMetadata(ctx context.Context, rt *runtime.Context, opts Options,
	entries []*stack.Entry, stackID, currentBranch string) error {

	rewrites := make([]git.RewrittenCommit, 0, len(entries))
	changed := false
	for _, e := range entries {
		meta := stack.Metadata{StackID: stackID, PRNumber: e.ReviewNumber()}
		message := stack.AppendMetadata(e.Commit.Message, meta)
		if message != e.Commit.Message {
			changed = true
		}
		rewrites = append(rewrites, git.RewrittenCommit{Commit: e.Commit, Message: message})
	}
	if !changed {
		return nil
	}

	headBranch := rewriteTargetBranch(rt, opts, currentBranch)
	if headBranch == "" {
		rt.Splog.Warn("not on a branch, commit metadata stays local to this run")
	}
	newSHAs, err := rt.Repo.RewriteMessages(ctx, rewrites, headBranch)
	if err != nil {
		return err
	}
	for i, e := range entries {
		e.Commit.SHA = newSHAs[i]
		e.Commit.Message = rewrites[i].Message
		if i > 0 {
			e.Commit.ParentSHA = newSHAs[i-1]
		}
	}
	return nil
}

// rewriteTargetBranch names the local branch the rewritten chain should
// land on: the head flag when it is a branch, otherwise the branch the user
// is on.
func rewriteTargetBranch(rt *runtime.Context, opts Options, currentBranch string) string {
	if opts.Head != "HEAD" && rt.Repo.BranchExists(opts.Head) {
		return opts.Head
	}
	return currentBranch
}

// pushBranches force-pushes every branch whose remote tip differs from the
// local commit, in one batched push. On an already-synchronized stack the
// batch is empty and nothing is pushed.
func pushBranches(ctx context.Context, rt *runtime.Context, remote string, entries []*stack.Entry) error {
	refspecs := make(map[string]string)
	for _, e := range entries {
		if e.Review == nil {
			continue
		}
		if sha, ok := rt.Repo.RemoteBranchSHA(remote, e.Review.HeadBranch); ok && sha == e.Commit.SHA {
			continue
		}
		refspecs[e.Review.HeadBranch] = e.Commit.SHA
	}
	if err := rt.Repo.PushCommits(ctx, remote, refspecs); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Review != nil {
			e.Review.HeadSHA = e.Commit.SHA
		}
	}
	return nil
}

// refreshBodies regenerates the cross-linking table of contents on every
// pull request body. This runs last, once every entry knows its number, and
// only touches requests whose rendered body actually differs.
func refreshBodies(ctx context.Context, rt *runtime.Context, entries []*stack.Entry) error {
	for _, e := range entries {
		if e.Review == nil {
			continue
		}
		toc := stack.RenderTOC(entries, e.ReviewNumber())
		body := stack.RenderReviewBody(e, toc)
		if body == e.Review.Body {
			continue
		}
		update := github.UpdatePROptions{Body: &body}
		if err := rt.GitHub.UpdatePullRequest(ctx, e.Review.Number, update); err != nil {
			return err
		}
		e.Review.Body = body
	}
	return nil
}

package stack

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/output"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// Resolver joins entries with the remote state of their pull requests.
type Resolver struct {
	GitHub github.Client
	Repo   *git.Repo
	Remote string
	Splog  *output.Splog
}

// Resolve fetches the pull request for every entry carrying metadata and
// fills in its ReviewInfo. Fetches run concurrently, entries are
// independent. A request that vanished out-of-band is downgraded to a
// warning and the entry is left unresolved, to be re-created fresh.
//
// Resolution is read-only: base branch mismatches are recorded on the
// ReviewInfo and acted on later by the synchronizer.
func (r *Resolver) Resolve(ctx context.Context, entries []*Entry) error {
	var wg sync.WaitGroup
	errs := make([]error, len(entries))

	for i, e := range entries {
		if e.Metadata == nil || e.Metadata.PRNumber == 0 {
			continue
		}
		wg.Add(1)
		go func(i int, e *Entry) {
			defer wg.Done()
			pr, err := r.GitHub.GetPullRequest(ctx, e.Metadata.PRNumber)
			if err != nil {
				if errors.Is(err, stackprerrors.ErrRemoteNotFound) {
					r.Splog.Warn("pull request #%d for commit %s no longer exists, it will be re-created",
						e.Metadata.PRNumber, e.Commit.SHA[:8])
					return
				}
				errs[i] = err
				return
			}
			e.Review = NewReviewInfo(pr)
		}(i, e)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("failed to resolve stack: %w", err)
		}
	}

	// Diff comparison needs the remote objects locally, callers fetch
	// before resolving.
	for _, e := range entries {
		if !e.HasOpenReview() {
			continue
		}
		changed, err := r.diffChanged(ctx, e)
		if err != nil {
			r.Splog.Debug("diff comparison for %s failed, assuming changed: %v", e.Commit.SHA[:8], err)
			changed = true
		}
		e.Review.DiffChanged = changed
	}
	return nil
}

// diffChanged reports whether the local commit carries a different change
// than the remote branch head. Identical SHAs short-circuit; otherwise the
// patch ids are compared so that a pure rebase does not count as a change.
func (r *Resolver) diffChanged(ctx context.Context, e *Entry) (bool, error) {
	if e.Review.HeadSHA == e.Commit.SHA {
		return false, nil
	}
	localID, err := r.Repo.PatchID(ctx, e.Commit.SHA)
	if err != nil {
		return true, err
	}
	remoteID, err := r.Repo.PatchID(ctx, e.Review.HeadSHA)
	if err != nil {
		return true, err
	}
	return localID != remoteID, nil
}

// TrackedRequests returns every open pull request the stack identifier owns
// on the hosting side, including ones whose commits no longer appear in the
// local range. This is the only way dropped or squashed commits are
// discovered.
func TrackedRequests(ctx context.Context, gh github.Client, owner, stackID string) ([]*ReviewInfo, error) {
	prs, err := gh.ListOpenPullRequests(ctx, BranchPrefix(owner, stackID))
	if err != nil {
		return nil, err
	}
	tracked := make([]*ReviewInfo, 0, len(prs))
	for _, pr := range prs {
		tracked = append(tracked, NewReviewInfo(pr))
	}
	return tracked, nil
}

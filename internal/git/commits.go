package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// Commit is one commit read from the repository. The fields carry everything
// needed to recreate the commit with a different message.
type Commit struct {
	SHA         string
	TreeSHA     string
	ParentSHA   string
	AuthorName  string
	AuthorEmail string
	AuthorDate  string // RFC 2822, as git env vars expect
	Message     string // full message, title line included
}

// Title returns the first line of the commit message.
func (c Commit) Title() string {
	title, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(title)
}

// Body returns the message with the title line and its separating blank line
// stripped.
func (c Commit) Body() string {
	_, body, ok := strings.Cut(c.Message, "\n")
	if !ok {
		return ""
	}
	return strings.TrimPrefix(body, "\n")
}

// CommitsBetween returns the commits reachable from head but not base,
// oldest first. The range must be linear: base must be an ancestor of head
// and every commit in between must have a single parent. A RangeError is
// returned otherwise, or when either ref does not resolve.
func (r *Repo) CommitsBetween(ctx context.Context, base, head string) ([]Commit, error) {
	baseSHA, err := r.ResolveRevision(base)
	if err != nil {
		return nil, stackprerrors.NewRangeError(base, head, err.Error())
	}
	headSHA, err := r.ResolveRevision(head)
	if err != nil {
		return nil, stackprerrors.NewRangeError(base, head, err.Error())
	}

	if baseSHA == headSHA {
		return nil, nil
	}

	ok, err := r.IsAncestor(ctx, baseSHA, headSHA)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, stackprerrors.NewRangeError(base, head, fmt.Sprintf("%s is not an ancestor of %s", base, head))
	}

	var commits []Commit
	cur := headSHA
	for cur != baseSHA {
		obj, err := r.repo.CommitObject(plumbing.NewHash(cur))
		if err != nil {
			return nil, fmt.Errorf("failed to read commit %s: %w", cur, err)
		}
		if obj.NumParents() != 1 {
			return nil, stackprerrors.NewRangeError(base, head,
				fmt.Sprintf("commit %s has %d parents, stacks must be linear", cur[:8], obj.NumParents()))
		}
		commits = append(commits, toCommit(obj))
		cur = obj.ParentHashes[0].String()
	}

	// Walked newest to oldest, flip to stack order.
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}

func toCommit(obj *object.Commit) Commit {
	return Commit{
		SHA:         obj.Hash.String(),
		TreeSHA:     obj.TreeHash.String(),
		ParentSHA:   obj.ParentHashes[0].String(),
		AuthorName:  obj.Author.Name,
		AuthorEmail: obj.Author.Email,
		AuthorDate:  obj.Author.When.Format("Mon, 02 Jan 2006 15:04:05 -0700"),
		Message:     obj.Message,
	}
}

// PatchID returns the stable patch id of a commit's diff, used to decide
// whether a rebased commit still carries the same change.
func (r *Repo) PatchID(ctx context.Context, sha string) (string, error) {
	diff, err := r.runner.RunRaw(ctx, "diff-tree", "-p", sha)
	if err != nil {
		return "", err
	}
	out, err := r.runner.RunWithInput(ctx, diff, "patch-id", "--stable")
	if err != nil {
		return "", err
	}
	// Output is "<patch-id> <commit-id>"; an empty diff produces no output.
	id, _, _ := strings.Cut(out, " ")
	return id, nil
}

// RewrittenCommit pairs an original commit with its replacement message.
type RewrittenCommit struct {
	Commit  Commit
	Message string
}

// RewriteMessages recreates the commit chain with new messages in a single
// pass. Trees, authors and author dates are preserved; only messages change.
// The first commit's parent stays as is, every later commit is reparented on
// the previous rewritten one. When headBranch names a local branch it is
// repointed at the new tip. Returns the new SHAs in input order.
//
// Worktree and index stay valid because every rewritten commit reuses the
// original tree.
func (r *Repo) RewriteMessages(ctx context.Context, rewrites []RewrittenCommit, headBranch string) ([]string, error) {
	if len(rewrites) == 0 {
		return nil, nil
	}

	newSHAs := make([]string, 0, len(rewrites))
	parent := rewrites[0].Commit.ParentSHA
	for _, rw := range rewrites {
		env := []string{
			"GIT_AUTHOR_NAME=" + rw.Commit.AuthorName,
			"GIT_AUTHOR_EMAIL=" + rw.Commit.AuthorEmail,
			"GIT_AUTHOR_DATE=" + rw.Commit.AuthorDate,
			"GIT_COMMITTER_NAME=" + rw.Commit.AuthorName,
			"GIT_COMMITTER_EMAIL=" + rw.Commit.AuthorEmail,
			"GIT_COMMITTER_DATE=" + rw.Commit.AuthorDate,
		}
		sha, err := r.runner.RunWithInputAndEnv(ctx, rw.Message,
			env, "commit-tree", rw.Commit.TreeSHA, "-p", parent, "-F", "-")
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite commit %s: %w", rw.Commit.SHA[:8], err)
		}
		newSHAs = append(newSHAs, sha)
		parent = sha
	}

	if headBranch != "" && r.BranchExists(headBranch) {
		tip := newSHAs[len(newSHAs)-1]
		if _, err := r.runner.Run(ctx, "update-ref", "refs/heads/"+headBranch, tip); err != nil {
			return nil, fmt.Errorf("failed to move %s to rewritten tip: %w", headBranch, err)
		}
	}
	return newSHAs, nil
}

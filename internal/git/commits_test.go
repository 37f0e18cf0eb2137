package git_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/testhelpers"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

func newRepo(t *testing.T) (*testhelpers.GitRepo, *git.Repo) {
	t.Helper()
	scratch, err := testhelpers.NewGitRepo(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, scratch.CommitFile("README.md", "hello\n", "Initial commit"))
	repo, err := git.Open(scratch.Dir)
	require.NoError(t, err)
	return scratch, repo
}

func TestCommitsBetween(t *testing.T) {
	ctx := context.Background()
	scratch, repo := newRepo(t)

	require.NoError(t, scratch.CreateAndCheckoutBranch("feature"))
	require.NoError(t, scratch.CommitFile("a.txt", "a\n", "First change"))
	require.NoError(t, scratch.CommitFile("b.txt", "b\n", "Second change"))
	require.NoError(t, scratch.CommitFile("c.txt", "c\n", "Third change"))

	t.Run("oldest first with linked parents", func(t *testing.T) {
		commits, err := repo.CommitsBetween(ctx, "main", "HEAD")
		require.NoError(t, err)
		require.Len(t, commits, 3)
		require.Equal(t, "First change", commits[0].Title())
		require.Equal(t, "Second change", commits[1].Title())
		require.Equal(t, "Third change", commits[2].Title())
		require.Equal(t, commits[0].SHA, commits[1].ParentSHA)
		require.Equal(t, commits[1].SHA, commits[2].ParentSHA)
	})

	t.Run("empty range", func(t *testing.T) {
		commits, err := repo.CommitsBetween(ctx, "HEAD", "HEAD")
		require.NoError(t, err)
		require.Empty(t, commits)
	})

	t.Run("unknown base", func(t *testing.T) {
		_, err := repo.CommitsBetween(ctx, "no-such-branch", "HEAD")
		require.ErrorIs(t, err, stackprerrors.ErrBadRange)
	})

	t.Run("base not an ancestor", func(t *testing.T) {
		_, err := repo.CommitsBetween(ctx, "feature", "main")
		require.ErrorIs(t, err, stackprerrors.ErrBadRange)
	})

	t.Run("merge commits are rejected", func(t *testing.T) {
		require.NoError(t, scratch.CreateAndCheckoutBranch("side"))
		require.NoError(t, scratch.CommitFile("d.txt", "d\n", "Side change"))
		require.NoError(t, scratch.CheckoutBranch("feature"))
		require.NoError(t, scratch.Git("merge", "--no-ff", "-m", "Merge side", "side"))
		defer func() {
			require.NoError(t, scratch.Git("reset", "--hard", "HEAD~1"))
		}()

		_, err := repo.CommitsBetween(ctx, "main", "feature")
		require.ErrorIs(t, err, stackprerrors.ErrBadRange)
	})
}

func TestRewriteMessages(t *testing.T) {
	ctx := context.Background()
	scratch, repo := newRepo(t)

	require.NoError(t, scratch.CreateAndCheckoutBranch("feature"))
	require.NoError(t, scratch.CommitFile("a.txt", "a\n", "First change"))
	require.NoError(t, scratch.CommitFile("b.txt", "b\n", "Second change"))

	commits, err := repo.CommitsBetween(ctx, "main", "feature")
	require.NoError(t, err)

	rewrites := []git.RewrittenCommit{
		{Commit: commits[0], Message: "First change\n\nextra: one\n"},
		{Commit: commits[1], Message: "Second change\n\nextra: two\n"},
	}
	newSHAs, err := repo.RewriteMessages(ctx, rewrites, "feature")
	require.NoError(t, err)
	require.Len(t, newSHAs, 2)
	require.NotEqual(t, commits[0].SHA, newSHAs[0])

	t.Run("branch points at the rewritten tip", func(t *testing.T) {
		tip, err := scratch.Head()
		require.NoError(t, err)
		require.Equal(t, newSHAs[1], tip)
	})

	t.Run("messages changed, trees and authors did not", func(t *testing.T) {
		rewritten, err := repo.CommitsBetween(ctx, "main", "feature")
		require.NoError(t, err)
		require.Len(t, rewritten, 2)
		for i, c := range rewritten {
			require.Equal(t, rewrites[i].Message, c.Message)
			require.Equal(t, commits[i].TreeSHA, c.TreeSHA)
			require.Equal(t, commits[i].AuthorName, c.AuthorName)
			require.Equal(t, commits[i].AuthorDate, c.AuthorDate)
		}
	})

	t.Run("worktree stays clean", func(t *testing.T) {
		clean, err := repo.IsClean(ctx)
		require.NoError(t, err)
		require.True(t, clean)
	})
}

func TestPatchID(t *testing.T) {
	ctx := context.Background()
	scratch, repo := newRepo(t)

	require.NoError(t, scratch.CreateAndCheckoutBranch("feature"))
	require.NoError(t, scratch.CommitFile("a.txt", "a\n", "First change"))
	first, err := scratch.Head()
	require.NoError(t, err)

	// Rebase the same patch onto a moved main.
	require.NoError(t, scratch.CheckoutBranch("main"))
	require.NoError(t, scratch.CommitFile("other.txt", "x\n", "Unrelated change"))
	require.NoError(t, scratch.CheckoutBranch("feature"))
	require.NoError(t, scratch.Git("rebase", "main"))
	rebased, err := scratch.Head()
	require.NoError(t, err)
	require.NotEqual(t, first, rebased)

	idBefore, err := repo.PatchID(ctx, first)
	require.NoError(t, err)
	idAfter, err := repo.PatchID(ctx, rebased)
	require.NoError(t, err)
	require.Equal(t, idBefore, idAfter)

	require.NoError(t, scratch.AmendFile("a.txt", "a changed\n"))
	amended, err := scratch.Head()
	require.NoError(t, err)
	idAmended, err := repo.PatchID(ctx, amended)
	require.NoError(t, err)
	require.NotEqual(t, idBefore, idAmended)
}

func TestCommitTitleBody(t *testing.T) {
	c := git.Commit{Message: "Title line\n\nBody first line.\nBody second line.\n"}
	require.Equal(t, "Title line", c.Title())
	require.Equal(t, "Body first line.\nBody second line.\n", c.Body())
	require.True(t, strings.HasPrefix(c.Message, c.Title()))

	bare := git.Commit{Message: "Only a title"}
	require.Equal(t, "Only a title", bare.Title())
	require.Equal(t, "", bare.Body())
}

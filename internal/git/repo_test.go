package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsClean(t *testing.T) {
	ctx := context.Background()
	scratch, repo := newRepo(t)

	clean, err := repo.IsClean(ctx)
	require.NoError(t, err)
	require.True(t, clean)

	t.Run("untracked files do not count", func(t *testing.T) {
		require.NoError(t, scratch.WriteFile("scratch.txt", "wip\n"))
		clean, err := repo.IsClean(ctx)
		require.NoError(t, err)
		require.True(t, clean)
	})

	t.Run("modified tracked files do", func(t *testing.T) {
		require.NoError(t, scratch.WriteFile("README.md", "changed\n"))
		clean, err := repo.IsClean(ctx)
		require.NoError(t, err)
		require.False(t, clean)

		require.NoError(t, scratch.Git("checkout", "--", "README.md"))
	})
}

func TestIsAncestor(t *testing.T) {
	ctx := context.Background()
	scratch, repo := newRepo(t)

	require.NoError(t, scratch.CreateAndCheckoutBranch("feature"))
	require.NoError(t, scratch.CommitFile("a.txt", "a\n", "First change"))

	ok, err := repo.IsAncestor(ctx, "main", "feature")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.IsAncestor(ctx, "feature", "main")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBranches(t *testing.T) {
	scratch, repo := newRepo(t)

	require.True(t, repo.BranchExists("main"))
	require.False(t, repo.BranchExists("nope"))

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	require.Equal(t, "main", branch)

	require.NoError(t, scratch.CreateAndCheckoutBranch("feature"))
	branch, err = repo.CurrentBranch()
	require.NoError(t, err)
	require.Equal(t, "feature", branch)
}

package land_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"stackpr.dev/stackpr/internal/actions"
	"stackpr.dev/stackpr/internal/actions/land"
	"stackpr.dev/stackpr/internal/actions/submit"
	"stackpr.dev/stackpr/testhelpers"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

func commonOptions() actions.CommonOptions {
	return actions.CommonOptions{
		Base:   "main",
		Head:   "HEAD",
		Remote: "origin",
		Target: "main",
	}
}

func submitStack(t *testing.T, sc *testhelpers.Scene, messages ...string) {
	t.Helper()
	sc.CommitStack(t, "feature", messages...)
	require.NoError(t, submit.Run(context.Background(), sc.Runtime, submit.Options{CommonOptions: commonOptions()}))
}

func TestLandWholeStack(t *testing.T) {
	ctx := context.Background()
	sc := testhelpers.NewScene(t)
	submitStack(t, sc, "First change", "Second change", "Third change")

	require.NoError(t, land.Run(ctx, sc.Runtime, land.Options{CommonOptions: commonOptions(), Yes: true}))

	t.Run("every request squash-merged in order", func(t *testing.T) {
		for n := 1; n <= 3; n++ {
			pr, ok := sc.GitHub.PR(n)
			require.True(t, ok)
			require.True(t, pr.Merged, "pull request #%d", n)
		}
		log, err := sc.RemoteRepo.GitOutput("log", "--format=%s", "main")
		require.NoError(t, err)
		require.Equal(t,
			"Third change (#3)\nSecond change (#2)\nFirst change (#1)\nInitial commit", log)
	})

	t.Run("merge commits carry no metadata", func(t *testing.T) {
		body, err := sc.RemoteRepo.GitOutput("log", "-3", "--format=%B", "main")
		require.NoError(t, err)
		require.NotContains(t, body, "stack-pr:")
	})

	t.Run("stack branches deleted on the remote", func(t *testing.T) {
		for n := 1; n <= 3; n++ {
			pr, _ := sc.GitHub.PR(n)
			require.Empty(t, sc.RemoteRepo.BranchSHA(pr.HeadBranch))
		}
	})

	t.Run("working branch rebased onto the result", func(t *testing.T) {
		branch, err := sc.Runtime.Repo.CurrentBranch()
		require.NoError(t, err)
		require.Equal(t, "feature", branch)

		local, err := sc.Repo.Head()
		require.NoError(t, err)
		require.Equal(t, sc.RemoteRepo.BranchSHA("main"), local)
	})
}

func TestLandWithInterleavedWork(t *testing.T) {
	ctx := context.Background()
	sc := testhelpers.NewScene(t)
	submitStack(t, sc, "First change", "Second change")

	// Someone else merges to the integration branch after our submit.
	require.NoError(t, sc.Repo.Git("checkout", "-b", "other", "main"))
	require.NoError(t, sc.Repo.CommitFile("unrelated.txt", "x\n", "Unrelated work"))
	require.NoError(t, sc.Repo.Git("push", "origin", "other:main"))
	require.NoError(t, sc.Repo.CheckoutBranch("feature"))

	require.NoError(t, land.Run(ctx, sc.Runtime, land.Options{CommonOptions: commonOptions(), Yes: true}))

	log, err := sc.RemoteRepo.GitOutput("log", "--format=%s", "main")
	require.NoError(t, err)
	require.Equal(t,
		"Second change (#2)\nFirst change (#1)\nUnrelated work\nInitial commit", log)

	// The landed tree carries both lines of work.
	_, err = sc.RemoteRepo.GitOutput("cat-file", "-e", "main:unrelated.txt")
	require.NoError(t, err)
	_, err = sc.RemoteRepo.GitOutput("cat-file", "-e", "main:src/feature/b.txt")
	require.NoError(t, err)
}

func TestLandHaltsOnFailure(t *testing.T) {
	ctx := context.Background()
	sc := testhelpers.NewScene(t)
	submitStack(t, sc, "First change", "Second change", "Third change")

	// The first merge succeeds, then the hosting system starts rejecting.
	sc.GitHub.FailAfterMerges(1, errors.New("merge queue unavailable"))

	err := land.Run(ctx, sc.Runtime, land.Options{CommonOptions: commonOptions(), Yes: true})
	require.ErrorIs(t, err, stackprerrors.ErrMergeRejected)

	t.Run("landed requests stand", func(t *testing.T) {
		pr1, _ := sc.GitHub.PR(1)
		require.True(t, pr1.Merged)
	})

	t.Run("remaining requests stay open", func(t *testing.T) {
		pr2, _ := sc.GitHub.PR(2)
		pr3, _ := sc.GitHub.PR(3)
		require.Equal(t, "open", pr2.State)
		require.False(t, pr2.Merged)
		require.Equal(t, "open", pr3.State)
	})

	t.Run("user is back on the working branch", func(t *testing.T) {
		branch, err := sc.Runtime.Repo.CurrentBranch()
		require.NoError(t, err)
		require.Equal(t, "feature", branch)
	})
}

func TestLandRequiresSubmittedStack(t *testing.T) {
	ctx := context.Background()
	sc := testhelpers.NewScene(t)
	sc.CommitStack(t, "feature", "First change")

	err := land.Run(ctx, sc.Runtime, land.Options{CommonOptions: commonOptions(), Yes: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "run submit first")
}

func TestLandOutOfDateStack(t *testing.T) {
	ctx := context.Background()
	sc := testhelpers.NewScene(t)
	submitStack(t, sc, "First change")
	require.NoError(t, sc.Repo.AmendFile("src/feature/a.txt", "newer\n"))

	err := land.Run(ctx, sc.Runtime, land.Options{CommonOptions: commonOptions(), Yes: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "run submit first")
}

package testhelpers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/output"
	"stackpr.dev/stackpr/internal/runtime"
)

// Scene is a complete test fixture: a local repository with one commit on
// main, a bare origin remote and a fake hosting client tracking it.
type Scene struct {
	Repo       *GitRepo
	RemoteRepo *GitRepo
	GitHub     *FakeGitHub
	Runtime    *runtime.Context
}

// NewScene builds the fixture under t.TempDir. The local repository starts
// on main with an initial commit that is already pushed.
func NewScene(t *testing.T) *Scene {
	t.Helper()
	output.SetColorEnabled(false)

	dir := t.TempDir()
	local, err := NewGitRepo(filepath.Join(dir, "local"))
	require.NoError(t, err)
	remote, err := NewBareRepo(filepath.Join(dir, "remote.git"))
	require.NoError(t, err)

	require.NoError(t, local.CommitFile("README.md", "hello\n", "Initial commit"))
	require.NoError(t, local.AddRemote("origin", remote))
	require.NoError(t, local.Git("push", "origin", "main"))

	gh := NewFakeGitHub()
	gh.Remote = remote

	repo, err := git.Open(local.Dir)
	require.NoError(t, err)

	return &Scene{
		Repo:       local,
		RemoteRepo: remote,
		GitHub:     gh,
		Runtime: &runtime.Context{
			Repo:   repo,
			GitHub: gh,
			Splog:  output.NewSplog(),
			Remote: "origin",
		},
	}
}

// CommitStack creates one commit per message on a new feature branch and
// returns with the branch checked out.
func (s *Scene) CommitStack(t *testing.T, branch string, messages ...string) {
	t.Helper()
	require.NoError(t, s.Repo.CreateAndCheckoutBranch(branch))
	for i, msg := range messages {
		name := filepath.Join("src", branch, filenameFor(i))
		require.NoError(t, s.Repo.CommitFile(name, msg+"\n", msg))
	}
}

func filenameFor(i int) string {
	return string(rune('a'+i)) + ".txt"
}

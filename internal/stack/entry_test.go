package stack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stackpr.dev/stackpr/internal/git"
)

func TestNewEntries(t *testing.T) {
	commits := []git.Commit{
		{SHA: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Message: "First\n\nstack-pr: id=cafe0042 pr=#3\n"},
		{SHA: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Message: "Second\n"},
	}
	entries := NewEntries(commits)
	require.Len(t, entries, 2)
	require.Equal(t, 1, entries[0].Position)
	require.Equal(t, 2, entries[1].Position)
	require.NotNil(t, entries[0].Metadata)
	require.Equal(t, 3, entries[0].Metadata.PRNumber)
	require.Nil(t, entries[1].Metadata)
}

func TestRecoverStackID(t *testing.T) {
	t.Run("recovers from any entry", func(t *testing.T) {
		entries := []*Entry{
			{Commit: git.Commit{Message: "First\n"}},
			{Commit: git.Commit{Message: "Second\n"}, Metadata: &Metadata{StackID: "cafe0042"}},
		}
		require.Equal(t, "cafe0042", RecoverStackID(entries))
	})

	t.Run("allocates when nothing is recorded", func(t *testing.T) {
		entries := []*Entry{{Commit: git.Commit{Message: "First\n"}}}
		id := RecoverStackID(entries)
		require.Regexp(t, "^[0-9a-f]{8}$", id)
	})
}

func TestBranchName(t *testing.T) {
	require.Equal(t, "alice/stack/cafe0042/3", BranchName("alice", "cafe0042", 3))
	require.Equal(t, "alice/stack/cafe0042/", BranchPrefix("alice", "cafe0042"))

	// Every branch of a stack is found by its prefix.
	for pos := 1; pos <= 12; pos++ {
		name := BranchName("alice", "cafe0042", pos)
		require.True(t, len(name) > len(BranchPrefix("alice", "cafe0042")))
		require.Equal(t, BranchPrefix("alice", "cafe0042"), name[:len(BranchPrefix("alice", "cafe0042"))])
	}
}

func TestRenderTOC(t *testing.T) {
	e1 := testEntry(1, "First", 1, "main")
	e2 := testEntry(2, "Second", 2, e1.Review.HeadBranch)
	e3 := testEntry(3, "Third", 0, "")
	entries := []*Entry{e1, e2, e3}

	toc := RenderTOC(entries, 2)
	require.Equal(t, "Stacked PRs:\n * __->__#2\n * #1\n\n", toc)
	require.Equal(t, "", StripTOC(toc))

	body := RenderReviewBody(e2, toc)
	require.Contains(t, body, "### Second")
	require.Equal(t, StripTOC(body), RenderReviewBody(e2, ""))
}

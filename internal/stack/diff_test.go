package stack

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"stackpr.dev/stackpr/internal/git"
)

// testEntry builds an entry at a position. A non-zero prNumber attaches an
// open review that matches the entry exactly, as if a previous submit just
// finished: same title, rendered body, commit SHA and correct base link.
func testEntry(pos int, title string, prNumber int, baseBranch string) *Entry {
	sha := fmt.Sprintf("%040d", pos)
	e := &Entry{
		Commit:   git.Commit{SHA: sha, Message: title + "\n"},
		Position: pos,
	}
	if prNumber > 0 {
		e.Metadata = &Metadata{StackID: "cafe0042", PRNumber: prNumber}
		e.Review = &ReviewInfo{
			Number:     prNumber,
			State:      ReviewOpen,
			Title:      title,
			Body:       RenderReviewBody(e, "Stacked PRs:\n * #1\n\n"),
			HeadBranch: fmt.Sprintf("alice/stack/cafe0042/%d", pos),
			BaseBranch: baseBranch,
			HeadSHA:    sha,
		}
	}
	return e
}

func kinds(ops []Op) []OpKind {
	out := make([]OpKind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}

func TestDiff(t *testing.T) {
	t.Run("fresh stack creates everything", func(t *testing.T) {
		entries := []*Entry{
			testEntry(1, "First", 0, ""),
			testEntry(2, "Second", 0, ""),
			testEntry(3, "Third", 0, ""),
		}
		ops := Diff(entries, nil, "main")
		require.Equal(t, []OpKind{OpCreate, OpCreate, OpCreate}, kinds(ops))
	})

	t.Run("unchanged stack keeps everything", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		e2 := testEntry(2, "Second", 2, e1.Review.HeadBranch)
		e3 := testEntry(3, "Third", 3, e2.Review.HeadBranch)
		ops := Diff([]*Entry{e1, e2, e3}, nil, "main")
		require.Equal(t, []OpKind{OpKeep, OpKeep, OpKeep}, kinds(ops))
	})

	t.Run("amended middle commit updates only itself", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		e2 := testEntry(2, "Second", 2, e1.Review.HeadBranch)
		e3 := testEntry(3, "Third", 3, e2.Review.HeadBranch)
		// The amend changed the patch of the middle entry; the children were
		// rebased but carry the same patches, which the resolver already
		// established.
		e2.Review.DiffChanged = true
		e3.Commit.SHA = "f" + e3.Commit.SHA[1:]
		ops := Diff([]*Entry{e1, e2, e3}, nil, "main")
		require.Equal(t, []OpKind{OpKeep, OpUpdate, OpKeep}, kinds(ops))
	})

	t.Run("swapped neighbors update both", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		e2 := testEntry(2, "Second", 2, e1.Review.HeadBranch)
		e3 := testEntry(3, "Third", 3, e2.Review.HeadBranch)
		// Order is now e1, e3, e2: both moved entries must re-link their
		// base, the bottom one stays put.
		ops := Diff([]*Entry{e1, e3, e2}, nil, "main")
		require.Equal(t, []OpKind{OpKeep, OpUpdate, OpUpdate}, kinds(ops))
	})

	t.Run("closed review is re-created", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		e1.Review.State = ReviewClosed
		e2 := testEntry(2, "Second", 2, e1.Review.HeadBranch)
		ops := Diff([]*Entry{e1, e2}, nil, "main")
		// The entry above cannot trust its base link until the new branch
		// exists, so it updates too.
		require.Equal(t, []OpKind{OpCreate, OpUpdate}, kinds(ops))
	})

	t.Run("title change updates", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		e1.Commit.Message = "First, reworded\n"
		ops := Diff([]*Entry{e1}, nil, "main")
		require.Equal(t, []OpKind{OpUpdate}, kinds(ops))
	})

	t.Run("draft request updates", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		draft := true
		e1.DesiredDraft = &draft
		ops := Diff([]*Entry{e1}, nil, "main")
		require.Equal(t, []OpKind{OpUpdate}, kinds(ops))
	})

	t.Run("matching draft request keeps", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		e1.Review.Draft = true
		draft := true
		e1.DesiredDraft = &draft
		ops := Diff([]*Entry{e1}, nil, "main")
		require.Equal(t, []OpKind{OpKeep}, kinds(ops))
	})

	t.Run("unclaimed tracked request is closed", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		orphan := &ReviewInfo{Number: 9, State: ReviewOpen, HeadBranch: "alice/stack/cafe0042/3"}
		ops := Diff([]*Entry{e1}, []*ReviewInfo{orphan}, "main")
		require.Equal(t, []OpKind{OpKeep, OpClose}, kinds(ops))
		require.Equal(t, 9, ops[1].Number)
	})

	t.Run("table of contents does not count as a body change", func(t *testing.T) {
		e1 := testEntry(1, "First", 1, "main")
		e1.Review.Body = RenderReviewBody(e1, "Stacked PRs:\n * #7\n * __->__#1\n\n")
		ops := Diff([]*Entry{e1}, nil, "main")
		require.Equal(t, []OpKind{OpKeep}, kinds(ops))
	})
}

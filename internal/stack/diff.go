package stack

import "strings"

// OpKind classifies one edit operation produced by the differ.
type OpKind int

const (
	// OpKeep leaves the entry's branch and pull request untouched
	OpKeep OpKind = iota
	// OpUpdate force-updates the branch and/or re-links the pull request
	OpUpdate
	// OpCreate pushes a new branch and opens a new pull request
	OpCreate
	// OpClose closes a pull request whose commit vanished from the range
	OpClose
)

func (k OpKind) String() string {
	switch k {
	case OpKeep:
		return "keep"
	case OpUpdate:
		return "update"
	case OpCreate:
		return "create"
	case OpClose:
		return "close"
	}
	return "unknown"
}

// Op is one edit operation. Ops are consumed once, in order, by the
// synchronizer; they are never persisted.
type Op struct {
	Kind  OpKind
	Entry *Entry // nil for OpClose

	// Close target, recovered from the hosting system rather than the range.
	Number     int
	HeadBranch string
}

// Diff computes the minimal edit sequence transforming the previously-known
// stack shape into the newly-observed one. The previous shape is implicit:
// each entry's resolved review records where it was, and tracked holds every
// open pull request the stack identifier owns on the hosting side.
//
// Classification, in entry order:
//
//   - no metadata, vanished, closed or merged review: Create. A stale
//     reference is not reused; the entry is re-established fresh.
//   - open review with unchanged content, draft state and chain position:
//     Keep.
//   - open review otherwise: Update.
//
// Position changes surface through the base branch: entry i must target the
// branch of entry i-1 (or target for i=1). Swapping two adjacent submitted
// entries therefore yields two Updates, never a Keep, since both base links
// move. Tracked requests no entry claims become Close ops, appended after
// the entry ops.
func Diff(entries []*Entry, tracked []*ReviewInfo, target string) []Op {
	ops := make([]Op, 0, len(entries))

	prevBranch := target
	prevKnown := true
	for _, e := range entries {
		if !e.HasOpenReview() {
			ops = append(ops, Op{Kind: OpCreate, Entry: e})
			// The branch is allocated at apply time, so the next entry
			// cannot verify its base link yet.
			prevBranch, prevKnown = "", false
			continue
		}

		rv := e.Review
		changed := e.Title() != rv.Title ||
			!bodiesEqual(e, rv) ||
			rv.DiffChanged ||
			(e.DesiredDraft != nil && *e.DesiredDraft != rv.Draft)
		relinked := !prevKnown || rv.BaseBranch != prevBranch

		kind := OpKeep
		if changed || relinked {
			kind = OpUpdate
		}
		ops = append(ops, Op{Kind: kind, Entry: e})
		prevBranch, prevKnown = rv.HeadBranch, true
	}

	claimed := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Review != nil {
			claimed[e.Review.Number] = true
		}
	}
	for _, rv := range tracked {
		if rv.State != ReviewOpen || claimed[rv.Number] {
			continue
		}
		ops = append(ops, Op{Kind: OpClose, Number: rv.Number, HeadBranch: rv.HeadBranch})
	}

	return ops
}

// bodiesEqual compares the body the entry would render against the body on
// the pull request, ignoring the generated table of contents on both sides.
func bodiesEqual(e *Entry, rv *ReviewInfo) bool {
	want := strings.TrimRight(RenderReviewBody(e, ""), "\n")
	got := strings.TrimRight(StripTOC(rv.Body), "\n")
	return want == got
}

// Counts tallies the operations by kind, for reporting and idempotence
// checks.
func Counts(ops []Op) map[OpKind]int {
	counts := make(map[OpKind]int)
	for _, op := range ops {
		counts[op.Kind]++
	}
	return counts
}

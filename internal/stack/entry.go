package stack

import (
	"fmt"
	"strings"

	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/github"
)

// ReviewState is the lifecycle state of an entry's pull request.
type ReviewState string

const (
	// ReviewNone means no pull request exists for the entry
	ReviewNone ReviewState = "none"
	// ReviewOpen means the pull request is open
	ReviewOpen ReviewState = "open"
	// ReviewClosed means the pull request was closed without merging
	ReviewClosed ReviewState = "closed"
	// ReviewMerged means the pull request was merged
	ReviewMerged ReviewState = "merged"
)

// ReviewInfo is the resolved remote state of an entry's pull request,
// augmented with the comparison the resolver already performed against the
// local commit.
type ReviewInfo struct {
	Number     int
	State      ReviewState
	Title      string
	Body       string
	HeadBranch string
	BaseBranch string
	HeadSHA    string
	URL        string
	Draft      bool

	// DiffChanged is true when the local commit carries a different change
	// than the remote branch head.
	DiffChanged bool
}

// Entry is one managed unit of the stack: a commit joined with its decoded
// metadata and, after resolution, the state of its pull request. Entries are
// rebuilt from scratch on every invocation.
type Entry struct {
	Commit   git.Commit
	Metadata *Metadata // nil when the commit was never submitted
	Position int       // 1-based position in the current order
	Review   *ReviewInfo

	// DesiredDraft, when set, requests a specific draft state for the
	// entry's pull request (from --draft or --draft-bitmask).
	DesiredDraft *bool
}

// Title returns the commit title.
func (e *Entry) Title() string {
	return e.Commit.Title()
}

// Body returns the commit body with the metadata trailer stripped.
func (e *Entry) Body() string {
	return strings.TrimRight(StripMetadata(e.Commit.Body()), "\n")
}

// HasOpenReview reports whether the entry resolved to an open pull request.
func (e *Entry) HasOpenReview() bool {
	return e.Review != nil && e.Review.State == ReviewOpen
}

// String renders a short one-line description for logs.
func (e *Entry) String() string {
	pr := "no PR"
	if e.Review != nil {
		pr = fmt.Sprintf("#%d", e.Review.Number)
	} else if e.Metadata != nil && e.Metadata.PRNumber > 0 {
		pr = fmt.Sprintf("#%d?", e.Metadata.PRNumber)
	}
	return fmt.Sprintf("%s (%s): %s", e.Commit.SHA[:8], pr, e.Title())
}

// NewEntries builds the ordered entry list from an enumerated commit range,
// decoding each commit's metadata and assigning 1-based positions.
func NewEntries(commits []git.Commit) []*Entry {
	entries := make([]*Entry, 0, len(commits))
	for i, c := range commits {
		entries = append(entries, &Entry{
			Commit:   c,
			Metadata: ParseMetadata(c.Message),
			Position: i + 1,
		})
	}
	return entries
}

// RecoverStackID returns the stack identifier recorded on the entries, or
// allocates a new one when no entry carries metadata. All entries of one
// range share a single identifier.
func RecoverStackID(entries []*Entry) string {
	for _, e := range entries {
		if e.Metadata != nil && e.Metadata.StackID != "" {
			return e.Metadata.StackID
		}
	}
	return NewStackID()
}

// BranchName derives the remote branch name for a stack position. The name
// is a pure function of the owner, the stack identifier and the 1-based
// position; positions are recomputed from the current order on every run.
func BranchName(owner, stackID string, position int) string {
	return fmt.Sprintf("%s/stack/%s/%d", owner, stackID, position)
}

// BranchPrefix is the common prefix of all branch names of one stack, used
// to query the hosting system for every pull request the stack has ever
// created.
func BranchPrefix(owner, stackID string) string {
	return fmt.Sprintf("%s/stack/%s/", owner, stackID)
}

func NewReviewInfo(pr *github.PullRequestInfo) *ReviewInfo {
	state := ReviewState(pr.State)
	if pr.Merged {
		state = ReviewMerged
	}
	return &ReviewInfo{
		Number:     pr.Number,
		State:      state,
		Title:      pr.Title,
		Body:       pr.Body,
		HeadBranch: pr.HeadBranch,
		BaseBranch: pr.BaseBranch,
		HeadSHA:    pr.HeadSHA,
		URL:        pr.URL,
		Draft:      pr.Draft,
	}
}

package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"stackpr.dev/stackpr/internal/github"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// FakeGitHub is an in-memory github.Client. When a bare remote repository is
// attached, pull request head SHAs track the remote branch tips, so tests
// that push through real git observe the same state the hosting system
// would.
type FakeGitHub struct {
	mu         sync.Mutex
	Username   string
	Owner      string
	Repository string

	// Remote, when set, is the bare repository branch pushes land in.
	Remote *GitRepo

	prs        map[int]*github.PullRequestInfo
	reviewers  map[int][]string
	nextNumber int

	// mutations records every state-changing call, in order.
	mutations []string

	// FailOn maps a method name (Create, Update, Close, Merge) to an error
	// returned instead of performing the call.
	FailOn map[string]error

	mergeBudget int // -1 means unlimited
	mergeErr    error
}

// NewFakeGitHub returns an empty fake owned by testuser/repo.
func NewFakeGitHub() *FakeGitHub {
	return &FakeGitHub{
		Username:   "testuser",
		Owner:      "testuser",
		Repository: "repo",
		prs:        make(map[int]*github.PullRequestInfo),
		reviewers:  make(map[int][]string),
		nextNumber: 1,
		FailOn:     make(map[string]error),

		mergeBudget: -1,
	}
}

// FailAfterMerges lets the next n merges succeed and fails every merge after
// that with the given error.
func (f *FakeGitHub) FailAfterMerges(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergeBudget = n
	f.mergeErr = err
}

// Mutations returns the state-changing calls made so far.
func (f *FakeGitHub) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.mutations...)
}

// ResetMutations clears the recorded calls, typically between two runs of
// the action under test.
func (f *FakeGitHub) ResetMutations() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = nil
}

// PR returns a copy of a pull request's current state.
func (f *FakeGitHub) PR(number int) (github.PullRequestInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.prs[number]
	if !ok {
		return github.PullRequestInfo{}, false
	}
	f.refreshHeadSHA(pr)
	return *pr, true
}

// Reviewers returns the reviewers requested on a pull request.
func (f *FakeGitHub) Reviewers(number int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reviewers[number]...)
}

func (f *FakeGitHub) refreshHeadSHA(pr *github.PullRequestInfo) {
	if f.Remote == nil {
		return
	}
	if sha := f.Remote.BranchSHA(pr.HeadBranch); sha != "" {
		pr.HeadSHA = sha
	}
}

func (f *FakeGitHub) CurrentUsername(ctx context.Context) (string, error) {
	return f.Username, nil
}

func (f *FakeGitHub) GetOwnerRepo() (string, string) {
	return f.Owner, f.Repository
}

func (f *FakeGitHub) GetPullRequest(ctx context.Context, number int) (*github.PullRequestInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.prs[number]
	if !ok {
		return nil, stackprerrors.NewRemoteNotFoundError(number)
	}
	f.refreshHeadSHA(pr)
	out := *pr
	return &out, nil
}

func (f *FakeGitHub) ListOpenPullRequests(ctx context.Context, headPrefix string) ([]*github.PullRequestInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*github.PullRequestInfo
	for n := 1; n < f.nextNumber; n++ {
		pr, ok := f.prs[n]
		if !ok || pr.State != "open" {
			continue
		}
		if len(pr.HeadBranch) < len(headPrefix) || pr.HeadBranch[:len(headPrefix)] != headPrefix {
			continue
		}
		f.refreshHeadSHA(pr)
		cp := *pr
		out = append(out, &cp)
	}
	return out, nil
}

func (f *FakeGitHub) CreatePullRequest(ctx context.Context, opts github.CreatePROptions) (*github.PullRequestInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["Create"]; err != nil {
		return nil, err
	}
	number := f.nextNumber
	f.nextNumber++
	pr := &github.PullRequestInfo{
		Number:     number,
		Title:      opts.Title,
		Body:       opts.Body,
		State:      "open",
		Draft:      opts.Draft,
		HeadBranch: opts.Head,
		BaseBranch: opts.Base,
		URL:        fmt.Sprintf("https://github.com/%s/%s/pull/%d", f.Owner, f.Repository, number),
	}
	f.refreshHeadSHA(pr)
	f.prs[number] = pr
	f.reviewers[number] = append([]string(nil), opts.Reviewers...)
	f.mutations = append(f.mutations, fmt.Sprintf("create #%d head=%s base=%s", number, opts.Head, opts.Base))
	out := *pr
	return &out, nil
}

func (f *FakeGitHub) UpdatePullRequest(ctx context.Context, number int, opts github.UpdatePROptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["Update"]; err != nil {
		return err
	}
	pr, ok := f.prs[number]
	if !ok {
		return stackprerrors.NewRemoteNotFoundError(number)
	}
	fields := ""
	if opts.Title != nil {
		pr.Title = *opts.Title
		fields += " title"
	}
	if opts.Body != nil {
		pr.Body = *opts.Body
		fields += " body"
	}
	if opts.Base != nil {
		pr.BaseBranch = *opts.Base
		fields += " base=" + *opts.Base
	}
	if opts.Draft != nil {
		pr.Draft = *opts.Draft
		fields += fmt.Sprintf(" draft=%v", *opts.Draft)
	}
	f.mutations = append(f.mutations, fmt.Sprintf("update #%d%s", number, fields))
	return nil
}

func (f *FakeGitHub) ClosePullRequest(ctx context.Context, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["Close"]; err != nil {
		return err
	}
	pr, ok := f.prs[number]
	if !ok {
		return stackprerrors.NewRemoteNotFoundError(number)
	}
	pr.State = "closed"
	f.mutations = append(f.mutations, fmt.Sprintf("close #%d", number))
	return nil
}

// MergePullRequest squash-merges by committing the pull request's branch tip
// onto the target branch in the attached bare remote, so later rebases in
// the test see the integration branch advance.
func (f *FakeGitHub) MergePullRequest(ctx context.Context, number int, opts github.MergeOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["Merge"]; err != nil {
		return stackprerrors.NewMergeError(number, "merge rejected", err)
	}
	if f.mergeBudget == 0 {
		return stackprerrors.NewMergeError(number, "merge rejected", f.mergeErr)
	}
	if f.mergeBudget > 0 {
		f.mergeBudget--
	}
	pr, ok := f.prs[number]
	if !ok {
		return stackprerrors.NewRemoteNotFoundError(number)
	}
	if pr.State != "open" {
		return stackprerrors.NewMergeError(number, "pull request is not open", nil)
	}
	if f.Remote != nil {
		if err := f.squashOntoTarget(pr, opts); err != nil {
			return stackprerrors.NewMergeError(number, err.Error(), err)
		}
	}
	pr.State = "closed"
	pr.Merged = true
	f.mutations = append(f.mutations, fmt.Sprintf("merge #%d", number))
	return nil
}

// squashOntoTarget replays the branch tip onto the base branch as one commit
// using a temporary worktree of the bare remote.
func (f *FakeGitHub) squashOntoTarget(pr *github.PullRequestInfo, opts github.MergeOptions) error {
	f.refreshHeadSHA(pr)
	base := pr.BaseBranch
	baseSHA := f.Remote.BranchSHA(base)
	if baseSHA == "" {
		return fmt.Errorf("base branch %s does not exist", base)
	}
	tree, err := f.Remote.GitOutput("rev-parse", pr.HeadSHA+"^{tree}")
	if err != nil {
		return err
	}
	message := opts.CommitTitle
	if opts.CommitBody != "" {
		message += "\n\n" + opts.CommitBody
	}
	sha, err := f.Remote.GitOutput("commit-tree", tree, "-p", baseSHA, "-m", message)
	if err != nil {
		return err
	}
	return f.Remote.Git("update-ref", "refs/heads/"+base, sha)
}

var _ github.Client = (*FakeGitHub)(nil)

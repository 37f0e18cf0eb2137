// Package github provides a client for interacting with the GitHub API.
package github

import (
	"context"
)

// PullRequestInfo contains information about a pull request.
// This is a simplified struct to avoid coupling callers to the go-github
// library.
type PullRequestInfo struct {
	Number     int
	Title      string
	Body       string
	State      string // "open" or "closed"
	Merged     bool
	Draft      bool
	HeadBranch string
	BaseBranch string
	HeadSHA    string
	URL        string
}

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title     string
	Body      string
	Head      string
	Base      string
	Draft     bool
	Reviewers []string
}

// UpdatePROptions contains options for updating a pull request. Nil fields
// are left unchanged.
type UpdatePROptions struct {
	Title *string
	Body  *string
	Base  *string
	Draft *bool
}

// MergeOptions controls how a pull request is merged
type MergeOptions struct {
	// Strategy is one of "merge", "squash" or "rebase"
	Strategy    string
	CommitTitle string
	CommitBody  string
}

// Client is an interface for GitHub API interactions
type Client interface {
	// CurrentUsername returns the login of the authenticated user
	CurrentUsername(ctx context.Context) (string, error)

	// GetPullRequest fetches a pull request by number. Returns an error
	// matching errors.ErrRemoteNotFound when the request no longer exists.
	GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error)

	// ListOpenPullRequests lists open pull requests whose head branch starts
	// with the given prefix
	ListOpenPullRequests(ctx context.Context, headPrefix string) ([]*PullRequestInfo, error)

	// CreatePullRequest creates a new pull request
	CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequestInfo, error)

	// UpdatePullRequest updates an existing pull request
	UpdatePullRequest(ctx context.Context, number int, opts UpdatePROptions) error

	// ClosePullRequest closes a pull request without merging it
	ClosePullRequest(ctx context.Context, number int) error

	// MergePullRequest merges a pull request
	MergePullRequest(ctx context.Context, number int, opts MergeOptions) error

	// GetOwnerRepo returns the repository owner and name
	GetOwnerRepo() (owner, repo string)
}

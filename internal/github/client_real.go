package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	gogithub "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// RealClient implements Client using the real GitHub API
type RealClient struct {
	client *gogithub.Client
	owner  string
	repo   string
}

// NewRealClient creates a client authenticated from the environment,
// pointed at the repository the given remote URL names.
func NewRealClient(ctx context.Context, remoteURL string) (*RealClient, error) {
	token, err := getToken()
	if err != nil {
		return nil, err
	}

	owner, repo, err := parseRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &RealClient{
		client: gogithub.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

// getToken gets the GitHub token from the environment
func getToken() (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if token := os.Getenv("GH_TOKEN"); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("no GitHub token found, set GITHUB_TOKEN or GH_TOKEN")
}

// parseRemoteURL extracts owner and repository from a git remote URL.
// Handles both https and ssh formats:
//
//	https://github.com/owner/repo.git
//	git@github.com:owner/repo.git
func parseRemoteURL(url string) (string, string, error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), ".git")

	if at := strings.Index(url, "@"); at >= 0 {
		// SSH format
		_, path, ok := strings.Cut(url, ":")
		if !ok {
			return "", "", fmt.Errorf("invalid SSH remote URL %q", url)
		}
		url = path
	}

	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid remote URL %q", url)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// GetOwnerRepo returns the repository owner and name
func (c *RealClient) GetOwnerRepo() (string, string) {
	return c.owner, c.repo
}

// CurrentUsername returns the login of the authenticated user
func (c *RealClient) CurrentUsername(ctx context.Context) (string, error) {
	var login string
	err := withRetry(ctx, "get user", func() error {
		user, _, err := c.client.Users.Get(ctx, "")
		if err != nil {
			return err
		}
		login = user.GetLogin()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return login, nil
}

// GetPullRequest fetches a pull request by number
func (c *RealClient) GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error) {
	var info *PullRequestInfo
	err := withRetry(ctx, fmt.Sprintf("get PR #%d", number), func() error {
		pr, resp, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return stackprerrors.NewRemoteNotFoundError(number)
			}
			return err
		}
		info = toPullRequestInfo(pr)
		return nil
	})
	if err != nil {
		if errors.Is(err, stackprerrors.ErrRemoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}
	return info, nil
}

// ListOpenPullRequests lists open pull requests whose head branch starts
// with the given prefix
func (c *RealClient) ListOpenPullRequests(ctx context.Context, headPrefix string) ([]*PullRequestInfo, error) {
	var result []*PullRequestInfo
	opts := &gogithub.PullRequestListOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	for {
		var prs []*gogithub.PullRequest
		var resp *gogithub.Response
		err := withRetry(ctx, "list PRs", func() error {
			var err error
			prs, resp, err = c.client.PullRequests.List(ctx, c.owner, c.repo, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}
		for _, pr := range prs {
			if strings.HasPrefix(pr.GetHead().GetRef(), headPrefix) {
				result = append(result, toPullRequestInfo(pr))
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// CreatePullRequest creates a new pull request
func (c *RealClient) CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequestInfo, error) {
	pr := &gogithub.NewPullRequest{
		Title: gogithub.String(opts.Title),
		Head:  gogithub.String(opts.Head),
		Base:  gogithub.String(opts.Base),
		Draft: gogithub.Bool(opts.Draft),
	}
	if opts.Body != "" {
		pr.Body = gogithub.String(opts.Body)
	}

	var created *gogithub.PullRequest
	err := withRetry(ctx, "create PR", func() error {
		var err error
		created, _, err = c.client.PullRequests.Create(ctx, c.owner, c.repo, pr)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	// Reviewer assignment is best effort, a missing handle should not fail
	// the submission.
	if len(opts.Reviewers) > 0 {
		_, _, _ = c.client.PullRequests.RequestReviewers(ctx, c.owner, c.repo, created.GetNumber(), gogithub.ReviewersRequest{
			Reviewers: opts.Reviewers,
		})
	}

	return toPullRequestInfo(created), nil
}

// UpdatePullRequest updates an existing pull request
func (c *RealClient) UpdatePullRequest(ctx context.Context, number int, opts UpdatePROptions) error {
	// Draft status changes go through GraphQL, the REST API does not
	// support them.
	if opts.Draft != nil {
		pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
		if err == nil && pr.Draft != nil && *pr.Draft != *opts.Draft {
			if pr.NodeID == nil {
				return fmt.Errorf("PR %d does not have a Node ID", number)
			}
			if err := c.updateDraftStatus(ctx, *pr.NodeID, *opts.Draft); err != nil {
				return fmt.Errorf("failed to update draft status for PR %d: %w", number, err)
			}
		}
	}

	update := &gogithub.PullRequest{}
	if opts.Title != nil {
		update.Title = opts.Title
	}
	if opts.Body != nil {
		update.Body = opts.Body
	}
	if opts.Base != nil {
		update.Base = &gogithub.PullRequestBranch{Ref: opts.Base}
	}

	if update.Title == nil && update.Body == nil && update.Base == nil {
		return nil
	}

	err := withRetry(ctx, fmt.Sprintf("update PR #%d", number), func() error {
		_, _, err := c.client.PullRequests.Edit(ctx, c.owner, c.repo, number, update)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update pull request #%d: %w", number, err)
	}
	return nil
}

// ClosePullRequest closes a pull request without merging it
func (c *RealClient) ClosePullRequest(ctx context.Context, number int) error {
	state := "closed"
	err := withRetry(ctx, fmt.Sprintf("close PR #%d", number), func() error {
		_, _, err := c.client.PullRequests.Edit(ctx, c.owner, c.repo, number, &gogithub.PullRequest{
			State: &state,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to close pull request #%d: %w", number, err)
	}
	return nil
}

// MergePullRequest merges a pull request
func (c *RealClient) MergePullRequest(ctx context.Context, number int, opts MergeOptions) error {
	method := opts.Strategy
	if method == "" {
		method = "squash"
	}
	mergeOpts := &gogithub.PullRequestOptions{
		MergeMethod: method,
		CommitTitle: opts.CommitTitle,
	}

	// Merge failures are semantic (conflict, branch protection), never
	// retried.
	result, resp, err := c.client.PullRequests.Merge(ctx, c.owner, c.repo, number, opts.CommitBody, mergeOpts)
	if err != nil {
		msg := ""
		if resp != nil && resp.StatusCode == http.StatusMethodNotAllowed {
			msg = "pull request is not mergeable"
		}
		return stackprerrors.NewMergeError(number, msg, err)
	}
	if result != nil && result.Merged != nil && !*result.Merged {
		return stackprerrors.NewMergeError(number, result.GetMessage(), nil)
	}
	return nil
}

// updateDraftStatus updates the draft status of a PR using GitHub's GraphQL API
func (c *RealClient) updateDraftStatus(ctx context.Context, nodeID string, isDraft bool) error {
	mutation := "markPullRequestReadyForReview"
	if isDraft {
		mutation = "convertPullRequestToDraft"
	}
	query := fmt.Sprintf(`mutation { %s(input: {pullRequestId: %q}) { clientMutationId } }`, mutation, nodeID)

	req, err := c.client.NewRequest("POST", "graphql", map[string]string{"query": query})
	if err != nil {
		return err
	}
	_, err = c.client.Do(ctx, req, nil)
	return err
}

func toPullRequestInfo(pr *gogithub.PullRequest) *PullRequestInfo {
	return &PullRequestInfo{
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		Body:       pr.GetBody(),
		State:      pr.GetState(),
		Merged:     pr.GetMerged(),
		Draft:      pr.GetDraft(),
		HeadBranch: pr.GetHead().GetRef(),
		BaseBranch: pr.GetBase().GetRef(),
		HeadSHA:    pr.GetHead().GetSHA(),
		URL:        pr.GetHTMLURL(),
	}
}

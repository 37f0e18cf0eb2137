// Package runtime provides the per-invocation context that bundles the git
// repository, the GitHub client and the logger for use throughout the
// application.
package runtime

import (
	"context"
	"fmt"
	"path/filepath"

	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/output"
)

// Context provides access to the repository, hosting client and output for
// commands. One context is built per invocation and discarded at exit; no
// state survives between runs.
type Context struct {
	Repo   *git.Repo
	GitHub github.Client
	Splog  *output.Splog
	Remote string
}

// New builds a context rooted at the repository containing the current
// working directory. The GitHub client is authenticated from the environment
// and pointed at the repository the remote names.
func New(ctx context.Context, remote string) (*Context, error) {
	repo, err := git.OpenFromCwd()
	if err != nil {
		return nil, err
	}

	splog, err := output.NewSplogWithFile(filepath.Join(repo.Root(), ".git", "stackpr.log"))
	if err != nil {
		splog = output.NewSplog()
	}

	remoteURL, err := repo.Runner().Run(ctx, "config", "--get", "remote."+remote+".url")
	if err != nil {
		return nil, fmt.Errorf("failed to read URL of remote %q: %w", remote, err)
	}

	gh, err := github.NewRealClient(ctx, remoteURL)
	if err != nil {
		return nil, err
	}

	return &Context{
		Repo:   repo,
		GitHub: gh,
		Splog:  splog,
		Remote: remote,
	}, nil
}

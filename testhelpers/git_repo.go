// Package testhelpers provides scratch git repositories and an in-memory
// hosting client for tests.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRepo is a scratch git repository for tests.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a fresh repository with main as the default branch
// and a configured test user.
func NewGitRepo(dir string) (*GitRepo, error) {
	repo := &GitRepo{Dir: dir}

	// Use git -c flags and a null global config so host configuration never
	// leaks into tests.
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	if err := repo.Git("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.Git("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewBareRepo initializes a bare repository, to stand in for the remote.
func NewBareRepo(dir string) (*GitRepo, error) {
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "init", "--bare", dir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init bare repo: %w", err)
	}
	repo := &GitRepo{Dir: dir}

	// The fake hosting client commits merge results here.
	if err := repo.Git("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.Git("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	return repo, nil
}

// Git executes a git command in the repository directory.
func (r *GitRepo) Git(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if os.Getenv("DEBUG") != "" {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// GitOutput executes a git command and returns its trimmed output.
func (r *GitRepo) GitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// AddRemote registers another repository as a remote of this one.
func (r *GitRepo) AddRemote(name string, remote *GitRepo) error {
	return r.Git("remote", "add", name, remote.Dir)
}

// CommitFile writes a file and commits it with the given message.
func (r *GitRepo) CommitFile(name, contents, message string) error {
	path := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return err
	}
	if err := r.Git("add", name); err != nil {
		return err
	}
	return r.Git("commit", "-m", message)
}

// AmendFile rewrites a file and amends the last commit, keeping its message.
func (r *GitRepo) AmendFile(name, contents string) error {
	path := filepath.Join(r.Dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return err
	}
	if err := r.Git("add", name); err != nil {
		return err
	}
	return r.Git("commit", "--amend", "--no-edit")
}

// WriteFile writes a file without staging it, making the worktree dirty.
func (r *GitRepo) WriteFile(name, contents string) error {
	return os.WriteFile(filepath.Join(r.Dir, name), []byte(contents), 0o600)
}

// Head returns the SHA of HEAD.
func (r *GitRepo) Head() (string, error) {
	return r.GitOutput("rev-parse", "HEAD")
}

// BranchSHA returns the SHA a branch points at, or empty when the branch
// does not exist.
func (r *GitRepo) BranchSHA(name string) string {
	sha, err := r.GitOutput("rev-parse", "refs/heads/"+name)
	if err != nil {
		return ""
	}
	return sha
}

// CheckoutBranch checks out an existing branch.
func (r *GitRepo) CheckoutBranch(name string) error {
	return r.Git("checkout", name)
}

// CreateAndCheckoutBranch creates and checks out a new branch.
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.Git("checkout", "-b", name)
}

// CommitMessage returns the full message of a commit.
func (r *GitRepo) CommitMessage(rev string) (string, error) {
	return r.GitOutput("log", "-1", "--format=%B", rev)
}

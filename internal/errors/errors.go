// Package errors provides sentinel errors and custom error types for the stackpr application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrBadRange indicates that the base/head refs do not form a valid commit range
	ErrBadRange = errors.New("invalid commit range")

	// ErrRemoteNotFound indicates that a pull request referenced by commit
	// metadata no longer exists on the hosting side
	ErrRemoteNotFound = errors.New("pull request not found")

	// ErrLengthMismatch indicates that a draft bitmask does not match the stack size
	ErrLengthMismatch = errors.New("draft bitmask length mismatch")

	// ErrMergeRejected indicates that the hosting system refused to merge a pull request
	ErrMergeRejected = errors.New("merge rejected")

	// ErrDirtyWorkingTree indicates uncommitted changes in the working tree
	ErrDirtyWorkingTree = errors.New("uncommitted changes in working tree")

	// ErrTransport indicates a network failure talking to the hosting system
	ErrTransport = errors.New("transport error")
)

// RangeError reports an unusable base/head pair. No mutation is attempted
// when this is returned.
type RangeError struct {
	Base    string
	Head    string
	Message string
}

func (e *RangeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid range %s..%s: %s", e.Base, e.Head, e.Message)
	}
	return fmt.Sprintf("invalid range %s..%s", e.Base, e.Head)
}

// Is returns true if the target error is ErrBadRange
func (e *RangeError) Is(target error) bool {
	return target == ErrBadRange
}

// NewRangeError creates a new RangeError
func NewRangeError(base, head, message string) *RangeError {
	return &RangeError{Base: base, Head: head, Message: message}
}

// RemoteNotFoundError reports a pull request that vanished out-of-band. It is
// surfaced as a warning and the entry is treated as never submitted.
type RemoteNotFoundError struct {
	Number int
}

func (e *RemoteNotFoundError) Error() string {
	return fmt.Sprintf("pull request #%d no longer exists", e.Number)
}

// Is returns true if the target error is ErrRemoteNotFound
func (e *RemoteNotFoundError) Is(target error) bool {
	return target == ErrRemoteNotFound
}

// NewRemoteNotFoundError creates a new RemoteNotFoundError
func NewRemoteNotFoundError(number int) *RemoteNotFoundError {
	return &RemoteNotFoundError{Number: number}
}

// LengthMismatchError reports a --draft-bitmask whose length differs from the
// number of commits in the stack.
type LengthMismatchError struct {
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("draft bitmask has %d entries, stack has %d commits", e.Got, e.Want)
}

// Is returns true if the target error is ErrLengthMismatch
func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// NewLengthMismatchError creates a new LengthMismatchError
func NewLengthMismatchError(want, got int) *LengthMismatchError {
	return &LengthMismatchError{Want: want, Got: got}
}

// MergeError reports a failed merge during landing. Already-landed entries
// stand; the sequencer halts on the failing entry.
type MergeError struct {
	Number  int
	Message string
	Err     error
}

func (e *MergeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("failed to merge pull request #%d: %s", e.Number, e.Message)
	}
	return fmt.Sprintf("failed to merge pull request #%d", e.Number)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrMergeRejected
func (e *MergeError) Is(target error) bool {
	return target == ErrMergeRejected
}

// NewMergeError creates a new MergeError
func NewMergeError(number int, message string, err error) *MergeError {
	return &MergeError{Number: number, Message: message, Err: err}
}

// TransportError reports a network-level failure. Callers retry these with
// bounded backoff before giving up; semantic API failures are not wrapped in
// this type and fail fast.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrTransport
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewTransportError creates a new TransportError
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

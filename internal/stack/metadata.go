// Package stack implements the stack synchronization core: the commit
// message metadata codec, the stack entry model, deterministic branch naming,
// the shape differ and the pull request resolver.
package stack

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Metadata is the record embedded in a commit message trailer. It carries the
// durable identity of a stack entry across amends and rebases: which stack
// the commit belongs to and which pull request tracks it.
type Metadata struct {
	StackID  string
	PRNumber int // 0 when no pull request has been created yet
}

// The trailer is a single machine-parseable line placed after the prose,
// e.g. "stack-pr: id=3f2a9c1d pr=#42". It is parsed independently of the
// rest of the message, so manual edits to the prose survive re-encoding.
var trailerRe = regexp.MustCompile(`(?m)^stack-pr: id=([0-9a-f]+)(?: pr=#(\d+))?[ \t]*$\n?`)

// ParseMetadata decodes the trailer from a commit message. A missing or
// malformed trailer yields nil: such commits have never been submitted.
func ParseMetadata(message string) *Metadata {
	m := trailerRe.FindStringSubmatch(message)
	if m == nil {
		return nil
	}
	meta := &Metadata{StackID: m[1]}
	if m[2] != "" {
		meta.PRNumber, _ = strconv.Atoi(m[2])
	}
	return meta
}

// FormatMetadata renders the trailer line, without a trailing newline.
func FormatMetadata(meta Metadata) string {
	if meta.PRNumber > 0 {
		return fmt.Sprintf("stack-pr: id=%s pr=#%d", meta.StackID, meta.PRNumber)
	}
	return fmt.Sprintf("stack-pr: id=%s", meta.StackID)
}

// StripMetadata removes the trailer from a commit message, leaving the prose
// untouched apart from a normalized single trailing newline.
func StripMetadata(message string) string {
	out := trailerRe.ReplaceAllString(message, "")
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

// AppendMetadata writes the trailer into a commit message, replacing any
// previous trailer. Appending the same metadata twice is a no-op on the
// surrounding prose.
func AppendMetadata(message string, meta Metadata) string {
	body := strings.TrimRight(StripMetadata(message), "\n")
	if body == "" {
		return FormatMetadata(meta) + "\n"
	}
	return body + "\n\n" + FormatMetadata(meta) + "\n"
}

// NewStackID returns a fresh random stack identifier. Eight hex digits is
// plenty for the handful of stacks one author keeps in flight.
func NewStackID() string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

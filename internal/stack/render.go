package stack

import (
	"fmt"
	"regexp"
	"strings"
)

// Every pull request body starts with a generated table of contents linking
// the whole stack, the entry's own request marked with an arrow. The block is
// regenerated on every submit and stripped before bodies are compared, so it
// never makes an otherwise untouched entry look changed.
var tocRe = regexp.MustCompile(`\AStacked PRs:\r?\n(?: \* (?:__->__)?#\d+\r?\n)*\r?\n?`)

// RenderTOC renders the stacked-PRs table of contents, top of the stack
// first. Entries without a pull request number yet are skipped.
func RenderTOC(entries []*Entry, current int) string {
	var b strings.Builder
	b.WriteString("Stacked PRs:\n")
	for i := len(entries) - 1; i >= 0; i-- {
		num := entries[i].ReviewNumber()
		if num == 0 {
			continue
		}
		arrow := ""
		if num == current {
			arrow = "__->__"
		}
		fmt.Fprintf(&b, " * %s#%d\n", arrow, num)
	}
	b.WriteString("\n")
	return b.String()
}

// RenderReviewBody renders the full pull request body for an entry: the
// table of contents, the commit title as a heading, then the commit body
// with the metadata trailer stripped.
func RenderReviewBody(e *Entry, toc string) string {
	body := e.Body()
	if body == "" {
		return fmt.Sprintf("%s### %s\n", toc, e.Title())
	}
	return fmt.Sprintf("%s### %s\n\n%s\n", toc, e.Title(), body)
}

// StripTOC removes the generated table of contents from a pull request body.
func StripTOC(body string) string {
	return tocRe.ReplaceAllString(body, "")
}

// ReviewNumber returns the entry's pull request number, preferring the
// resolved remote state over the commit metadata. Zero means no request.
func (e *Entry) ReviewNumber() int {
	if e.Review != nil {
		return e.Review.Number
	}
	if e.Metadata != nil {
		return e.Metadata.PRNumber
	}
	return 0
}

package actions

import (
	"fmt"
	"strings"

	"stackpr.dev/stackpr/internal/output"
	"stackpr.dev/stackpr/internal/stack"
)

// FormatEntry renders a one-line colored description of a stack entry:
// short SHA, pull request reference, branch chain and commit title.
func FormatEntry(e *stack.Entry) string {
	var b strings.Builder
	b.WriteString(output.Bold(e.Commit.SHA[:8]))

	var details []string
	if num := e.ReviewNumber(); num > 0 {
		details = append(details, output.Blue(fmt.Sprintf("#%d", num)))
	} else {
		details = append(details, output.Red("no PR"))
	}
	if e.Review != nil {
		chain := fmt.Sprintf("'%s' -> '%s'",
			output.Green(e.Review.HeadBranch), output.Green(e.Review.BaseBranch))
		details = append(details, chain)
		if e.Review.State != stack.ReviewOpen {
			details = append(details, output.Yellow(string(e.Review.State)))
		}
	}

	b.WriteString(" (")
	b.WriteString(strings.Join(details, ", "))
	b.WriteString("): ")
	b.WriteString(e.Title())
	return b.String()
}

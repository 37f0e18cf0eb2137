package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/actions/submit"
	"stackpr.dev/stackpr/internal/runtime"
)

// newSubmitCmd creates the submit command
func newSubmitCmd(flags *commonFlags) *cobra.Command {
	var (
		draft        bool
		draftBitmask string
		reviewers    []string
	)

	cmd := &cobra.Command{
		Use:     "submit",
		Aliases: []string{"export"},
		Short:   "Create or update a pull request for every commit in the range",
		Long: `Create or update a pull request for every commit in the range.

Each commit gets its own branch and pull request, targeting the branch of
the commit below it. Submit is idempotent: running it twice in a row without
local changes performs no remote mutations the second time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(reviewers) == 0 {
				if def := os.Getenv("STACK_PR_DEFAULT_REVIEWER"); def != "" {
					reviewers = []string{def}
				}
			}
			return withRuntime(cmd, flags, func(ctx context.Context, rt *runtime.Context) error {
				return submit.Run(ctx, rt, submit.Options{
					CommonOptions: flags.options(),
					Draft:         draft,
					DraftSet:      cmd.Flags().Changed("draft"),
					DraftBitmask:  draftBitmask,
					Reviewers:     reviewers,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().BoolVar(&draft, "draft", false, "Submit every pull request as a draft")
	cmd.Flags().StringVar(&draftBitmask, "draft-bitmask", "", "Per-commit draft states, e.g. 0110, lowest commit first. Must match the stack length.")
	cmd.Flags().StringArrayVar(&reviewers, "reviewer", nil, "Request a review on newly created pull requests. Repeatable. Defaults to $STACK_PR_DEFAULT_REVIEWER.")

	return cmd
}

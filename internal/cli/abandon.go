package cli

import (
	"context"

	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/actions/abandon"
	"stackpr.dev/stackpr/internal/runtime"
)

// newAbandonCmd creates the abandon command
func newAbandonCmd(flags *commonFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "abandon",
		Short: "Close the stack's pull requests and delete its branches",
		Long: `Close the stack's pull requests and delete its branches.

The local commits stay; only their metadata trailers are removed, returning
the range to the state it had before the first submit. Pull requests the
stack once owned are closed even when their commits are already gone from
the range.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *runtime.Context) error {
				return abandon.Run(ctx, rt, abandon.Options{
					CommonOptions: flags.options(),
					Yes:           yes,
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Abandon without asking for confirmation")

	return cmd
}

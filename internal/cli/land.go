package cli

import (
	"context"

	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/actions/land"
	"stackpr.dev/stackpr/internal/runtime"
)

// newLandCmd creates the land command
func newLandCmd(flags *commonFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "land",
		Short: "Merge the stack into the integration branch, bottom to top",
		Long: `Merge the stack into the integration branch, bottom to top.

Every pull request is squash-merged in order. Each one is rebased onto the
freshly advanced integration branch first, so stacks land even while other
work merges in between. A failure halts the sequence; requests already
merged stand, the rest stay open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *runtime.Context) error {
				return land.Run(ctx, rt, land.Options{
					CommonOptions: flags.options(),
					Yes:           yes,
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Land without asking for confirmation")

	return cmd
}

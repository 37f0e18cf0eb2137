package cli

import (
	"context"

	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/actions/view"
	"stackpr.dev/stackpr/internal/runtime"
)

// newViewCmd creates the view command
func newViewCmd(flags *commonFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the stack and the state of its pull requests",
		Long: `Show the stack and the state of its pull requests.

View is read-only: it inspects the commit range and the hosting system but
never pushes, rewrites or edits anything. Use it as a dry run before submit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *runtime.Context) error {
				return view.Run(ctx, rt, flags.options())
			})
		},
	}
}

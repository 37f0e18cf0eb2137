package cli

import (
	"context"

	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/actions"
	"stackpr.dev/stackpr/internal/runtime"
)

func (f *commonFlags) options() actions.CommonOptions {
	return actions.CommonOptions{
		Base:   f.base,
		Head:   f.head,
		Remote: f.remote,
		Target: f.target,
	}
}

// withRuntime builds the per-invocation runtime context, runs the action and
// reports its failure on the console. The error is returned unprinted by
// cobra, so this is the single place a failure surfaces.
func withRuntime(cmd *cobra.Command, flags *commonFlags,
	fn func(ctx context.Context, rt *runtime.Context) error) error {

	ctx := cmd.Context()
	rt, err := runtime.New(ctx, flags.remote)
	if err != nil {
		cmd.PrintErrf("error: %v\n", err)
		return err
	}
	defer func() { _ = rt.Splog.Close() }()

	if err := fn(ctx, rt); err != nil {
		rt.Splog.Error("%v", err)
		return err
	}
	return nil
}

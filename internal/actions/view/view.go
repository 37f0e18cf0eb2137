// Package view implements the view command, a read-only inspection of the
// stack. It is also the dry run: it shows exactly the picture submit would
// act on, without touching the repository or the hosting system.
package view

import (
	"context"

	"stackpr.dev/stackpr/internal/actions"
	"stackpr.dev/stackpr/internal/runtime"
	"stackpr.dev/stackpr/internal/stack"
)

// Run prints the stack. Local state is never modified: no fetch, no
// rewrite, no pushes.
func Run(ctx context.Context, rt *runtime.Context, opts actions.CommonOptions) error {
	if actions.ShouldUpdateLocalBase(ctx, rt, opts) {
		rt.Splog.Warn("local branch %s is behind %s/%s, the stack may include already-merged commits",
			opts.Base, opts.Remote, opts.Target)
	}

	entries, err := actions.LoadStack(ctx, rt, opts)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		rt.Splog.Info("Empty stack!")
		rt.Splog.Success()
		return nil
	}

	resolver := &stack.Resolver{GitHub: rt.GitHub, Repo: rt.Repo, Remote: opts.Remote, Splog: rt.Splog}
	if err := resolver.Resolve(ctx, entries); err != nil {
		return err
	}

	actions.PrintStack(rt, entries)
	for _, e := range entries {
		if e.Review != nil && e.Review.URL != "" {
			rt.Splog.Info("  %s", e.Review.URL)
		}
	}
	rt.Splog.Info("%d commits between %s and %s", len(entries), opts.Base, opts.Head)
	rt.Splog.Success()
	return nil
}

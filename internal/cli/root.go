// Package cli wires the cobra command tree. Each command parses its flags,
// builds a runtime context and hands off to the matching actions package.
package cli

import (
	"github.com/spf13/cobra"
)

// commonFlags are the persistent flags every command shares: the commit
// range, the remote and the integration branch.
type commonFlags struct {
	base   string
	head   string
	target string
	remote string
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version string) *cobra.Command {
	flags := &commonFlags{}

	rootCmd := &cobra.Command{
		Use:   "stackpr",
		Short: "Stackpr turns a chain of local commits into a stack of pull requests",
		Long: `Stackpr turns a chain of local commits into a stack of pull requests,
one commit per request, each reviewed against the one below it.

The tool keeps no state of its own: every run re-reads the commit range and
the hosting system and reconciles the two.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.base, "base", "B", "main", "Bottom of the commit range (exclusive)")
	pf.StringVarP(&flags.head, "head", "H", "HEAD", "Top of the commit range (inclusive)")
	pf.StringVarP(&flags.target, "target", "T", "main", "Integration branch the stack lands on")
	pf.StringVarP(&flags.remote, "remote", "R", "origin", "Remote the stack branches are pushed to")

	rootCmd.AddCommand(newSubmitCmd(flags))
	rootCmd.AddCommand(newViewCmd(flags))
	rootCmd.AddCommand(newLandCmd(flags))
	rootCmd.AddCommand(newAbandonCmd(flags))

	return rootCmd
}

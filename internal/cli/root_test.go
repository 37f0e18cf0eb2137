package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd("test")

	t.Run("commands registered", func(t *testing.T) {
		names := make(map[string]bool)
		for _, c := range root.Commands() {
			names[c.Name()] = true
		}
		for _, want := range []string{"submit", "view", "land", "abandon"} {
			require.True(t, names[want], "missing command %s", want)
		}
	})

	t.Run("range flag defaults", func(t *testing.T) {
		pf := root.PersistentFlags()
		for flag, want := range map[string]string{
			"base":   "main",
			"head":   "HEAD",
			"target": "main",
			"remote": "origin",
		} {
			f := pf.Lookup(flag)
			require.NotNil(t, f, "missing flag %s", flag)
			require.Equal(t, want, f.DefValue)
		}
	})

	t.Run("export is an alias for submit", func(t *testing.T) {
		cmd, _, err := root.Find([]string{"export"})
		require.NoError(t, err)
		require.Equal(t, "submit", cmd.Name())
	})

	t.Run("submit flags", func(t *testing.T) {
		cmd, _, err := root.Find([]string{"submit"})
		require.NoError(t, err)
		require.NotNil(t, cmd.Flags().Lookup("draft"))
		require.NotNil(t, cmd.Flags().Lookup("draft-bitmask"))
		require.NotNil(t, cmd.Flags().Lookup("reviewer"))
	})
}

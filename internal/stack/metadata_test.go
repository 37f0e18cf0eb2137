package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	t.Run("full trailer", func(t *testing.T) {
		meta := ParseMetadata("Fix the flux capacitor\n\nLonger prose.\n\nstack-pr: id=3f2a9c1d pr=#42\n")
		require.NotNil(t, meta)
		require.Equal(t, "3f2a9c1d", meta.StackID)
		require.Equal(t, 42, meta.PRNumber)
	})

	t.Run("trailer without request number", func(t *testing.T) {
		meta := ParseMetadata("Fix it\n\nstack-pr: id=deadbeef\n")
		require.NotNil(t, meta)
		require.Equal(t, "deadbeef", meta.StackID)
		require.Zero(t, meta.PRNumber)
	})

	t.Run("absent trailer", func(t *testing.T) {
		require.Nil(t, ParseMetadata("Fix it\n\nNo trailer here.\n"))
	})

	t.Run("malformed trailer is not metadata", func(t *testing.T) {
		require.Nil(t, ParseMetadata("Fix it\n\nstack-pr: id=NOTHEX pr=#x\n"))
	})

	t.Run("trailer must start its line", func(t *testing.T) {
		require.Nil(t, ParseMetadata("prose mentioning stack-pr: id=3f2a9c1d inline\n"))
	})
}

func TestAppendMetadata(t *testing.T) {
	meta := Metadata{StackID: "3f2a9c1d", PRNumber: 7}

	t.Run("round trip", func(t *testing.T) {
		message := AppendMetadata("Fix it\n\nSome prose.\n", meta)
		parsed := ParseMetadata(message)
		require.NotNil(t, parsed)
		require.Equal(t, meta, *parsed)
	})

	t.Run("append is idempotent on the prose", func(t *testing.T) {
		once := AppendMetadata("Fix it\n\nSome prose.\n", meta)
		twice := AppendMetadata(once, meta)
		require.Equal(t, once, twice)
	})

	t.Run("replaces a previous trailer", func(t *testing.T) {
		old := AppendMetadata("Fix it\n", Metadata{StackID: "3f2a9c1d"})
		updated := AppendMetadata(old, meta)
		parsed := ParseMetadata(updated)
		require.Equal(t, 7, parsed.PRNumber)
		require.NotContains(t, StripMetadata(updated), "stack-pr:")
	})

	t.Run("empty message", func(t *testing.T) {
		message := AppendMetadata("", meta)
		require.Equal(t, "stack-pr: id=3f2a9c1d pr=#7\n", message)
	})
}

func TestStripMetadata(t *testing.T) {
	t.Run("prose survives byte for byte", func(t *testing.T) {
		prose := "Fix it\n\nA body with  odd   spacing\nand two lines.\n"
		require.Equal(t, prose, StripMetadata(AppendMetadata(prose, Metadata{StackID: "cafe0042", PRNumber: 3})))
	})

	t.Run("message without trailer is unchanged", func(t *testing.T) {
		require.Equal(t, "Fix it\n", StripMetadata("Fix it\n"))
	})
}

func TestNewStackID(t *testing.T) {
	id := NewStackID()
	require.Len(t, id, 8)
	require.Regexp(t, "^[0-9a-f]{8}$", id)
	require.NotEqual(t, id, NewStackID())
}

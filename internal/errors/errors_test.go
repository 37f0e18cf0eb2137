package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	t.Run("typed errors match their sentinels", func(t *testing.T) {
		require.ErrorIs(t, NewRangeError("main", "HEAD", "no such ref"), ErrBadRange)
		require.ErrorIs(t, NewRemoteNotFoundError(42), ErrRemoteNotFound)
		require.ErrorIs(t, NewLengthMismatchError(3, 2), ErrLengthMismatch)
		require.ErrorIs(t, NewMergeError(7, "conflict", nil), ErrMergeRejected)
		require.ErrorIs(t, NewTransportError("list", stderrors.New("timeout")), ErrTransport)
	})

	t.Run("sentinels stay distinct", func(t *testing.T) {
		require.NotErrorIs(t, NewRangeError("main", "HEAD", ""), ErrMergeRejected)
		require.NotErrorIs(t, NewMergeError(7, "", nil), ErrTransport)
	})

	t.Run("wrapped causes stay reachable", func(t *testing.T) {
		cause := stderrors.New("connection reset")
		err := NewTransportError("merge", cause)
		require.ErrorIs(t, err, cause)

		var transport *TransportError
		require.ErrorAs(t, err, &transport)
		require.Equal(t, "merge", transport.Op)
	})

	t.Run("fields surface in messages", func(t *testing.T) {
		require.Contains(t, NewLengthMismatchError(3, 2).Error(), "2 entries")
		require.Contains(t, NewLengthMismatchError(3, 2).Error(), "3 commits")
		require.Contains(t, NewRangeError("main", "topic", "diverged").Error(), "main..topic")
	})
}

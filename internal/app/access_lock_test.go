package app

import (
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func roomWith(t *testing.T, peers ...domain.PeerID) *core.Room {
	t.Helper()
	r := core.NewRoom("r1", time.Unix(0, 0))
	require.NoError(t, r.Do(func(s *core.RoomState) error {
		for i, p := range peers {
			if _, err := s.Upsert(domain.ParticipantUpdate{PeerID: p}, time.Unix(int64(i), 0)); err != nil {
				return err
			}
		}
		return nil
	}))
	return r
}

func TestAccessLockCreatorOnly(t *testing.T) {
	locks := NewAccessLocks(bcrypt.MinCost, nil)
	r := roomWith(t, "a", "b")

	hash, err := locks.Hash("s3cret")
	require.NoError(t, err)

	require.NoError(t, r.Do(func(s *core.RoomState) error {
		assert.ErrorIs(t, locks.Lock(s, hash, "b"), domain.ErrUnauthorized)
		assert.False(t, s.Locked())

		require.NoError(t, locks.Lock(s, hash, "a"))
		assert.True(t, s.Locked())
		assert.Equal(t, domain.PeerID("a"), s.AccessLock().Owner)

		assert.ErrorIs(t, locks.Unlock(s, "b"), domain.ErrUnauthorized)
		assert.True(t, s.Locked())
		require.NoError(t, locks.Unlock(s, "a"))
		assert.False(t, s.Locked())

		// Unlocking an open room is fine.
		require.NoError(t, locks.Unlock(s, "a"))
		return nil
	}))
}

func TestAccessLockVerify(t *testing.T) {
	locks := NewAccessLocks(bcrypt.MinCost, nil)

	assert.True(t, locks.Verify(nil, ""))
	assert.True(t, locks.Verify(nil, "anything"))

	hash, err := locks.Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, locks.Verify(hash, "s3cret"))
	assert.False(t, locks.Verify(hash, "wrong"))
	assert.False(t, locks.Verify(hash, ""))
}

func TestAccessLockHashRejects(t *testing.T) {
	locks := NewAccessLocks(bcrypt.MinCost, nil)

	_, err := locks.Hash("")
	assert.ErrorIs(t, err, domain.ErrEmptySecret)

	_, err = locks.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, domain.ErrSecretTooLong)

	_, err = locks.Hash(strings.Repeat("x", 72))
	assert.NoError(t, err)
}

func TestAccessLockUnchanged(t *testing.T) {
	locks := NewAccessLocks(bcrypt.MinCost, nil)
	r := roomWith(t, "a")

	h1, err := locks.Hash("one")
	require.NoError(t, err)
	h2, err := locks.Hash("two")
	require.NoError(t, err)

	require.NoError(t, r.Do(func(s *core.RoomState) error {
		assert.True(t, locks.Unchanged(s, nil))
		require.NoError(t, locks.Lock(s, h1, "a"))
		assert.True(t, locks.Unchanged(s, h1))
		require.NoError(t, locks.Lock(s, h2, "a"))
		assert.False(t, locks.Unchanged(s, h1))
		return nil
	}))
}

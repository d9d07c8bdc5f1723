package app

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const maxSecretLen = 72

// AccessLocker is what the coordinator needs from the secret gate.
type AccessLocker interface {
	Hash(secret string) ([]byte, error)
	Lock(s *core.RoomState, hash []byte, requester domain.PeerID) error
	Unlock(s *core.RoomState, requester domain.PeerID) error
	Current(s *core.RoomState) []byte
	Verify(hash []byte, secret string) bool
	Unchanged(s *core.RoomState, checked []byte) bool
}

var _ AccessLocker = (*AccessLocks)(nil)

// AccessLocks manages secret gates on rooms. Hashing and comparison are CPU
// bound, so they run outside room critical sections: callers hash or compare
// first and then apply the result under the room lock.
type AccessLocks struct {
	cost int
	now  func() time.Time
}

func NewAccessLocks(cost int, now func() time.Time) *AccessLocks {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if now == nil {
		now = time.Now
	}
	return &AccessLocks{cost: cost, now: now}
}

// Hash prepares a secret for Lock.
func (a *AccessLocks) Hash(secret string) ([]byte, error) {
	if secret == "" {
		return nil, domain.ErrEmptySecret
	}
	if len(secret) > maxSecretLen {
		return nil, domain.ErrSecretTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}
	return h, nil
}

// Lock installs or replaces the room's lock. The requester must be the
// creator right now.
func (a *AccessLocks) Lock(s *core.RoomState, hash []byte, requester domain.PeerID) error {
	if !s.IsCreator(requester) {
		return domain.ErrNotCreator
	}
	s.SetAccessLock(&domain.AccessLock{
		SecretHash: hash,
		Owner:      requester,
		LockedAt:   a.now(),
	})
	log.Info().Str("module", "app.lock").Str("room", string(s.ID())).Str("owner", string(requester)).Msg("room locked")
	return nil
}

// Unlock removes the lock. Unlocking an open room succeeds.
func (a *AccessLocks) Unlock(s *core.RoomState, requester domain.PeerID) error {
	if !s.IsCreator(requester) {
		return domain.ErrNotCreator
	}
	if s.Locked() {
		s.SetAccessLock(nil)
		log.Info().Str("module", "app.lock").Str("room", string(s.ID())).Str("by", string(requester)).Msg("room unlocked")
	}
	return nil
}

// Hash of the current lock, nil when open.
func (a *AccessLocks) Current(s *core.RoomState) []byte {
	if l := s.AccessLock(); l != nil {
		return l.SecretHash
	}
	return nil
}

// Verify compares a secret with a lock hash. An open room accepts anything.
func (a *AccessLocks) Verify(hash []byte, secret string) bool {
	if hash == nil {
		return true
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}

// Unchanged reports whether the lock is still the one a secret was checked against.
func (a *AccessLocks) Unchanged(s *core.RoomState, checked []byte) bool {
	return bytes.Equal(a.Current(s), checked)
}

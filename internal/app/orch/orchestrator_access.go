package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/dkeye/Coordinator/internal/metrics"
	"github.com/rs/zerolog/log"
)

// createAttempts bounds retries when a generated room id is already taken.
const createAttempts = 3

// LockRoom sets or replaces the room secret. Only the current creator may
// lock; the check runs again under the room lock after hashing.
func (o *Orchestrator) LockRoom(id domain.RoomID, secret string, requester domain.PeerID) error {
	if err := requester.Validate(); err != nil {
		return err
	}
	room, err := o.room(id)
	if err != nil {
		return err
	}

	// Fail fast before paying for bcrypt.
	err = room.View(func(s *core.RoomState) error {
		if !s.IsCreator(requester) {
			return domain.ErrNotCreator
		}
		return nil
	})
	if err != nil {
		return err
	}

	hash, err := o.Locks.Hash(secret)
	if err != nil {
		return err
	}
	return room.Do(func(s *core.RoomState) error {
		return o.Locks.Lock(s, hash, requester)
	})
}

func (o *Orchestrator) UnlockRoom(id domain.RoomID, requester domain.PeerID) error {
	if err := requester.Validate(); err != nil {
		return err
	}
	room, err := o.room(id)
	if err != nil {
		return err
	}
	return room.Do(func(s *core.RoomState) error {
		return o.Locks.Unlock(s, requester)
	})
}

// IsRoomLocked reports false for rooms that do not exist.
func (o *Orchestrator) IsRoomLocked(id domain.RoomID) (bool, error) {
	room, err := o.room(id)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	locked := false
	err = room.View(func(s *core.RoomState) error {
		locked = s.Locked()
		return nil
	})
	if errors.Is(err, domain.ErrRoomNotFound) {
		return false, nil
	}
	return locked, err
}

// VerifyRoomSecret checks a secret without joining. Open or absent rooms
// accept any secret, the empty one included. Failed checks against a locked
// room are limited per room.
func (o *Orchestrator) VerifyRoomSecret(id domain.RoomID, secret string) (bool, error) {
	room, err := o.room(id)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	var hash []byte
	err = room.View(func(s *core.RoomState) error {
		hash = o.Locks.Current(s)
		return nil
	})
	if errors.Is(err, domain.ErrRoomNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if hash == nil {
		return true, nil
	}

	key := string(id)
	if o.Guesses.Blocked(key) {
		metrics.AccessDenied.WithLabelValues(string(domain.ReasonTooManyAttempts)).Inc()
		return false, domain.DenyAccess(domain.ReasonTooManyAttempts)
	}
	if !o.Locks.Verify(hash, secret) {
		o.Guesses.Fail(key)
		return false, nil
	}
	o.Guesses.Reset(key)
	return true, nil
}

type CreateOrgRoomRequest struct {
	Creator     domain.PeerID
	OrgID       domain.OrgID
	Visibility  domain.Visibility
	AccessLevel domain.AccessLevel
	Invited     []domain.PeerID
	Secret      string
}

// CreateOrgRoom creates an empty room with its policy in one step. The
// creator becomes the policy host and, for invite-only rooms, is invited.
func (o *Orchestrator) CreateOrgRoom(req CreateOrgRoomRequest) (domain.RoomID, error) {
	if err := req.Creator.Validate(); err != nil {
		return "", err
	}
	if req.OrgID != "" {
		if err := req.OrgID.Validate(); err != nil {
			return "", err
		}
	}
	if req.AccessLevel == "" {
		req.AccessLevel = domain.AccessOrgMember
	}

	policy := &domain.OrgRoomPolicy{
		Visibility:  req.Visibility,
		OrgID:       req.OrgID,
		AccessLevel: req.AccessLevel,
		Invited:     make(map[domain.PeerID]struct{}, len(req.Invited)+1),
		Host:        req.Creator,
		CreatedAt:   o.Now(),
	}
	for _, peer := range req.Invited {
		policy.Invited[peer] = struct{}{}
	}
	if policy.AccessLevel == domain.AccessInviteOnly {
		policy.Invited[req.Creator] = struct{}{}
	}
	if err := policy.Validate(); err != nil {
		return "", err
	}

	var lock *domain.AccessLock
	if req.Secret != "" {
		hash, err := o.Locks.Hash(req.Secret)
		if err != nil {
			return "", err
		}
		lock = &domain.AccessLock{SecretHash: hash, Owner: req.Creator, LockedAt: o.Now()}
	}

	var (
		room *core.Room
		err  error
	)
	for range createAttempts {
		id := domain.RoomID(o.NewID())
		room, err = o.Rooms.CreateWith(id, func(s *core.RoomState) error {
			s.SetPolicy(policy)
			s.SetAccessLock(lock)
			return nil
		})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("create org room: %w", err)
	}

	if policy.OrgID != "" {
		o.Orgs.Add(policy.OrgID, room.ID())
	}
	log.Info().
		Str("module", "app.orch").
		Str("room", string(room.ID())).
		Str("org", string(policy.OrgID)).
		Str("visibility", string(policy.Visibility)).
		Str("access", string(policy.AccessLevel)).
		Bool("locked", lock != nil).
		Msg("org room created")
	return room.ID(), nil
}

// VerifyRoomAccess evaluates the organization policy without joining.
func (o *Orchestrator) VerifyRoomAccess(id domain.RoomID, caller domain.Caller) (domain.AccessDecision, error) {
	if err := caller.PeerID.Validate(); err != nil {
		return domain.AccessDecision{}, err
	}
	room, err := o.room(id)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return o.denied(id, domain.ReasonRoomNotFound), nil
	}
	if err != nil {
		return domain.AccessDecision{}, err
	}

	var d domain.AccessDecision
	err = room.View(func(s *core.RoomState) error {
		d = o.Policy.Evaluate(s.Policy(), caller)
		return nil
	})
	if errors.Is(err, domain.ErrRoomNotFound) {
		return o.denied(id, domain.ReasonRoomNotFound), nil
	}
	if err != nil {
		return domain.AccessDecision{}, err
	}
	if !d.Allowed {
		return o.denied(id, d.Reason), nil
	}
	return d, nil
}

func (o *Orchestrator) denied(id domain.RoomID, reason domain.DenyReason) domain.AccessDecision {
	metrics.AccessDenied.WithLabelValues(string(reason)).Inc()
	log.Debug().Str("module", "app.orch").Str("room", string(id)).Str("reason", string(reason)).Msg("access denied")
	return domain.Deny(reason)
}

// ListOrgRooms lists the live rooms of an organization and prunes index
// entries whose room is gone or no longer belongs to it.
func (o *Orchestrator) ListOrgRooms(org domain.OrgID) ([]domain.RoomInfo, error) {
	if err := org.Validate(); err != nil {
		return nil, err
	}

	out := []domain.RoomInfo{}
	var gone []domain.RoomID
	for _, id := range o.Orgs.Rooms(org) {
		room, ok := o.Rooms.Get(id)
		if !ok {
			gone = append(gone, id)
			continue
		}
		err := room.View(func(s *core.RoomState) error {
			if p := s.Policy(); p == nil || p.OrgID != org {
				return domain.ErrRoomNotFound
			}
			out = append(out, s.Info())
			return nil
		})
		if err != nil {
			gone = append(gone, id)
		}
	}
	o.Orgs.Prune(org, gone...)
	return out, nil
}

package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/dkeye/Coordinator/internal/metrics"
	"github.com/rs/zerolog/log"
)

// joinAttempts bounds how often a join re-reads a lock that changed while
// the secret was being compared.
const joinAttempts = 3

var errLockChanged = errors.New("room lock changed during join")

// CreateRoom ensures a room exists. An empty id gets a generated one.
// Creating an existing room is a success and leaves it untouched.
func (o *Orchestrator) CreateRoom(id domain.RoomID) (domain.RoomID, bool, error) {
	if id == "" {
		id = domain.RoomID(o.NewID())
	}
	if err := id.Validate(); err != nil {
		return "", false, err
	}
	_, created := o.Rooms.GetOrCreate(id)
	return id, created, nil
}

func (o *Orchestrator) RoomExists(id domain.RoomID) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, err
	}
	room, ok := o.Rooms.Get(id)
	return ok && !room.Closed(), nil
}

func (o *Orchestrator) GetRoom(id domain.RoomID) (domain.RoomSnapshot, error) {
	room, err := o.room(id)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	var snap domain.RoomSnapshot
	err = room.View(func(s *core.RoomState) error {
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

func (o *Orchestrator) ListRooms() []domain.RoomInfo {
	return o.Rooms.List()
}

// JoinRequest carries a join along with the identity the gateway resolved
// for the caller.
type JoinRequest struct {
	Room         domain.RoomID
	Peer         domain.PeerID
	Connection   domain.ConnectionID
	DisplayName  string
	Capabilities *domain.MediaCapabilities
	Secret       string
	OrgID        domain.OrgID
	Role         domain.Role
}

func (r JoinRequest) caller() domain.Caller {
	return domain.Caller{PeerID: r.Peer, OrgID: r.OrgID, Role: r.Role}
}

type JoinResult struct {
	Participant domain.ParticipantSnapshot `json:"participant"`
	Rejoined    bool                       `json:"rejoined"`
	Room        domain.RoomSnapshot        `json:"room"`
}

// Join admits a peer into an existing room. A peer already present is a
// reconnect and skips the policy and secret checks. The bcrypt comparison
// runs outside the room lock; the critical section then confirms the lock
// it was checked against is still in place.
func (o *Orchestrator) Join(req JoinRequest) (JoinResult, error) {
	update := domain.ParticipantUpdate{
		PeerID:       req.Peer,
		ConnectionID: req.Connection,
		DisplayName:  req.DisplayName,
		Capabilities: req.Capabilities,
	}
	if err := update.Validate(); err != nil {
		return JoinResult{}, err
	}
	room, err := o.room(req.Room)
	if err != nil {
		return JoinResult{}, err
	}

	key := string(req.Room) + "/" + string(req.Peer)
	for range joinAttempts {
		var (
			present bool
			hash    []byte
			denied  error
		)
		err := room.View(func(s *core.RoomState) error {
			present = s.Has(req.Peer)
			if present {
				return nil
			}
			denied = o.admit(s, req)
			if !isHost(s, req.Peer) {
				hash = o.Locks.Current(s)
			}
			return nil
		})
		if err != nil {
			return JoinResult{}, err
		}
		if denied != nil {
			return JoinResult{}, denied
		}

		checked := false
		if hash != nil {
			if err := o.checkSecret(key, hash, req.Secret); err != nil {
				return JoinResult{}, err
			}
			checked = true
		}

		var res JoinResult
		err = room.Do(func(s *core.RoomState) error {
			rejoin := s.Has(req.Peer)
			u := update
			if !rejoin {
				if err := o.admit(s, req); err != nil {
					return err
				}
				host := isHost(s, req.Peer)
				if !host && s.Locked() && (!checked || !o.Locks.Unchanged(s, hash)) {
					return errLockChanged
				}
				// The org room host takes the creator role on arrival.
				if host {
					creator := true
					u.IsCreator = &creator
				}
			}
			up, err := o.upsertLocked(s, u)
			if err != nil {
				return err
			}
			res = JoinResult{Participant: up.Participant, Rejoined: rejoin, Room: s.Snapshot()}
			return nil
		})
		if errors.Is(err, errLockChanged) {
			continue
		}
		if err != nil {
			return JoinResult{}, fmt.Errorf("join %s: %w", req.Room, err)
		}
		log.Info().
			Str("module", "app.orch").
			Str("room", string(req.Room)).
			Str("peer", string(req.Peer)).
			Bool("rejoined", res.Rejoined).
			Msg("peer joined")
		return res, nil
	}
	return JoinResult{}, fmt.Errorf("join %s: %w", req.Room, domain.ErrConflict)
}

// admit evaluates the organization policy for a new participant.
func (o *Orchestrator) admit(s *core.RoomState, req JoinRequest) error {
	if d := o.Policy.Evaluate(s.Policy(), req.caller()); !d.Allowed {
		metrics.AccessDenied.WithLabelValues(string(d.Reason)).Inc()
		return domain.DenyAccess(d.Reason)
	}
	return nil
}

func (o *Orchestrator) checkSecret(key string, hash []byte, secret string) error {
	if o.Attempts.Blocked(key) {
		metrics.AccessDenied.WithLabelValues(string(domain.ReasonTooManyAttempts)).Inc()
		return domain.DenyAccess(domain.ReasonTooManyAttempts)
	}
	if !o.Locks.Verify(hash, secret) {
		o.Attempts.Fail(key)
		metrics.AccessDenied.WithLabelValues(string(domain.ReasonInvalidSecret)).Inc()
		return domain.DenyAccess(domain.ReasonInvalidSecret)
	}
	o.Attempts.Reset(key)
	return nil
}

func isHost(s *core.RoomState, peer domain.PeerID) bool {
	p := s.Policy()
	return p != nil && p.Host == peer
}

// Leave removes a peer. A connection id that no longer matches the stored
// one marks a stale leave from an old connection and changes nothing. A peer
// that joined without a connection can be removed with any connection id.
func (o *Orchestrator) Leave(id domain.RoomID, peer domain.PeerID, conn domain.ConnectionID) (domain.LeaveResult, error) {
	if err := peer.Validate(); err != nil {
		return domain.LeaveResult{}, err
	}
	room, err := o.room(id)
	if err != nil {
		return domain.LeaveResult{}, err
	}

	var res domain.LeaveResult
	err = room.Do(func(s *core.RoomState) error {
		p, ok := s.Get(peer)
		if !ok {
			return domain.ErrParticipantNotFound
		}
		if conn != "" && p.ConnectionID != "" && p.ConnectionID != conn {
			log.Debug().Str("module", "app.orch").Str("room", string(id)).Str("peer", string(peer)).Msg("stale leave ignored")
			return nil
		}
		_, res, err = o.removeLocked(room, s, peer)
		return err
	})
	if err != nil {
		return domain.LeaveResult{}, fmt.Errorf("leave %s: %w", id, err)
	}
	return res, nil
}

// RemoveParticipant forcibly removes a peer with the same succession and
// destruction rules as Leave.
func (o *Orchestrator) RemoveParticipant(id domain.RoomID, peer domain.PeerID) (domain.ParticipantSnapshot, domain.LeaveResult, error) {
	if err := peer.Validate(); err != nil {
		return domain.ParticipantSnapshot{}, domain.LeaveResult{}, err
	}
	room, err := o.room(id)
	if err != nil {
		return domain.ParticipantSnapshot{}, domain.LeaveResult{}, err
	}

	var (
		removed domain.ParticipantSnapshot
		res     domain.LeaveResult
	)
	err = room.Do(func(s *core.RoomState) error {
		var err error
		removed, res, err = o.removeLocked(room, s, peer)
		return err
	})
	if err != nil {
		return domain.ParticipantSnapshot{}, domain.LeaveResult{}, fmt.Errorf("remove %s from %s: %w", peer, id, err)
	}
	return removed, res, nil
}

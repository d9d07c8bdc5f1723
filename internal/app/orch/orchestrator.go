package orch

import (
	"time"

	"github.com/dkeye/Coordinator/internal/app"
	"github.com/dkeye/Coordinator/internal/config"
	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/dkeye/Coordinator/internal/metrics"
	"github.com/google/uuid"
)

// Orchestrator is the coordinator facade. Every operation that touches a room
// runs its mutation inside that room's critical section; different rooms
// proceed in parallel.
type Orchestrator struct {
	Registry core.ConnectionIndex
	Rooms    core.RoomManager
	Policy   app.Policy
	Locks    app.AccessLocker
	Orgs     *app.OrgIndex
	// Attempts limits failed join secrets per room and peer, Guesses
	// limits failed VerifyRoomSecret calls per room.
	Attempts *app.AttemptLimiter
	Guesses  *app.AttemptLimiter

	Now   func() time.Time
	NewID func() string
}

// New wires an orchestrator from configuration.
func New(cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(time.Now),
		Policy:   app.NewOrgPolicy(cfg.Access.LegacyOpenRooms, cfg.Access.ElevatedRoles),
		Locks:    app.NewAccessLocks(cfg.Access.BcryptCost, time.Now),
		Orgs:     app.NewOrgIndex(),
		Attempts: app.NewAttemptLimiter(cfg.Access.SecretAttempts, cfg.Access.SecretWindow, time.Now),
		Guesses:  app.NewAttemptLimiter(cfg.Access.SecretAttempts, cfg.Access.SecretWindow, time.Now),
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

func (o *Orchestrator) room(id domain.RoomID) (*core.Room, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	room, ok := o.Rooms.Get(id)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// upsertLocked applies an upsert and keeps the connection index in step.
// It must run inside room.Do.
func (o *Orchestrator) upsertLocked(s *core.RoomState, u domain.ParticipantUpdate) (core.UpsertResult, error) {
	ref := core.RoomRef{Room: s.ID(), Peer: u.PeerID}
	claimed := false
	if u.ConnectionID != "" {
		var err error
		if claimed, err = o.Registry.Bind(u.ConnectionID, ref); err != nil {
			return core.UpsertResult{}, err
		}
	}

	res, err := s.Upsert(u, o.Now())
	if err != nil {
		if claimed {
			o.Registry.Unbind(u.ConnectionID, ref)
		}
		return core.UpsertResult{}, err
	}

	if res.PrevConnection != "" && res.PrevConnection != res.Participant.ConnectionID {
		o.Registry.Unbind(res.PrevConnection, ref)
	}
	if res.Created {
		metrics.ParticipantsActive.Inc()
	}
	if res.Promoted != "" && res.Demoted != "" {
		metrics.Successions.Inc()
	}
	return res, nil
}

// removeLocked removes a participant, runs succession and destroys the room
// when it empties. It must run inside room.Do.
func (o *Orchestrator) removeLocked(room *core.Room, s *core.RoomState, peer domain.PeerID) (domain.ParticipantSnapshot, domain.LeaveResult, error) {
	removed, newCreator, ok := s.Remove(peer)
	if !ok {
		return domain.ParticipantSnapshot{}, domain.LeaveResult{}, domain.ErrParticipantNotFound
	}
	o.Registry.Unbind(removed.ConnectionID, core.RoomRef{Room: s.ID(), Peer: peer})
	metrics.ParticipantsActive.Dec()
	if newCreator != "" {
		metrics.Successions.Inc()
	}

	res := domain.LeaveResult{Removed: true, NewCreator: newCreator}
	if s.Empty() {
		o.Rooms.StopRoom(room)
		res.RoomNowEmpty = true
	}
	return removed, res, nil
}

package orch

import (
	"fmt"

	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
)

// UpsertParticipant registers or merges a participant record in an existing
// room. It is the bookkeeping path used by trusted services and does not
// consult the access lock or the organization policy.
func (o *Orchestrator) UpsertParticipant(id domain.RoomID, u domain.ParticipantUpdate) (domain.ParticipantSnapshot, error) {
	if err := u.Validate(); err != nil {
		return domain.ParticipantSnapshot{}, err
	}
	room, err := o.room(id)
	if err != nil {
		return domain.ParticipantSnapshot{}, err
	}

	var out domain.ParticipantSnapshot
	err = room.Do(func(s *core.RoomState) error {
		res, err := o.upsertLocked(s, u)
		out = res.Participant
		return err
	})
	if err != nil {
		return domain.ParticipantSnapshot{}, fmt.Errorf("upsert %s in %s: %w", u.PeerID, id, err)
	}
	return out, nil
}

func (o *Orchestrator) GetParticipantByPeer(id domain.RoomID, peer domain.PeerID) (domain.ParticipantSnapshot, error) {
	if err := peer.Validate(); err != nil {
		return domain.ParticipantSnapshot{}, err
	}
	room, err := o.room(id)
	if err != nil {
		return domain.ParticipantSnapshot{}, err
	}

	var out domain.ParticipantSnapshot
	err = room.View(func(s *core.RoomState) error {
		p, ok := s.Get(peer)
		if !ok {
			return domain.ErrParticipantNotFound
		}
		out = p
		return nil
	})
	return out, err
}

// GetParticipantByConnection resolves a live connection to its room and peer.
func (o *Orchestrator) GetParticipantByConnection(conn domain.ConnectionID) (core.RoomRef, domain.ParticipantSnapshot, error) {
	if err := conn.Validate(); err != nil {
		return core.RoomRef{}, domain.ParticipantSnapshot{}, err
	}
	ref, ok := o.Registry.Lookup(conn)
	if !ok {
		return core.RoomRef{}, domain.ParticipantSnapshot{}, domain.ErrParticipantNotFound
	}
	room, ok := o.Rooms.Get(ref.Room)
	if !ok {
		return core.RoomRef{}, domain.ParticipantSnapshot{}, domain.ErrParticipantNotFound
	}

	var out domain.ParticipantSnapshot
	err := room.View(func(s *core.RoomState) error {
		p, ok := s.Get(ref.Peer)
		// The binding may have moved between the lookup and the view.
		if !ok || p.ConnectionID != conn {
			return domain.ErrParticipantNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return core.RoomRef{}, domain.ParticipantSnapshot{}, domain.ErrParticipantNotFound
	}
	return ref, out, nil
}

func (o *Orchestrator) AddResourceRef(id domain.RoomID, peer domain.PeerID, kind domain.ResourceKind, ref string) error {
	return o.editRefs(id, peer, kind, ref, (*core.RoomState).AddRef)
}

func (o *Orchestrator) RemoveResourceRef(id domain.RoomID, peer domain.PeerID, kind domain.ResourceKind, ref string) error {
	return o.editRefs(id, peer, kind, ref, (*core.RoomState).RemoveRef)
}

func (o *Orchestrator) editRefs(
	id domain.RoomID,
	peer domain.PeerID,
	kind domain.ResourceKind,
	ref string,
	apply func(*core.RoomState, domain.PeerID, domain.ResourceKind, string) error,
) error {
	if err := peer.Validate(); err != nil {
		return err
	}
	if err := kind.Validate(); err != nil {
		return err
	}
	if err := domain.ValidateID("resource_id", ref); err != nil {
		return err
	}
	room, err := o.room(id)
	if err != nil {
		return err
	}
	return room.Do(func(s *core.RoomState) error {
		return apply(s, peer, kind, ref)
	})
}

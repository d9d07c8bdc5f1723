package core

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room is one room and its exclusive lock. All state lives in RoomState and is
// reachable only through Do and View, so every sequence on a room runs as one
// critical section.
type Room struct {
	mu     sync.RWMutex
	closed atomic.Bool
	state  RoomState
}

func NewRoom(id domain.RoomID, createdAt time.Time) *Room {
	return &Room{
		state: RoomState{
			id:           id,
			createdAt:    createdAt,
			participants: make(map[domain.PeerID]*domain.Participant),
		},
	}
}

func (r *Room) ID() domain.RoomID { return r.state.id }

// Closed reports whether the room was destroyed. It is safe without the lock.
func (r *Room) Closed() bool { return r.closed.Load() }

// Do runs fn with exclusive access. A destroyed room yields ErrRoomNotFound.
func (r *Room) Do(fn func(s *RoomState) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Load() {
		return domain.ErrRoomNotFound
	}
	return fn(&r.state)
}

// View runs fn with shared access. fn must not mutate.
func (r *Room) View(fn func(s *RoomState) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed.Load() {
		return domain.ErrRoomNotFound
	}
	return fn(&r.state)
}

// Close marks the room destroyed. Callers must be inside Do.
func (r *Room) Close() {
	r.closed.Store(true)
	r.state.lock = nil
	r.state.policy = nil
	log.Info().Str("module", "core.room").Str("room", string(r.state.id)).Msg("room closed")
}

// RoomState is the participant directory and overlays of a room.
// Methods assume the owning Room's lock is held.
type RoomState struct {
	id           domain.RoomID
	createdAt    time.Time
	participants map[domain.PeerID]*domain.Participant
	lock         *domain.AccessLock
	policy       *domain.OrgRoomPolicy
}

// UpsertResult describes what an upsert changed.
type UpsertResult struct {
	Participant    domain.ParticipantSnapshot
	Created        bool
	PrevConnection domain.ConnectionID
	Demoted        domain.PeerID
	Promoted       domain.PeerID
}

func (s *RoomState) ID() domain.RoomID { return s.id }
func (s *RoomState) Len() int          { return len(s.participants) }
func (s *RoomState) Empty() bool       { return len(s.participants) == 0 }

func (s *RoomState) Has(peer domain.PeerID) bool {
	_, ok := s.participants[peer]
	return ok
}

func (s *RoomState) Get(peer domain.PeerID) (domain.ParticipantSnapshot, bool) {
	p, ok := s.participants[peer]
	if !ok {
		return domain.ParticipantSnapshot{}, false
	}
	return p.Snapshot(), true
}

// Creator returns the current creator, empty for an empty room.
func (s *RoomState) Creator() domain.PeerID {
	for id, p := range s.participants {
		if p.IsCreator {
			return id
		}
	}
	return ""
}

func (s *RoomState) IsCreator(peer domain.PeerID) bool {
	p, ok := s.participants[peer]
	return ok && p.IsCreator
}

// Upsert inserts or merges a participant and keeps exactly one creator.
func (s *RoomState) Upsert(u domain.ParticipantUpdate, now time.Time) (UpsertResult, error) {
	if u.DisplayName != "" {
		for id, p := range s.participants {
			if id != u.PeerID && strings.EqualFold(p.DisplayName, u.DisplayName) {
				return UpsertResult{}, domain.ErrDisplayNameTaken
			}
		}
	}

	var res UpsertResult
	existing, ok := s.participants[u.PeerID]

	var next *domain.Participant
	if !ok {
		next = NewParticipant(u)
		next.JoinedAt = now
		// The first participant is the creator whatever the record says.
		if s.Empty() {
			next.IsCreator = true
		}
		res.Created = true
	} else {
		if u.IsCreator != nil && !*u.IsCreator && existing.IsCreator && len(s.participants) == 1 {
			return UpsertResult{}, domain.ErrCreatorRequired
		}
		next = MergeParticipant(existing, u)
		res.PrevConnection = existing.ConnectionID
	}

	current := s.Creator()
	s.participants[u.PeerID] = next

	switch {
	case next.IsCreator && current != "" && current != next.PeerID:
		s.participants[current].IsCreator = false
		res.Demoted = current
		res.Promoted = next.PeerID
	case !next.IsCreator && current == next.PeerID:
		if succ := Successor(s.others(next.PeerID)); succ != nil {
			succ.IsCreator = true
			res.Demoted = next.PeerID
			res.Promoted = succ.PeerID
		}
	}

	res.Participant = next.Snapshot()
	log.Info().
		Str("module", "core.room").
		Str("room", string(s.id)).
		Str("peer", string(u.PeerID)).
		Bool("created", res.Created).
		Bool("creator", next.IsCreator).
		Msg("participant upserted")
	return res, nil
}

// Remove deletes a participant and, if it was the creator, promotes the
// successor in the same step. newCreator is empty when no succession happened.
func (s *RoomState) Remove(peer domain.PeerID) (removed domain.ParticipantSnapshot, newCreator domain.PeerID, ok bool) {
	p, ok := s.participants[peer]
	if !ok {
		return domain.ParticipantSnapshot{}, "", false
	}
	delete(s.participants, peer)

	if p.IsCreator {
		if succ := Successor(s.others("")); succ != nil {
			succ.IsCreator = true
			newCreator = succ.PeerID
		}
	}

	log.Info().
		Str("module", "core.room").
		Str("room", string(s.id)).
		Str("peer", string(peer)).
		Str("new_creator", string(newCreator)).
		Int("remaining", len(s.participants)).
		Msg("participant removed")
	return p.Snapshot(), newCreator, true
}

// AddRef records a media resource identifier for a participant.
func (s *RoomState) AddRef(peer domain.PeerID, kind domain.ResourceKind, id string) error {
	p, ok := s.participants[peer]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	p.Refs(kind)[id] = struct{}{}
	return nil
}

// RemoveRef forgets a media resource identifier. Unknown ids are ignored.
func (s *RoomState) RemoveRef(peer domain.PeerID, kind domain.ResourceKind, id string) error {
	p, ok := s.participants[peer]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	delete(p.Refs(kind), id)
	return nil
}

func (s *RoomState) AccessLock() *domain.AccessLock     { return s.lock }
func (s *RoomState) SetAccessLock(l *domain.AccessLock) { s.lock = l }
func (s *RoomState) Locked() bool                       { return s.lock != nil }
func (s *RoomState) Policy() *domain.OrgRoomPolicy      { return s.policy }
func (s *RoomState) SetPolicy(p *domain.OrgRoomPolicy)  { s.policy = p }

// List returns participants ordered by tenure.
func (s *RoomState) List() []domain.ParticipantSnapshot {
	ps := s.others("")
	slices.SortFunc(ps, func(a, b *domain.Participant) int {
		switch {
		case precedes(a, b):
			return -1
		case precedes(b, a):
			return 1
		}
		return 0
	})
	out := make([]domain.ParticipantSnapshot, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Snapshot())
	}
	return out
}

func (s *RoomState) Snapshot() domain.RoomSnapshot {
	return domain.RoomSnapshot{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		Participants: s.List(),
		Locked:       s.Locked(),
		Policy:       s.policy.Snapshot(),
	}
}

func (s *RoomState) Info() domain.RoomInfo {
	return domain.RoomInfo{
		ID:               s.id,
		CreatedAt:        s.createdAt,
		ParticipantCount: len(s.participants),
		Creator:          s.Creator(),
		Locked:           s.Locked(),
		Policy:           s.policy.Snapshot(),
	}
}

func (s *RoomState) others(except domain.PeerID) []*domain.Participant {
	out := make([]*domain.Participant, 0, len(s.participants))
	for id, p := range s.participants {
		if id != except {
			out = append(out, p)
		}
	}
	return out
}

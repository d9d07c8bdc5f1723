package app

import (
	"slices"
	"sync"

	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/rs/zerolog/log"
)

// OrgIndex lists the rooms created for each organization. Entries outlive
// their rooms and are pruned when a listing finds them gone.
type OrgIndex struct {
	mu    sync.Mutex
	rooms map[domain.OrgID]map[domain.RoomID]struct{}
}

func NewOrgIndex() *OrgIndex {
	return &OrgIndex{rooms: make(map[domain.OrgID]map[domain.RoomID]struct{})}
}

func (x *OrgIndex) Add(org domain.OrgID, room domain.RoomID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	set, ok := x.rooms[org]
	if !ok {
		set = make(map[domain.RoomID]struct{})
		x.rooms[org] = set
	}
	set[room] = struct{}{}
}

func (x *OrgIndex) Rooms(org domain.OrgID) []domain.RoomID {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]domain.RoomID, 0, len(x.rooms[org]))
	for id := range x.rooms[org] {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (x *OrgIndex) Prune(org domain.OrgID, rooms ...domain.RoomID) {
	if len(rooms) == 0 {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	set := x.rooms[org]
	for _, id := range rooms {
		delete(set, id)
	}
	if len(set) == 0 {
		delete(x.rooms, org)
	}
	log.Debug().Str("module", "app.orgs").Str("org", string(org)).Int("pruned", len(rooms)).Msg("pruned orphaned org rooms")
}

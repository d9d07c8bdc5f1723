package app

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/dkeye/Coordinator/internal/metrics"
	"github.com/rs/zerolog/log"
)

// RoomManagerImpl is the room registry. The map lock is never held while a
// room lock is being acquired; room locks may take the map lock (StopRoom).
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
	now   func() time.Time
}

var _ core.RoomManager = (*RoomManagerImpl)(nil)

func NewRoomManager(now func() time.Time) *RoomManagerImpl {
	if now == nil {
		now = time.Now
	}
	return &RoomManagerImpl{
		rooms: make(map[domain.RoomID]*core.Room),
		now:   now,
	}
}

func (f *RoomManagerImpl) GetOrCreate(id domain.RoomID) (*core.Room, bool) {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok && !room.Closed() {
		return room, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok && !room.Closed() {
		return room, false
	}
	f.dropClosedLocked(id)
	room = core.NewRoom(id, f.now())
	f.rooms[id] = room
	metrics.RoomsCreated.Inc()
	metrics.RoomsActive.Inc()
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room, true
}

func (f *RoomManagerImpl) CreateWith(id domain.RoomID, setup func(s *core.RoomState) error) (*core.Room, error) {
	room := core.NewRoom(id, f.now())
	if setup != nil {
		// Not yet published, nobody else can contend for the lock.
		if err := room.Do(setup); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.rooms[id]; ok && !cur.Closed() {
		return nil, fmt.Errorf("room %s: %w", id, domain.ErrAlreadyExists)
	}
	f.dropClosedLocked(id)
	f.rooms[id] = room
	metrics.RoomsCreated.Inc()
	metrics.RoomsActive.Inc()
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created with setup")
	return room, nil
}

func (f *RoomManagerImpl) Get(id domain.RoomID) (*core.Room, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	if !ok || room.Closed() {
		return nil, false
	}
	return room, true
}

func (f *RoomManagerImpl) StopRoom(room *core.Room) {
	room.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.rooms[room.ID()]; ok && cur == room {
		f.dropClosedLocked(room.ID())
	}
}

// dropClosedLocked removes a closed room still in the map. f.mu must be held.
func (f *RoomManagerImpl) dropClosedLocked(id domain.RoomID) {
	cur, ok := f.rooms[id]
	if !ok || !cur.Closed() {
		return
	}
	delete(f.rooms, id)
	metrics.RoomsDestroyed.Inc()
	metrics.RoomsActive.Dec()
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room destroyed")
}

func (f *RoomManagerImpl) List() []domain.RoomInfo {
	f.mu.RLock()
	rooms := make([]*core.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	f.mu.RUnlock()

	out := make([]domain.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		_ = r.View(func(s *core.RoomState) error {
			out = append(out, s.Info())
			return nil
		})
	}
	slices.SortFunc(out, func(a, b domain.RoomInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

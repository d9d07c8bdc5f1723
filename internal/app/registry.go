package app

import (
	"sync"

	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry is the process-wide connection index: which participant a live
// connection belongs to. Used to resolve abrupt disconnects without scanning rooms.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]core.RoomRef
}

var _ core.ConnectionIndex = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnectionID]core.RoomRef),
	}
}

func (r *Registry) Bind(conn domain.ConnectionID, ref core.RoomRef) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[conn]; ok {
		if cur == ref {
			return false, nil
		}
		log.Warn().
			Str("module", "app.registry").
			Str("conn", string(conn)).
			Str("bound_room", string(cur.Room)).
			Str("bound_peer", string(cur.Peer)).
			Msg("connection already bound")
		return false, domain.ErrConnectionBound
	}
	r.conns[conn] = ref
	log.Debug().Str("module", "app.registry").Str("conn", string(conn)).Str("room", string(ref.Room)).Str("peer", string(ref.Peer)).Msg("bound connection")
	return true, nil
}

func (r *Registry) Unbind(conn domain.ConnectionID, ref core.RoomRef) {
	if conn == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[conn]; ok && cur == ref {
		delete(r.conns, conn)
		log.Debug().Str("module", "app.registry").Str("conn", string(conn)).Msg("unbound connection")
	}
}

func (r *Registry) Lookup(conn domain.ConnectionID) (core.RoomRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.conns[conn]
	return ref, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

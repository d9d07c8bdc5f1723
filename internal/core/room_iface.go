package core

import "github.com/dkeye/Coordinator/internal/domain"

// RoomManager owns the set of live rooms.
type RoomManager interface {
	// GetOrCreate returns the live room for id, creating an empty one if needed.
	GetOrCreate(id domain.RoomID) (room *Room, created bool)
	// CreateWith creates a new room and runs setup on it before it becomes
	// visible. It fails with ErrAlreadyExists if id is taken by a live room.
	CreateWith(id domain.RoomID, setup func(s *RoomState) error) (*Room, error)
	// Get returns the live room for id.
	Get(id domain.RoomID) (*Room, bool)
	// StopRoom destroys a room. It must be called from inside room.Do.
	StopRoom(room *Room)
	List() []domain.RoomInfo
}

// RoomRef addresses one participant.
type RoomRef struct {
	Room domain.RoomID `json:"room_id"`
	Peer domain.PeerID `json:"peer_id"`
}

// ConnectionIndex resolves live connections to their participant.
type ConnectionIndex interface {
	// Bind claims conn for ref. It fails with ErrConnectionBound if conn
	// belongs to a different participant. claimed is false when conn was
	// already bound to ref.
	Bind(conn domain.ConnectionID, ref RoomRef) (claimed bool, err error)
	// Unbind releases conn if it is bound to ref.
	Unbind(conn domain.ConnectionID, ref RoomRef)
	Lookup(conn domain.ConnectionID) (RoomRef, bool)
}

package core

import "github.com/dkeye/Coordinator/internal/domain"

// NewParticipant builds a fresh record from an update.
func NewParticipant(u domain.ParticipantUpdate) *domain.Participant {
	p := &domain.Participant{
		PeerID:       u.PeerID,
		ConnectionID: u.ConnectionID,
		DisplayName:  u.DisplayName,
		Capabilities: u.Capabilities.Clone(),
		Transports:   u.Transports.Clone(),
		Producers:    u.Producers.Clone(),
		Consumers:    u.Consumers.Clone(),
	}
	if u.IsCreator != nil {
		p.IsCreator = *u.IsCreator
	}
	return p
}

// MergeParticipant folds an update onto an existing record and returns a new record.
//
//	peer_id            unchanged
//	connection_id      incoming when non-empty
//	display_name       incoming when non-empty
//	is_creator         incoming only when explicitly set
//	joined_at          unchanged
//	media_capabilities incoming when present
//	resource refs      incoming set when non-empty, per kind
//
// Creator uniqueness across the room is not this function's concern.
func MergeParticipant(existing *domain.Participant, u domain.ParticipantUpdate) *domain.Participant {
	out := &domain.Participant{
		PeerID:       existing.PeerID,
		ConnectionID: existing.ConnectionID,
		DisplayName:  existing.DisplayName,
		IsCreator:    existing.IsCreator,
		JoinedAt:     existing.JoinedAt,
		Capabilities: existing.Capabilities.Clone(),
		Transports:   existing.Transports.Clone(),
		Producers:    existing.Producers.Clone(),
		Consumers:    existing.Consumers.Clone(),
	}
	if u.ConnectionID != "" {
		out.ConnectionID = u.ConnectionID
	}
	if u.DisplayName != "" {
		out.DisplayName = u.DisplayName
	}
	if u.IsCreator != nil {
		out.IsCreator = *u.IsCreator
	}
	if u.Capabilities != nil {
		out.Capabilities = u.Capabilities.Clone()
	}
	if len(u.Transports) > 0 {
		out.Transports = u.Transports.Clone()
	}
	if len(u.Producers) > 0 {
		out.Producers = u.Producers.Clone()
	}
	if len(u.Consumers) > 0 {
		out.Consumers = u.Consumers.Clone()
	}
	return out
}

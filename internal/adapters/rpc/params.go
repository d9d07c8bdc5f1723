package rpc

import (
	"encoding/json"

	"github.com/dkeye/Coordinator/internal/core"
	"github.com/dkeye/Coordinator/internal/domain"
)

// Request parameters, one struct per shape. Field names follow the wire.

type CreateRoomParams struct {
	RoomID string `json:"room_id" validate:"omitempty,max=128"`
}

type RoomParams struct {
	RoomID string `json:"room_id" validate:"required,max=128"`
}

type JoinRoomParams struct {
	RoomID            string          `json:"room_id" validate:"required,max=128"`
	PeerID            string          `json:"peer_id" validate:"required,max=128"`
	ConnectionID      string          `json:"connection_id" validate:"omitempty,max=128"`
	DisplayName       string          `json:"display_name" validate:"max=64"`
	MediaCapabilities json.RawMessage `json:"media_capabilities"`
	Secret            string          `json:"secret" validate:"max=72"`
	OrgID             string          `json:"org_id" validate:"omitempty,max=128"`
	Role              string          `json:"role" validate:"omitempty,max=64"`
}

type LeaveRoomParams struct {
	RoomID       string `json:"room_id" validate:"required,max=128"`
	PeerID       string `json:"peer_id" validate:"required,max=128"`
	ConnectionID string `json:"connection_id" validate:"omitempty,max=128"`
}

type PeerParams struct {
	RoomID string `json:"room_id" validate:"required,max=128"`
	PeerID string `json:"peer_id" validate:"required,max=128"`
}

type ConnectionParams struct {
	ConnectionID string `json:"connection_id" validate:"required,max=128"`
}

type ParticipantParams struct {
	PeerID            string          `json:"peer_id" validate:"required,max=128"`
	ConnectionID      string          `json:"connection_id" validate:"omitempty,max=128"`
	DisplayName       string          `json:"display_name" validate:"max=64"`
	IsCreator         *bool           `json:"is_creator"`
	MediaCapabilities json.RawMessage `json:"media_capabilities"`
	TransportRefs     []string        `json:"transport_refs" validate:"dive,required,max=128"`
	ProducerRefs      []string        `json:"producer_refs" validate:"dive,required,max=128"`
	ConsumerRefs      []string        `json:"consumer_refs" validate:"dive,required,max=128"`
}

// Update decodes the participant into a domain update. Capabilities are
// decoded here and nowhere else.
func (p ParticipantParams) Update() (domain.ParticipantUpdate, error) {
	caps, err := domain.DecodeCapabilities(p.MediaCapabilities)
	if err != nil {
		return domain.ParticipantUpdate{}, err
	}
	return domain.ParticipantUpdate{
		PeerID:       domain.PeerID(p.PeerID),
		ConnectionID: domain.ConnectionID(p.ConnectionID),
		DisplayName:  p.DisplayName,
		IsCreator:    p.IsCreator,
		Capabilities: caps,
		Transports:   domain.NewResourceSet(p.TransportRefs...),
		Producers:    domain.NewResourceSet(p.ProducerRefs...),
		Consumers:    domain.NewResourceSet(p.ConsumerRefs...),
	}, nil
}

type UpsertParticipantParams struct {
	RoomID      string            `json:"room_id" validate:"required,max=128"`
	Participant ParticipantParams `json:"participant"`
}

type LockRoomParams struct {
	RoomID          string `json:"room_id" validate:"required,max=128"`
	Secret          string `json:"secret" validate:"required,max=72"`
	RequesterPeerID string `json:"requester_peer_id" validate:"required,max=128"`
}

type UnlockRoomParams struct {
	RoomID          string `json:"room_id" validate:"required,max=128"`
	RequesterPeerID string `json:"requester_peer_id" validate:"required,max=128"`
}

type VerifyRoomSecretParams struct {
	RoomID string `json:"room_id" validate:"required,max=128"`
	Secret string `json:"secret"`
}

type CreateOrgRoomParams struct {
	CreatorPeerID  string   `json:"creator_peer_id" validate:"required,max=128"`
	OrgID          string   `json:"org_id" validate:"required_if=Visibility organization,max=128"`
	Visibility     string   `json:"visibility" validate:"required,oneof=public organization"`
	AccessLevel    string   `json:"access_level" validate:"omitempty,oneof=org_member invite_only admin_only"`
	InvitedPeerIDs []string `json:"invited_peer_ids" validate:"dive,required,max=128"`
	Secret         string   `json:"secret" validate:"max=72"`
}

type VerifyRoomAccessParams struct {
	RoomID       string `json:"room_id" validate:"required,max=128"`
	CallerPeerID string `json:"caller_peer_id" validate:"required,max=128"`
	CallerOrgID  string `json:"caller_org_id" validate:"omitempty,max=128"`
	CallerRole   string `json:"caller_role" validate:"omitempty,max=64"`
}

type OrgParams struct {
	OrgID string `json:"org_id" validate:"required,max=128"`
}

type ResourceRefParams struct {
	RoomID     string `json:"room_id" validate:"required,max=128"`
	PeerID     string `json:"peer_id" validate:"required,max=128"`
	Kind       string `json:"kind" validate:"required,oneof=transport producer consumer"`
	ResourceID string `json:"resource_id" validate:"required,max=128"`
}

// Results that are not plain domain values.

type CreateRoomResult struct {
	RoomID  domain.RoomID `json:"room_id"`
	Created bool          `json:"created"`
}

type ExistsResult struct {
	Exists bool `json:"exists"`
}

type LockedResult struct {
	Locked bool `json:"is_locked"`
}

type SecretResult struct {
	Valid bool `json:"valid"`
}

type ConnectionResult struct {
	core.RoomRef
	Participant domain.ParticipantSnapshot `json:"participant"`
}

type RemovedResult struct {
	domain.LeaveResult
	Participant domain.ParticipantSnapshot `json:"participant"`
}

type RoomIDResult struct {
	RoomID domain.RoomID `json:"room_id"`
}

type RoomsResult struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}

type OKResult struct {
	OK bool `json:"ok"`
}

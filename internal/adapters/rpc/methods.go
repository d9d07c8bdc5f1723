package rpc

import (
	"context"

	"github.com/dkeye/Coordinator/internal/app/orch"
	"github.com/dkeye/Coordinator/internal/domain"
)

func (d *Dispatcher) createRoom(_ context.Context, p CreateRoomParams) (any, error) {
	id, created, err := d.orch.CreateRoom(domain.RoomID(p.RoomID))
	if err != nil {
		return nil, err
	}
	return CreateRoomResult{RoomID: id, Created: created}, nil
}

func (d *Dispatcher) roomExists(_ context.Context, p RoomParams) (any, error) {
	ok, err := d.orch.RoomExists(domain.RoomID(p.RoomID))
	if err != nil {
		return nil, err
	}
	return ExistsResult{Exists: ok}, nil
}

func (d *Dispatcher) joinRoom(_ context.Context, p JoinRoomParams) (any, error) {
	caps, err := domain.DecodeCapabilities(p.MediaCapabilities)
	if err != nil {
		return nil, err
	}
	return d.orch.Join(orch.JoinRequest{
		Room:         domain.RoomID(p.RoomID),
		Peer:         domain.PeerID(p.PeerID),
		Connection:   domain.ConnectionID(p.ConnectionID),
		DisplayName:  p.DisplayName,
		Capabilities: caps,
		Secret:       p.Secret,
		OrgID:        domain.OrgID(p.OrgID),
		Role:         domain.Role(p.Role),
	})
}

func (d *Dispatcher) leaveRoom(_ context.Context, p LeaveRoomParams) (any, error) {
	return d.orch.Leave(domain.RoomID(p.RoomID), domain.PeerID(p.PeerID), domain.ConnectionID(p.ConnectionID))
}

func (d *Dispatcher) getRoom(_ context.Context, p RoomParams) (any, error) {
	return d.orch.GetRoom(domain.RoomID(p.RoomID))
}

func (d *Dispatcher) listRooms(_ context.Context, _ struct{}) (any, error) {
	return RoomsResult{Rooms: d.orch.ListRooms()}, nil
}

func (d *Dispatcher) upsertParticipant(_ context.Context, p UpsertParticipantParams) (any, error) {
	u, err := p.Participant.Update()
	if err != nil {
		return nil, err
	}
	return d.orch.UpsertParticipant(domain.RoomID(p.RoomID), u)
}

func (d *Dispatcher) getParticipantByPeer(_ context.Context, p PeerParams) (any, error) {
	return d.orch.GetParticipantByPeer(domain.RoomID(p.RoomID), domain.PeerID(p.PeerID))
}

func (d *Dispatcher) getParticipantByConnection(_ context.Context, p ConnectionParams) (any, error) {
	ref, part, err := d.orch.GetParticipantByConnection(domain.ConnectionID(p.ConnectionID))
	if err != nil {
		return nil, err
	}
	return ConnectionResult{RoomRef: ref, Participant: part}, nil
}

func (d *Dispatcher) removeParticipant(_ context.Context, p PeerParams) (any, error) {
	removed, res, err := d.orch.RemoveParticipant(domain.RoomID(p.RoomID), domain.PeerID(p.PeerID))
	if err != nil {
		return nil, err
	}
	return RemovedResult{LeaveResult: res, Participant: removed}, nil
}

func (d *Dispatcher) addResourceRef(_ context.Context, p ResourceRefParams) (any, error) {
	err := d.orch.AddResourceRef(domain.RoomID(p.RoomID), domain.PeerID(p.PeerID), domain.ResourceKind(p.Kind), p.ResourceID)
	if err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (d *Dispatcher) removeResourceRef(_ context.Context, p ResourceRefParams) (any, error) {
	err := d.orch.RemoveResourceRef(domain.RoomID(p.RoomID), domain.PeerID(p.PeerID), domain.ResourceKind(p.Kind), p.ResourceID)
	if err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (d *Dispatcher) lockRoom(_ context.Context, p LockRoomParams) (any, error) {
	if err := d.orch.LockRoom(domain.RoomID(p.RoomID), p.Secret, domain.PeerID(p.RequesterPeerID)); err != nil {
		return nil, err
	}
	return LockedResult{Locked: true}, nil
}

func (d *Dispatcher) unlockRoom(_ context.Context, p UnlockRoomParams) (any, error) {
	if err := d.orch.UnlockRoom(domain.RoomID(p.RoomID), domain.PeerID(p.RequesterPeerID)); err != nil {
		return nil, err
	}
	return LockedResult{Locked: false}, nil
}

func (d *Dispatcher) isRoomLocked(_ context.Context, p RoomParams) (any, error) {
	locked, err := d.orch.IsRoomLocked(domain.RoomID(p.RoomID))
	if err != nil {
		return nil, err
	}
	return LockedResult{Locked: locked}, nil
}

func (d *Dispatcher) verifyRoomSecret(_ context.Context, p VerifyRoomSecretParams) (any, error) {
	ok, err := d.orch.VerifyRoomSecret(domain.RoomID(p.RoomID), p.Secret)
	if err != nil {
		return nil, err
	}
	return SecretResult{Valid: ok}, nil
}

func (d *Dispatcher) createOrgRoom(_ context.Context, p CreateOrgRoomParams) (any, error) {
	invited := make([]domain.PeerID, 0, len(p.InvitedPeerIDs))
	for _, id := range p.InvitedPeerIDs {
		invited = append(invited, domain.PeerID(id))
	}
	id, err := d.orch.CreateOrgRoom(orch.CreateOrgRoomRequest{
		Creator:     domain.PeerID(p.CreatorPeerID),
		OrgID:       domain.OrgID(p.OrgID),
		Visibility:  domain.Visibility(p.Visibility),
		AccessLevel: domain.AccessLevel(p.AccessLevel),
		Invited:     invited,
		Secret:      p.Secret,
	})
	if err != nil {
		return nil, err
	}
	return RoomIDResult{RoomID: id}, nil
}

func (d *Dispatcher) verifyRoomAccess(_ context.Context, p VerifyRoomAccessParams) (any, error) {
	return d.orch.VerifyRoomAccess(domain.RoomID(p.RoomID), domain.Caller{
		PeerID: domain.PeerID(p.CallerPeerID),
		OrgID:  domain.OrgID(p.CallerOrgID),
		Role:   domain.Role(p.CallerRole),
	})
}

func (d *Dispatcher) listOrgRooms(_ context.Context, p OrgParams) (any, error) {
	rooms, err := d.orch.ListOrgRooms(domain.OrgID(p.OrgID))
	if err != nil {
		return nil, err
	}
	return RoomsResult{Rooms: rooms}, nil
}

package domain

import (
	"fmt"
	"slices"
	"time"
)

type RoomID string

func (r RoomID) Validate() error { return ValidateID("room_id", string(r)) }

type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityOrganization Visibility = "organization"
)

type AccessLevel string

const (
	AccessOrgMember  AccessLevel = "org_member"
	AccessInviteOnly AccessLevel = "invite_only"
	AccessAdminOnly  AccessLevel = "admin_only"
)

// AccessLock gates joins to a room behind a secret. Only the hash is held.
type AccessLock struct {
	SecretHash []byte
	Owner      PeerID
	LockedAt   time.Time
}

// OrgRoomPolicy restricts who may join a room.
type OrgRoomPolicy struct {
	Visibility  Visibility
	OrgID       OrgID
	AccessLevel AccessLevel
	Invited     map[PeerID]struct{}
	Host        PeerID
	CreatedAt   time.Time
}

func (p *OrgRoomPolicy) Validate() error {
	switch p.Visibility {
	case VisibilityPublic:
	case VisibilityOrganization:
		if err := p.OrgID.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown visibility %q", ErrInvalidArgument, p.Visibility)
	}
	switch p.AccessLevel {
	case AccessOrgMember, AccessInviteOnly, AccessAdminOnly:
	default:
		return fmt.Errorf("%w: unknown access level %q", ErrInvalidArgument, p.AccessLevel)
	}
	for peer := range p.Invited {
		if err := peer.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p *OrgRoomPolicy) IsInvited(peer PeerID) bool {
	_, ok := p.Invited[peer]
	return ok
}

func (p *OrgRoomPolicy) Snapshot() *PolicySnapshot {
	if p == nil {
		return nil
	}
	invited := make([]PeerID, 0, len(p.Invited))
	for peer := range p.Invited {
		invited = append(invited, peer)
	}
	slices.Sort(invited)
	return &PolicySnapshot{
		Visibility:  p.Visibility,
		OrgID:       p.OrgID,
		AccessLevel: p.AccessLevel,
		Invited:     invited,
		Host:        p.Host,
	}
}

type PolicySnapshot struct {
	Visibility  Visibility  `json:"visibility"`
	OrgID       OrgID       `json:"org_id,omitempty"`
	AccessLevel AccessLevel `json:"access_level"`
	Invited     []PeerID    `json:"invited_peer_ids"`
	Host        PeerID      `json:"host_peer_id"`
}

// RoomSnapshot is the full read-only view returned by GetRoom.
type RoomSnapshot struct {
	ID           RoomID                `json:"room_id"`
	CreatedAt    time.Time             `json:"created_at"`
	Participants []ParticipantSnapshot `json:"participants"`
	Locked       bool                  `json:"is_locked"`
	Policy       *PolicySnapshot       `json:"policy,omitempty"`
}

// RoomInfo is the listing view of a room.
type RoomInfo struct {
	ID               RoomID          `json:"room_id"`
	CreatedAt        time.Time       `json:"created_at"`
	ParticipantCount int             `json:"participant_count"`
	Creator          PeerID          `json:"creator,omitempty"`
	Locked           bool            `json:"is_locked"`
	Policy           *PolicySnapshot `json:"policy,omitempty"`
}

// AccessDecision is the result of evaluating a room policy for a caller.
type AccessDecision struct {
	Allowed bool       `json:"allowed"`
	Reason  DenyReason `json:"reason,omitempty"`
}

func Allow() AccessDecision                 { return AccessDecision{Allowed: true} }
func Deny(reason DenyReason) AccessDecision { return AccessDecision{Reason: reason} }

// LeaveResult reports the outcome of a removal.
type LeaveResult struct {
	Removed      bool   `json:"removed"`
	NewCreator   PeerID `json:"new_creator,omitempty"`
	RoomNowEmpty bool   `json:"room_now_empty"`
}

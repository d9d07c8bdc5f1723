package app

import (
	"testing"

	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestOrgPolicyDecisionTable(t *testing.T) {
	orgRoom := func(level domain.AccessLevel, invited ...domain.PeerID) *domain.OrgRoomPolicy {
		p := &domain.OrgRoomPolicy{
			Visibility:  domain.VisibilityOrganization,
			OrgID:       "acme",
			AccessLevel: level,
			Invited:     map[domain.PeerID]struct{}{},
			Host:        "host",
		}
		for _, peer := range invited {
			p.Invited[peer] = struct{}{}
		}
		return p
	}
	member := domain.Caller{PeerID: "b", OrgID: "acme", Role: domain.RoleMember}
	admin := domain.Caller{PeerID: "b", OrgID: "acme", Role: domain.RoleAdmin}

	cases := []struct {
		name   string
		open   bool
		policy *domain.OrgRoomPolicy
		caller domain.Caller
		want   domain.AccessDecision
	}{
		{"legacy open", true, nil, domain.Caller{PeerID: "b"}, domain.Allow()},
		{"legacy closed", false, nil, domain.Caller{PeerID: "b"}, domain.Deny(domain.ReasonNoPolicy)},
		{"public", true, &domain.OrgRoomPolicy{Visibility: domain.VisibilityPublic, AccessLevel: domain.AccessAdminOnly}, domain.Caller{PeerID: "b"}, domain.Allow()},
		{"anonymous", true, orgRoom(domain.AccessOrgMember), domain.Caller{PeerID: "b"}, domain.Deny(domain.ReasonNotAuthenticated)},
		{"org without role", true, orgRoom(domain.AccessOrgMember), domain.Caller{PeerID: "b", OrgID: "acme"}, domain.Deny(domain.ReasonNotAuthenticated)},
		{"other org", true, orgRoom(domain.AccessOrgMember), domain.Caller{PeerID: "b", OrgID: "other-org", Role: domain.RoleMember}, domain.Deny(domain.ReasonNotOrgMember)},
		{"member", true, orgRoom(domain.AccessOrgMember), member, domain.Allow()},
		{"admin only as member", true, orgRoom(domain.AccessAdminOnly), member, domain.Deny(domain.ReasonInsufficientPermissions)},
		{"admin only as admin", true, orgRoom(domain.AccessAdminOnly), admin, domain.Allow()},
		{"invite only uninvited", true, orgRoom(domain.AccessInviteOnly, "c"), member, domain.Deny(domain.ReasonNotInvited)},
		{"invite only invited", true, orgRoom(domain.AccessInviteOnly, "b"), member, domain.Allow()},
		{"org check before role", true, orgRoom(domain.AccessAdminOnly), domain.Caller{PeerID: "b", OrgID: "x", Role: domain.RoleOwner}, domain.Deny(domain.ReasonNotOrgMember)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewOrgPolicy(tc.open, []string{"owner", "admin"})
			assert.Equal(t, tc.want, p.Evaluate(tc.policy, tc.caller))
		})
	}
}

func TestOrgPolicyCustomElevatedRoles(t *testing.T) {
	p := NewOrgPolicy(true, []string{"moderator"})
	room := &domain.OrgRoomPolicy{Visibility: domain.VisibilityOrganization, OrgID: "acme", AccessLevel: domain.AccessAdminOnly}

	assert.True(t, p.Evaluate(room, domain.Caller{PeerID: "b", OrgID: "acme", Role: "moderator"}).Allowed)
	assert.Equal(t,
		domain.Deny(domain.ReasonInsufficientPermissions),
		p.Evaluate(room, domain.Caller{PeerID: "b", OrgID: "acme", Role: domain.RoleAdmin}),
	)
}

package app

import "github.com/dkeye/Coordinator/internal/domain"

// Policy decides whether a caller may join a room given its policy record.
// A nil record means the room has no organization overlay.
type Policy interface {
	Evaluate(p *domain.OrgRoomPolicy, caller domain.Caller) domain.AccessDecision
}

// OrgPolicy is the organization decision table.
type OrgPolicy struct {
	// LegacyOpen allows rooms without a policy record to anyone.
	LegacyOpen bool
	Elevated   map[domain.Role]struct{}
}

func NewOrgPolicy(legacyOpen bool, elevated []string) OrgPolicy {
	p := OrgPolicy{LegacyOpen: legacyOpen, Elevated: make(map[domain.Role]struct{}, len(elevated))}
	for _, r := range elevated {
		p.Elevated[domain.Role(r)] = struct{}{}
	}
	return p
}

func (o OrgPolicy) Evaluate(p *domain.OrgRoomPolicy, caller domain.Caller) domain.AccessDecision {
	if p == nil {
		if o.LegacyOpen {
			return domain.Allow()
		}
		return domain.Deny(domain.ReasonNoPolicy)
	}
	if p.Visibility == domain.VisibilityPublic {
		return domain.Allow()
	}
	if !caller.Authenticated() {
		return domain.Deny(domain.ReasonNotAuthenticated)
	}
	if caller.OrgID != p.OrgID {
		return domain.Deny(domain.ReasonNotOrgMember)
	}
	switch p.AccessLevel {
	case domain.AccessAdminOnly:
		if _, ok := o.Elevated[caller.Role]; !ok {
			return domain.Deny(domain.ReasonInsufficientPermissions)
		}
	case domain.AccessInviteOnly:
		if !p.IsInvited(caller.PeerID) {
			return domain.Deny(domain.ReasonNotInvited)
		}
	}
	return domain.Allow()
}

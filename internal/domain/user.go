// Package domain contains entities and value types without coordination logic.
package domain

import (
	"fmt"
	"unicode"
)

const (
	MaxIDLen          = 128
	MaxDisplayNameLen = 64
)

type (
	PeerID       string
	ConnectionID string
	OrgID        string
	Role         string
)

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Caller is the identity the gateway resolved before calling in.
// The coordinator never looks it up itself.
type Caller struct {
	PeerID PeerID `json:"peer_id"`
	OrgID  OrgID  `json:"org_id,omitempty"`
	Role   Role   `json:"role,omitempty"`
}

// Authenticated reports whether the caller carries organization identity.
func (c Caller) Authenticated() bool {
	return c.OrgID != "" && c.Role != ""
}

// ValidateID checks an opaque identifier: non-empty, bounded, printable, no spaces.
func ValidateID(field, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArgument, field)
	}
	if len(id) > MaxIDLen {
		return fmt.Errorf("%w: %s longer than %d bytes", ErrInvalidArgument, field, MaxIDLen)
	}
	for _, r := range id {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return fmt.Errorf("%w: %s contains invalid character %q", ErrInvalidArgument, field, r)
		}
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if len(name) > MaxDisplayNameLen {
		return fmt.Errorf("%w: display name longer than %d bytes", ErrInvalidArgument, MaxDisplayNameLen)
	}
	return nil
}

func (p PeerID) Validate() error       { return ValidateID("peer_id", string(p)) }
func (c ConnectionID) Validate() error { return ValidateID("connection_id", string(c)) }
func (o OrgID) Validate() error        { return ValidateID("org_id", string(o)) }

package domain

import (
	"fmt"
	"slices"
	"time"
)

type ResourceKind string

const (
	ResourceTransport ResourceKind = "transport"
	ResourceProducer  ResourceKind = "producer"
	ResourceConsumer  ResourceKind = "consumer"
)

func (k ResourceKind) Validate() error {
	switch k {
	case ResourceTransport, ResourceProducer, ResourceConsumer:
		return nil
	}
	return fmt.Errorf("%w: unknown resource kind %q", ErrInvalidArgument, k)
}

// ResourceSet is a set of opaque media resource identifiers.
// The coordinator only does bookkeeping on them.
type ResourceSet map[string]struct{}

func NewResourceSet(ids ...string) ResourceSet {
	s := make(ResourceSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Sorted returns the identifiers in lexical order, never nil.
func (s ResourceSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s ResourceSet) Clone() ResourceSet {
	out := make(ResourceSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Participant is a peer's membership record within one room.
type Participant struct {
	PeerID       PeerID
	ConnectionID ConnectionID
	DisplayName  string
	IsCreator    bool
	JoinedAt     time.Time
	Capabilities *MediaCapabilities
	Transports   ResourceSet
	Producers    ResourceSet
	Consumers    ResourceSet
}

// Refs returns the set for a resource kind.
func (p *Participant) Refs(kind ResourceKind) ResourceSet {
	switch kind {
	case ResourceTransport:
		if p.Transports == nil {
			p.Transports = ResourceSet{}
		}
		return p.Transports
	case ResourceProducer:
		if p.Producers == nil {
			p.Producers = ResourceSet{}
		}
		return p.Producers
	case ResourceConsumer:
		if p.Consumers == nil {
			p.Consumers = ResourceSet{}
		}
		return p.Consumers
	}
	return nil
}

// Snapshot copies the participant into its read-only view.
func (p *Participant) Snapshot() ParticipantSnapshot {
	return ParticipantSnapshot{
		PeerID:       p.PeerID,
		ConnectionID: p.ConnectionID,
		DisplayName:  p.DisplayName,
		IsCreator:    p.IsCreator,
		JoinedAt:     p.JoinedAt,
		Capabilities: p.Capabilities.Clone(),
		Transports:   p.Transports.Sorted(),
		Producers:    p.Producers.Sorted(),
		Consumers:    p.Consumers.Sorted(),
	}
}

// ParticipantSnapshot is a serializable copy; it never aliases registry state.
type ParticipantSnapshot struct {
	PeerID       PeerID             `json:"peer_id"`
	ConnectionID ConnectionID       `json:"connection_id"`
	DisplayName  string             `json:"display_name,omitempty"`
	IsCreator    bool               `json:"is_creator"`
	JoinedAt     time.Time          `json:"joined_at"`
	Capabilities *MediaCapabilities `json:"media_capabilities"`
	Transports   []string           `json:"transport_refs"`
	Producers    []string           `json:"producer_refs"`
	Consumers    []string           `json:"consumer_refs"`
}

// ParticipantUpdate is an incoming participant record for upsert.
// Nil IsCreator means "leave the creator flag as it is".
type ParticipantUpdate struct {
	PeerID       PeerID
	ConnectionID ConnectionID
	DisplayName  string
	IsCreator    *bool
	Capabilities *MediaCapabilities
	Transports   ResourceSet
	Producers    ResourceSet
	Consumers    ResourceSet
}

func (u ParticipantUpdate) Validate() error {
	if err := u.PeerID.Validate(); err != nil {
		return err
	}
	if u.ConnectionID != "" {
		if err := u.ConnectionID.Validate(); err != nil {
			return err
		}
	}
	return ValidateDisplayName(u.DisplayName)
}

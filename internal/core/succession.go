package core

import "github.com/dkeye/Coordinator/internal/domain"

// Successor picks the next creator among the remaining participants: the
// longest tenure wins, ties go to the lexically smallest peer id.
// It returns nil for an empty set.
func Successor(remaining []*domain.Participant) *domain.Participant {
	var best *domain.Participant
	for _, p := range remaining {
		if best == nil || precedes(p, best) {
			best = p
		}
	}
	return best
}

func precedes(a, b *domain.Participant) bool {
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.Before(b.JoinedAt)
	}
	return a.PeerID < b.PeerID
}

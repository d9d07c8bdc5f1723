package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{nil, ""},
		{ErrRoomNotFound, "NotFound"},
		{fmt.Errorf("leave r1: %w", ErrParticipantNotFound), "NotFound"},
		{ErrConnectionBound, "AlreadyExists"},
		{ErrNotCreator, "Unauthorized"},
		{DenyAccess(ReasonNotInvited), "AccessDenied"},
		{ErrEmptySecret, "InvalidArgument"},
		{ErrDisplayNameTaken, "Conflict"},
		{errors.New("boom"), "Internal"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, Kind(tc.err), "%v", tc.err)
	}
}

func TestReasonOf(t *testing.T) {
	err := fmt.Errorf("join r1: %w", DenyAccess(ReasonInvalidSecret))
	reason, ok := ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, ReasonInvalidSecret, reason)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, ok = ReasonOf(ErrRoomNotFound)
	assert.False(t, ok)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("room_id", "room-1"))
	assert.NoError(t, ValidateID("room_id", "7f1c5a3e-2f0b-4c8e-9a51-3c7d1e0b9f42"))

	for _, bad := range []string{"", "has space", "tab\there", "nl\n", strings.Repeat("x", MaxIDLen+1), "bell\a"} {
		err := ValidateID("room_id", bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, "%q", bad)
	}
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, ValidateDisplayName(""))
	assert.NoError(t, ValidateDisplayName("Ada Lovelace"))
	assert.ErrorIs(t, ValidateDisplayName(strings.Repeat("a", MaxDisplayNameLen+1)), ErrInvalidArgument)
}

func TestPolicyValidate(t *testing.T) {
	ok := &OrgRoomPolicy{Visibility: VisibilityOrganization, OrgID: "acme", AccessLevel: AccessOrgMember}
	assert.NoError(t, ok.Validate())

	noOrg := &OrgRoomPolicy{Visibility: VisibilityOrganization, AccessLevel: AccessOrgMember}
	assert.ErrorIs(t, noOrg.Validate(), ErrInvalidArgument)

	badLevel := &OrgRoomPolicy{Visibility: VisibilityPublic, AccessLevel: "everyone"}
	assert.ErrorIs(t, badLevel.Validate(), ErrInvalidArgument)

	badVis := &OrgRoomPolicy{Visibility: "secret", AccessLevel: AccessOrgMember}
	assert.ErrorIs(t, badVis.Validate(), ErrInvalidArgument)
}

func TestPolicySnapshotSortsInvited(t *testing.T) {
	p := &OrgRoomPolicy{
		Visibility:  VisibilityOrganization,
		OrgID:       "acme",
		AccessLevel: AccessInviteOnly,
		Invited:     map[PeerID]struct{}{"c": {}, "a": {}, "b": {}},
		Host:        "a",
	}
	snap := p.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, []PeerID{"a", "b", "c"}, snap.Invited)

	var none *OrgRoomPolicy
	assert.Nil(t, none.Snapshot())
}

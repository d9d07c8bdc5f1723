package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by the coordinator wraps exactly one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAccessDenied    = errors.New("access denied")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)
	ErrNotCreator          = fmt.Errorf("%w: requester is not the room creator", ErrUnauthorized)
	ErrConnectionBound     = fmt.Errorf("connection %w in another room or for another peer", ErrAlreadyExists)
	ErrDisplayNameTaken    = fmt.Errorf("%w: display name already taken in room", ErrConflict)
	ErrEmptySecret         = fmt.Errorf("%w: secret is empty", ErrInvalidArgument)
	ErrSecretTooLong       = fmt.Errorf("%w: secret longer than 72 bytes", ErrInvalidArgument)
	ErrCreatorRequired     = fmt.Errorf("%w: a non-empty room must keep a creator", ErrInvalidArgument)
)

type DenyReason string

const (
	ReasonRoomNotFound            DenyReason = "ROOM_NOT_FOUND"
	ReasonNoPolicy                DenyReason = "NO_POLICY"
	ReasonNotAuthenticated        DenyReason = "NOT_AUTHENTICATED"
	ReasonNotOrgMember            DenyReason = "NOT_ORG_MEMBER"
	ReasonInsufficientPermissions DenyReason = "INSUFFICIENT_PERMISSIONS"
	ReasonNotInvited              DenyReason = "NOT_INVITED"
	ReasonInvalidSecret           DenyReason = "INVALID_SECRET"
	ReasonTooManyAttempts         DenyReason = "TOO_MANY_ATTEMPTS"
)

// AccessDeniedError is an AccessDenied failure with its machine-readable reason.
type AccessDeniedError struct {
	Reason DenyReason
}

func DenyAccess(reason DenyReason) error {
	return &AccessDeniedError{Reason: reason}
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

func (e *AccessDeniedError) Unwrap() error { return ErrAccessDenied }

// ReasonOf extracts the deny reason from err, if any.
func ReasonOf(err error) (DenyReason, bool) {
	var ade *AccessDeniedError
	if errors.As(err, &ade) {
		return ade.Reason, true
	}
	return "", false
}

// Kind names the error kind of err for wire responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrAlreadyExists):
		return "AlreadyExists"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrAccessDenied):
		return "AccessDenied"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgument"
	case errors.Is(err, ErrConflict):
		return "Conflict"
	default:
		return "Internal"
	}
}

package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkeye/Coordinator/internal/domain"
)

// Request is the WebSocket call envelope.
type Request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response answers a Request with the same id.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

type Error struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

func ErrorOf(err error) *Error {
	if err == nil {
		return nil
	}
	e := &Error{Kind: domain.Kind(err), Message: err.Error()}
	if reason, ok := domain.ReasonOf(err); ok {
		e.Reason = string(reason)
	}
	return e
}

// HTTPStatus maps an error kind to a status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

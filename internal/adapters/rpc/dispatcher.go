// Package rpc maps named remote calls onto the coordinator facade. Both the
// HTTP and the WebSocket transports go through the same Dispatcher.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dkeye/Coordinator/internal/app/orch"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/dkeye/Coordinator/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var ErrUnknownMethod = fmt.Errorf("method %w", domain.ErrNotFound)

type handler func(ctx context.Context, params json.RawMessage) (any, error)

type Dispatcher struct {
	orch     *orch.Orchestrator
	validate *validator.Validate
	methods  map[string]handler
}

func NewDispatcher(o *orch.Orchestrator) *Dispatcher {
	d := &Dispatcher{
		orch:     o,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	d.methods = map[string]handler{
		"CreateRoom":                 bind(d, d.createRoom),
		"RoomExists":                 bind(d, d.roomExists),
		"JoinRoom":                   bind(d, d.joinRoom),
		"LeaveRoom":                  bind(d, d.leaveRoom),
		"GetRoom":                    bind(d, d.getRoom),
		"ListRooms":                  bind(d, d.listRooms),
		"UpsertParticipant":          bind(d, d.upsertParticipant),
		"GetParticipantByPeer":       bind(d, d.getParticipantByPeer),
		"GetParticipantByConnection": bind(d, d.getParticipantByConnection),
		"RemoveParticipant":          bind(d, d.removeParticipant),
		"AddResourceRef":             bind(d, d.addResourceRef),
		"RemoveResourceRef":          bind(d, d.removeResourceRef),
		"LockRoom":                   bind(d, d.lockRoom),
		"UnlockRoom":                 bind(d, d.unlockRoom),
		"IsRoomLocked":               bind(d, d.isRoomLocked),
		"VerifyRoomSecret":           bind(d, d.verifyRoomSecret),
		"CreateOrgRoom":              bind(d, d.createOrgRoom),
		"VerifyRoomAccess":           bind(d, d.verifyRoomAccess),
		"ListOrgRooms":               bind(d, d.listOrgRooms),
	}
	return d
}

// Methods lists the callable method names.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.methods))
	for name := range d.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Call runs one method. The context only bounds dispatch: once the facade
// has the room lock the call completes.
func (d *Dispatcher) Call(ctx context.Context, method string, params json.RawMessage) (any, error) {
	h, ok := d.methods[method]
	if !ok {
		metrics.RPCRequests.WithLabelValues("unknown", domain.Kind(ErrUnknownMethod)).Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := h(ctx, params)
	metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	kind := domain.Kind(err)
	if kind == "" {
		kind = "OK"
	}
	metrics.RPCRequests.WithLabelValues(method, kind).Inc()

	if err != nil {
		ev := log.Debug()
		if kind == "Internal" {
			ev = log.Error()
		}
		ev.Err(err).Str("module", "adapters.rpc").Str("method", method).Str("kind", kind).Msg("call failed")
	}
	return res, err
}

func bind[P any](d *Dispatcher, fn func(ctx context.Context, p P) (any, error)) handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p P
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("%w: bad params: %v", domain.ErrInvalidArgument, err)
			}
		}
		if err := d.validate.Struct(p); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fe := verrs[0]
				return nil, fmt.Errorf("%w: %s fails %q", domain.ErrInvalidArgument, fe.Namespace(), fe.Tag())
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		return fn(ctx, p)
	}
}

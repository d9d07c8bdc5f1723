package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Coordinator/internal/adapters/rpc"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *RPCController) writePump(ctx context.Context, c *WsConn) {
	var tick <-chan time.Time
	if ctl.PingPeriod > 0 {
		ticker := time.NewTicker(ctl.PingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-tick:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *RPCController) readPump(ctx context.Context, cancel context.CancelFunc, service string, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("service", service).Msg("readPump closing")
		cancel()
		c.Close()
	}()

	if ctl.PingPeriod > 0 {
		pongWait := ctl.PingPeriod * 10 / 9
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("service", service).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("service", service).Msg("readPump read error")
				}
				return
			}
			ctl.handleCall(ctx, c, data)
		}
	}
}

func (ctl *RPCController) handleCall(ctx context.Context, c *WsConn, data []byte) {
	var req rpc.Request
	if err := json.Unmarshal(data, &req); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.reply(c, rpc.Response{Error: rpc.ErrorOf(domain.ErrInvalidArgument)})
		return
	}

	if req.Method == methodPing {
		ctl.handlePing(c, req.ID)
		return
	}

	res, err := ctl.Dispatcher.Call(ctx, req.Method, req.Params)
	if err != nil {
		ctl.reply(c, rpc.Response{ID: req.ID, Error: rpc.ErrorOf(err)})
		return
	}
	ctl.reply(c, rpc.Response{ID: req.ID, Result: res})
}

func (ctl *RPCController) reply(c *WsConn, resp rpc.Response) {
	b, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("reply marshal")
		return
	}
	if err := c.TrySend(b); errors.Is(err, ErrBackpressure) {
		// A caller that stops reading would lose replies silently.
		log.Warn().Str("module", "signal").Msg("send buffer full, closing connection")
		c.Close()
	}
}

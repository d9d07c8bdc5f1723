package signal

import (
	"encoding/json"

	"github.com/dkeye/Coordinator/internal/adapters/rpc"
)

const methodPing = "Ping"

func (ctl *RPCController) handlePing(
	conn *WsConn,
	id json.RawMessage,
) {
	ctl.reply(conn, rpc.Response{ID: id, Result: "pong"})
}

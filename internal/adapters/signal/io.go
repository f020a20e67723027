package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/core"
	"github.com/ivchenkov/parley/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Info().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
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

func (ctl *Controller) readPump(ctx context.Context, ep core.EndpointID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("endpoint", string(ep)).Msg("readPump closing")
		ctl.onDisconnect(ep)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("endpoint", string(ep)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("endpoint", string(ep)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(ep, c, data)
		}
	}
}

func (ctl *Controller) handleEvent(ep core.EndpointID, c core.SignalConnection, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "create-room":
		ctl.handleCreateRoom(ep, c, data)
	case "join-request":
		ctl.handleJoinRequest(ep, c, data)
	case "join-accepted":
		ctl.handleJoinAccepted(ep, data)
	case "join-rejected":
		ctl.handleJoinRejected(ep, data)
	case "join-room":
		ctl.handleJoinRoom(ep, c, data)
	case "leave-room":
		ctl.handleLeaveRoom(ep)
	case "offer", "answer", "ice-candidate":
		ctl.handleRelay(ep, env.Type, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// sendTo routes through the coordinator, so a vanished target is a silent
// drop rather than an error.
func (ctl *Controller) sendTo(ep core.EndpointID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendTo marshal")
		return
	}
	ctl.Coord.SendTo(ep, b)
}

func (ctl *Controller) broadcast(room domain.RoomID, except core.EndpointID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	ctl.Coord.Broadcast(room, except, b)
}

func (ctl *Controller) handlePing(c core.SignalConnection) {
	ctl.sendJSON(c, map[string]string{"type": "pong"})
}

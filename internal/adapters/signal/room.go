package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/app"
	"github.com/ivchenkov/parley/internal/core"
	"github.com/ivchenkov/parley/internal/domain"
)

func (ctl *Controller) handleCreateRoom(ep core.EndpointID, c core.SignalConnection, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create-room payload")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	room, err := domain.NewRoomID(p.Room)
	if err != nil {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_room_id"})
		return
	}
	name, err := domain.NewDisplayName(p.Name)
	if err != nil {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_name"})
		return
	}

	log.Info().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Msg("create-room")
	left, moved := ctl.Coord.CreateRoom(ep, room, name)
	if moved {
		ctl.notifyLeft(left, ep)
	}

	ctl.sendJSON(c, struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"room"`
	}{"room-created", room})
}

func (ctl *Controller) handleJoinRoom(ep core.EndpointID, c core.SignalConnection, data []byte) {
	type payload struct {
		Type   string `json:"type"`
		Room   string `json:"room"`
		Name   string `json:"name"`
		Ticket string `json:"ticket"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-room payload")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	room, err := domain.NewRoomID(p.Room)
	if err != nil {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_room_id"})
		return
	}
	name, err := domain.NewDisplayName(p.Name)
	if err != nil {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_name"})
		return
	}

	existing, left, err := ctl.Coord.AdmitToRoom(ep, room, name, p.Ticket)
	if errors.Is(err, app.ErrNotAdmitted) {
		log.Warn().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Msg("join-room without valid ticket")
		ctl.sendJSON(c, map[string]string{"type": "room-not-found"})
		return
	}
	if left != "" {
		ctl.notifyLeft(left, ep)
	}

	log.Info().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Int("existing", len(existing)).Msg("join-room")

	ctl.sendJSON(c, struct {
		Type  string         `json:"type"`
		Users []app.Occupant `json:"users"`
	}{"existing-users", existing})

	ctl.broadcast(room, ep, struct {
		Type string             `json:"type"`
		ID   core.EndpointID    `json:"id"`
		Name domain.DisplayName `json:"name"`
	}{"user-joined", ep, name})
}

func (ctl *Controller) handleLeaveRoom(ep core.EndpointID) {
	room, ok := ctl.Coord.RemoveOccupant(ep)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Msg("leave-room")
	ctl.notifyLeft(room, ep)
}

// onDisconnect is the only cancellation signal: best-effort cleanup plus the
// same user-left broadcast a voluntary leave produces.
func (ctl *Controller) onDisconnect(ep core.EndpointID) {
	room, ok := ctl.Coord.Disconnect(ep)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Msg("disconnect")
	ctl.notifyLeft(room, ep)
}

// notifyLeft tells a room's remaining occupants that ep is gone, whether by
// leave, disconnect, or moving to another room.
func (ctl *Controller) notifyLeft(room domain.RoomID, ep core.EndpointID) {
	ctl.broadcast(room, ep, struct {
		Type string          `json:"type"`
		ID   core.EndpointID `json:"id"`
	}{"user-left", ep})
}

package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/app"
	"github.com/ivchenkov/parley/internal/core"
	"github.com/ivchenkov/parley/internal/domain"
)

func (ctl *Controller) handleJoinRequest(ep core.EndpointID, c core.SignalConnection, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-request payload")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	room, err := domain.NewRoomID(p.Room)
	if err != nil {
		ctl.sendJSON(c, map[string]string{"type": "room-not-found"})
		return
	}

	owner, err := ctl.Coord.RequestJoin(room)
	if errors.Is(err, app.ErrRoomNotFound) {
		log.Info().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Msg("join-request: no owner")
		ctl.sendJSON(c, map[string]string{"type": "room-not-found"})
		return
	}

	log.Info().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Str("owner", string(owner)).Msg("join-request forwarded")
	ctl.sendTo(owner, struct {
		Type string          `json:"type"`
		Room domain.RoomID   `json:"room"`
		ID   core.EndpointID `json:"id"`
		Name string          `json:"name"`
	}{"join-request", room, ep, p.Name})
}

// handleJoinAccepted relays the owner's accept to the requester along with a
// fresh admission ticket. A requester that disconnected in the meantime is a
// silent no-op.
func (ctl *Controller) handleJoinAccepted(ep core.EndpointID, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-accepted payload")
		return
	}

	room := domain.RoomID(p.Room)
	requester := core.EndpointID(p.ID)
	if !ctl.isOwner(ep, room) {
		log.Warn().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Msg("join-accepted from non-owner")
		return
	}

	tok := ctl.Coord.AcceptJoin(room, requester)
	ctl.sendTo(requester, struct {
		Type   string        `json:"type"`
		Room   domain.RoomID `json:"room"`
		Name   string        `json:"name"`
		Ticket string        `json:"ticket"`
	}{"join-accepted", room, p.Name, tok})
}

func (ctl *Controller) handleJoinRejected(ep core.EndpointID, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		ID   string `json:"id"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-rejected payload")
		return
	}

	room := domain.RoomID(p.Room)
	if !ctl.isOwner(ep, room) {
		log.Warn().Str("module", "signal").Str("endpoint", string(ep)).Str("room", string(room)).Msg("join-rejected from non-owner")
		return
	}

	ctl.sendTo(core.EndpointID(p.ID), struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"room"`
	}{"join-rejected", room})
}

func (ctl *Controller) isOwner(ep core.EndpointID, room domain.RoomID) bool {
	owner, err := ctl.Coord.RequestJoin(room)
	return err == nil && owner == ep
}

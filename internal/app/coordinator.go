package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/core"
	"github.com/ivchenkov/parley/internal/domain"
)

// ErrNotAdmitted means the join step presented no valid admission ticket.
var ErrNotAdmitted = errors.New("not admitted")

// Coordinator ties the registry, the room directory and the gatekeeper
// together into the operations the signaling handlers call. All mutations
// on shared room state go through the directory's and registry's own locks;
// the coordinator adds no state of its own.
type Coordinator struct {
	Registry *Registry
	Rooms    *Directory
	Gate     *Gatekeeper
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		Registry: NewRegistry(),
		Rooms:    NewDirectory(),
		Gate:     NewGatekeeper(DefaultTicketTTL),
	}
}

// CreateRoom registers ep as owner and occupant of room and records the
// endpoint-to-room binding. Idempotent per endpoint, last writer wins. An
// endpoint occupying a different room leaves it first; the departed room is
// returned so the caller can notify its remaining occupants.
func (c *Coordinator) CreateRoom(ep core.EndpointID, room domain.RoomID, name domain.DisplayName) (domain.RoomID, bool) {
	left, moved := c.moveOut(ep, room)
	c.Rooms.CreateRoom(room, ep, name)
	c.Registry.SetRoom(ep, room)
	return left, moved
}

// RequestJoin looks up the room's owner. It mutates nothing; the request
// stays advisory until the owner acts.
func (c *Coordinator) RequestJoin(room domain.RoomID) (core.EndpointID, error) {
	return c.Rooms.Owner(room)
}

// AcceptJoin issues the admission ticket the requester must present to
// AdmitToRoom.
func (c *Coordinator) AcceptJoin(room domain.RoomID, requester core.EndpointID) string {
	return c.Gate.Issue(room, requester)
}

// AdmitToRoom validates the ticket, adds ep to the room and returns the
// occupants that were already present. The room's current owner re-entering
// its own room needs no ticket. An endpoint belongs to at most one room: a
// successful admission removes it from any room it occupied before, and the
// departed room comes back so the caller can notify it. A failed admission
// leaves the prior membership untouched.
func (c *Coordinator) AdmitToRoom(ep core.EndpointID, room domain.RoomID, name domain.DisplayName, tok string) ([]Occupant, domain.RoomID, error) {
	owner, err := c.Rooms.Owner(room)
	if err != nil || owner != ep {
		if !c.Gate.Redeem(room, ep, tok) {
			return nil, "", ErrNotAdmitted
		}
	}
	left, _ := c.moveOut(ep, room)
	existing := c.Rooms.Admit(room, ep, name)
	c.Registry.SetRoom(ep, room)
	return existing, left, nil
}

// moveOut removes ep from its current room when that room differs from next.
func (c *Coordinator) moveOut(ep core.EndpointID, next domain.RoomID) (domain.RoomID, bool) {
	room, ok := c.Registry.RoomOf(ep)
	if !ok || room == next {
		return "", false
	}
	c.Rooms.Remove(room, ep)
	c.Registry.ClearRoom(ep)
	log.Info().Str("module", "app.coordinator").Str("endpoint", string(ep)).Str("room", string(room)).Msg("moved out of previous room")
	return room, true
}

// RemoveOccupant takes ep out of whatever room the registry says it
// occupies and clears the binding. Returns the room it left, if any.
// Calling it again for the same endpoint is a no-op.
func (c *Coordinator) RemoveOccupant(ep core.EndpointID) (domain.RoomID, bool) {
	room, ok := c.Registry.RoomOf(ep)
	if !ok {
		return "", false
	}
	c.Rooms.Remove(room, ep)
	c.Registry.ClearRoom(ep)
	return room, true
}

// Disconnect is RemoveOccupant plus tearing the endpoint out of the registry:
// its per-connection context is cancelled so both pumps stop, then the entry
// is dropped. Cleanup is best-effort, not transactional with in-flight sends.
func (c *Coordinator) Disconnect(ep core.EndpointID) (domain.RoomID, bool) {
	room, ok := c.RemoveOccupant(ep)
	c.Registry.Cancel(ep)
	c.Registry.Unbind(ep)
	return room, ok
}

// SendTo delivers a frame to one endpoint. A missing or saturated target is
// silently dropped: the sender has no acknowledgment channel, so there is
// nothing truthful to report back.
func (c *Coordinator) SendTo(ep core.EndpointID, f core.Frame) {
	sess, ok := c.Registry.Session(ep)
	if !ok {
		log.Debug().Str("module", "app.coordinator").Str("endpoint", string(ep)).Msg("drop: no session")
		return
	}
	if err := sess.Signal().TrySend(f); err != nil {
		log.Debug().Err(err).Str("module", "app.coordinator").Str("endpoint", string(ep)).Msg("drop: send failed")
	}
}

// Broadcast fans a frame out to every occupant of room except the sender.
func (c *Coordinator) Broadcast(room domain.RoomID, except core.EndpointID, f core.Frame) {
	for _, occ := range c.Rooms.Occupants(room) {
		if occ.Endpoint == except {
			continue
		}
		c.SendTo(occ.Endpoint, f)
	}
}

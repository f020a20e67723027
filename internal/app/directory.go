package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/core"
	"github.com/ivchenkov/parley/internal/domain"
)

// ErrRoomNotFound means no owner is registered for the room: the room was
// never created, or its owner disconnected and ownership was cleared.
// This is expected steady-state, not an exceptional condition.
var ErrRoomNotFound = errors.New("room not found")

// Occupant is the read-only roster view sent over the wire.
type Occupant struct {
	Endpoint core.EndpointID    `json:"id"`
	Name     domain.DisplayName `json:"name"`
}

type roomState struct {
	owner     core.EndpointID
	hasOwner  bool
	occupants map[core.EndpointID]domain.DisplayName
}

// Directory owns room lifecycle: ownership and the occupant mapping.
// Rooms appear on first creation and disappear when their occupant set
// empties. Side effects are observable only through subsequent queries;
// callers broadcast notifications themselves.
type Directory struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*roomState
}

func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[domain.RoomID]*roomState),
	}
}

func (d *Directory) getOrCreate(room domain.RoomID) *roomState {
	rs, ok := d.rooms[room]
	if !ok {
		rs = &roomState{occupants: make(map[core.EndpointID]domain.DisplayName)}
		d.rooms[room] = rs
	}
	return rs
}

// CreateRoom registers ep as owner and occupant of room. Last writer wins;
// ownership is not a security boundary.
func (d *Directory) CreateRoom(room domain.RoomID, ep core.EndpointID, name domain.DisplayName) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs := d.getOrCreate(room)
	rs.owner = ep
	rs.hasOwner = true
	rs.occupants[ep] = name
	log.Info().Str("module", "app.directory").Str("room", string(room)).Str("owner", string(ep)).Msg("room created")
}

// Owner looks up the current owner. Purely advisory, no mutation.
func (d *Directory) Owner(room domain.RoomID) (core.EndpointID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room]
	if !ok || !rs.hasOwner {
		return "", ErrRoomNotFound
	}
	return rs.owner, nil
}

// Admit adds ep to the room's occupant mapping and returns the snapshot of
// occupants that were already present, so the new arrival knows who to
// negotiate with.
func (d *Directory) Admit(room domain.RoomID, ep core.EndpointID, name domain.DisplayName) []Occupant {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs := d.getOrCreate(room)
	existing := make([]Occupant, 0, len(rs.occupants))
	for oep, oname := range rs.occupants {
		if oep == ep {
			continue
		}
		existing = append(existing, Occupant{Endpoint: oep, Name: oname})
	}
	rs.occupants[ep] = name
	log.Info().Str("module", "app.directory").Str("room", string(room)).Str("endpoint", string(ep)).Int("existing", len(existing)).Msg("occupant admitted")
	return existing
}

// Remove deletes ep from the room. If ep owned the room, ownership is
// cleared and the room becomes un-joinable until re-created. An empty room
// is garbage-collected. Removing an absent occupant is a no-op.
func (d *Directory) Remove(room domain.RoomID, ep core.EndpointID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room]
	if !ok {
		return
	}
	delete(rs.occupants, ep)
	if rs.hasOwner && rs.owner == ep {
		rs.owner = ""
		rs.hasOwner = false
		log.Info().Str("module", "app.directory").Str("room", string(room)).Msg("ownership cleared")
	}
	if len(rs.occupants) == 0 {
		delete(d.rooms, room)
		log.Info().Str("module", "app.directory").Str("room", string(room)).Msg("room deleted")
	}
}

// Occupants returns the current roster snapshot.
func (d *Directory) Occupants(room domain.RoomID) []Occupant {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room]
	if !ok {
		return nil
	}
	out := make([]Occupant, 0, len(rs.occupants))
	for ep, name := range rs.occupants {
		out = append(out, Occupant{Endpoint: ep, Name: name})
	}
	return out
}

package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/core"
	"github.com/ivchenkov/parley/internal/domain"
)

type regEntry struct {
	Room    domain.RoomID
	Session core.EndpointSession
	Cancel  context.CancelFunc
}

// Registry is the connection registry: it maps each live endpoint to its
// session and to the room it currently occupies. An endpoint belongs to at
// most one room at a time.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[core.EndpointID]*regEntry
}

func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[core.EndpointID]*regEntry),
	}
}

func (r *Registry) Bind(ep core.EndpointID, sess core.EndpointSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[ep] = &regEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("endpoint", string(ep)).Msg("bound endpoint")
}

func (r *Registry) Unbind(ep core.EndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.endpoints, ep)
	log.Info().Str("module", "app.registry").Str("endpoint", string(ep)).Msg("unbound endpoint")
}

func (r *Registry) Session(ep core.EndpointID) (core.EndpointSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.endpoints[ep]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) RoomOf(ep core.EndpointID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.endpoints[ep]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

func (r *Registry) SetRoom(ep core.EndpointID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.endpoints[ep]
	if !ok {
		return false
	}
	e.Room = room
	log.Info().Str("module", "app.registry").Str("endpoint", string(ep)).Str("room", string(room)).Msg("set room")
	return true
}

func (r *Registry) ClearRoom(ep core.EndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.endpoints[ep]; ok {
		e.Room = ""
	}
}

func (r *Registry) Cancel(ep core.EndpointID) bool {
	r.mu.RLock()
	e, ok := r.endpoints[ep]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}

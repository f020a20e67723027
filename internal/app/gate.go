package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/core"
	"github.com/ivchenkov/parley/internal/domain"
)

const DefaultTicketTTL = 30 * time.Second

type ticket struct {
	room    domain.RoomID
	ep      core.EndpointID
	expires time.Time
}

// Gatekeeper issues single-use admission tickets when an owner accepts a
// join request. The join step must present the ticket; this binds "approved
// to join" to "actually joined", which the wire protocol alone does not.
type Gatekeeper struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	tickets map[string]ticket
}

func NewGatekeeper(ttl time.Duration) *Gatekeeper {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &Gatekeeper{
		ttl:     ttl,
		now:     time.Now,
		tickets: make(map[string]ticket),
	}
}

// Issue mints a ticket bound to the requester endpoint and the room.
func (g *Gatekeeper) Issue(room domain.RoomID, ep core.EndpointID) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked()
	tok := uuid.NewString()
	g.tickets[tok] = ticket{room: room, ep: ep, expires: g.now().Add(g.ttl)}
	log.Info().Str("module", "app.gate").Str("room", string(room)).Str("endpoint", string(ep)).Msg("ticket issued")
	return tok
}

// Redeem consumes the ticket. It fails on an unknown token, a mismatched
// endpoint or room, or expiry. A ticket redeems at most once.
func (g *Gatekeeper) Redeem(room domain.RoomID, ep core.EndpointID, tok string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tickets[tok]
	if !ok {
		return false
	}
	delete(g.tickets, tok)
	if t.room != room || t.ep != ep {
		log.Warn().Str("module", "app.gate").Str("endpoint", string(ep)).Msg("ticket mismatch")
		return false
	}
	if g.now().After(t.expires) {
		log.Warn().Str("module", "app.gate").Str("endpoint", string(ep)).Msg("ticket expired")
		return false
	}
	return true
}

func (g *Gatekeeper) pruneLocked() {
	now := g.now()
	for tok, t := range g.tickets {
		if now.After(t.expires) {
			delete(g.tickets, tok)
		}
	}
}

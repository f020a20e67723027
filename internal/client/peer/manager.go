package peer

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/client/signaling"
)

const (
	// DefaultOfferStagger spaces out offers to pre-existing occupants so the
	// negotiation engine is not hit with every offer at once.
	DefaultOfferStagger = 500 * time.Millisecond

	// maxPendingCandidates bounds the per-endpoint buffer of candidates that
	// arrive before the corresponding offer or answer is applied.
	maxPendingCandidates = 16
)

// Manager owns every PeerLink of the local session. It consumes signaling
// events, drives the negotiation engines, and keeps the view roster derived
// from the link set.
type Manager struct {
	name    string
	engines EngineFactory
	send    func(signaling.Event)
	sleep   func(time.Duration)
	stagger time.Duration

	mu      sync.Mutex
	links   map[string]*PeerLink
	pending map[string][]json.RawMessage
	views   map[string]View
	sink    ViewSink
}

func NewManager(name string, engines EngineFactory, send func(signaling.Event)) *Manager {
	return &Manager{
		name:    name,
		engines: engines,
		send:    send,
		sleep:   time.Sleep,
		stagger: DefaultOfferStagger,
		links:   make(map[string]*PeerLink),
		pending: make(map[string][]json.RawMessage),
		views:   make(map[string]View),
	}
}

func (m *Manager) SetViewSink(s ViewSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = s
}

func (m *Manager) SetStagger(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stagger = d
}

// HandleEvent feeds one signaling event into the state machine. Events are
// expected in arrival order per remote endpoint; ordering across endpoints
// carries no guarantee.
func (m *Manager) HandleEvent(ev signaling.Event) {
	switch ev.Type {
	case signaling.EventExistingUsers:
		m.OfferAll(ev.Users)
	case signaling.EventUserJoined:
		m.TrackOccupant(ev.ID, ev.Name)
	case signaling.EventOffer:
		m.AcceptOffer(ev.ID, ev.Name, ev.Payload)
	case signaling.EventAnswer:
		m.CompleteOffer(ev.ID, ev.Payload)
	case signaling.EventICECandidate:
		m.AddCandidate(ev.ID, ev.Payload)
	case signaling.EventUserLeft:
		m.DropPeer(ev.ID)
	}
}

// OfferAll opens one negotiation per pre-existing occupant, sleeping the
// stagger delay between successive offers.
func (m *Manager) OfferAll(users []signaling.User) {
	for i, u := range users {
		if i > 0 && m.stagger > 0 {
			m.sleep(m.stagger)
		}
		m.offerTo(u.ID, u.Name)
	}
}

// TrackOccupant records a newly arrived occupant. The newcomer does the
// offering; this side only reserves the link and its placeholder view.
func (m *Manager) TrackOccupant(remote, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.links[remote]; ok {
		l.Name = name
	} else {
		m.links[remote] = &PeerLink{Remote: remote, Name: name, state: LinkIdle}
	}
	m.reconcileLocked()
}

func (m *Manager) offerTo(remote, name string) {
	l, err := m.openLink(remote, name, LinkOffering)
	if err != nil {
		log.Error().Err(err).Str("module", "client.peer").Str("remote", remote).Msg("open link for offer")
		return
	}

	offer, err := l.engine.CreateOffer()
	if err != nil {
		log.Error().Err(err).Str("module", "client.peer").Str("remote", remote).Msg("create offer")
		m.closeLink(remote)
		return
	}

	m.send(signaling.Event{
		Type:    signaling.EventOffer,
		Target:  remote,
		Name:    m.name,
		Payload: offer,
	})
}

// AcceptOffer is the answerer path: apply the remote proposal, produce the
// answer and relay it back. An existing link for the sender is superseded.
func (m *Manager) AcceptOffer(remote, name string, offer json.RawMessage) {
	l, err := m.openLink(remote, name, LinkNegotiating)
	if err != nil {
		log.Error().Err(err).Str("module", "client.peer").Str("remote", remote).Msg("open link for answer")
		return
	}

	answer, err := l.engine.HandleOffer(offer)
	if err != nil {
		log.Error().Err(err).Str("module", "client.peer").Str("remote", remote).Msg("apply offer")
		m.closeLink(remote)
		return
	}
	m.remoteApplied(remote)

	m.send(signaling.Event{
		Type:    signaling.EventAnswer,
		Target:  remote,
		Payload: answer,
	})
}

// CompleteOffer applies the remote answer to a link we offered on.
func (m *Manager) CompleteOffer(remote string, answer json.RawMessage) {
	m.mu.Lock()
	l, ok := m.links[remote]
	if !ok || l.engine == nil || (l.state != LinkOffering && l.state != LinkNegotiating) {
		m.mu.Unlock()
		log.Warn().Str("module", "client.peer").Str("remote", remote).Msg("answer for unknown or idle link")
		return
	}
	eng := l.engine
	m.mu.Unlock()

	if err := eng.HandleAnswer(answer); err != nil {
		log.Error().Err(err).Str("module", "client.peer").Str("remote", remote).Msg("apply answer")
		m.closeLink(remote)
		return
	}

	m.mu.Lock()
	if l, ok := m.links[remote]; ok && l.engine == eng {
		l.state = LinkNegotiating
		m.reconcileLocked()
	}
	m.mu.Unlock()
	m.remoteApplied(remote)
}

// AddCandidate applies a remote candidate to the named link. Candidates that
// outrun the offer/answer exchange wait in a bounded buffer and flush once
// the remote proposal lands; a candidate for one link never touches another.
func (m *Manager) AddCandidate(remote string, cand json.RawMessage) {
	m.mu.Lock()
	l, ok := m.links[remote]
	if !ok || l.engine == nil || !l.remoteSet {
		q := m.pending[remote]
		if len(q) >= maxPendingCandidates {
			log.Warn().Str("module", "client.peer").Str("remote", remote).Msg("candidate buffer full, dropping")
			m.mu.Unlock()
			return
		}
		m.pending[remote] = append(q, cand)
		m.mu.Unlock()
		return
	}
	eng := l.engine
	m.mu.Unlock()

	if err := eng.AddCandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "client.peer").Str("remote", remote).Msg("add candidate")
	}
}

// DropPeer tears down the link for a departed endpoint.
func (m *Manager) DropPeer(remote string) {
	m.closeLink(remote)
}

// CloseAll ends the local session: every link is torn down.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	remotes := make([]string, 0, len(m.links))
	for ep := range m.links {
		remotes = append(remotes, ep)
	}
	m.mu.Unlock()
	for _, ep := range remotes {
		m.closeLink(ep)
	}
}

// Links returns a snapshot of remote endpoint -> link state.
func (m *Manager) Links() map[string]LinkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]LinkState, len(m.links))
	for ep, l := range m.links {
		out[ep] = l.state
	}
	return out
}

// openLink installs a fresh engine-backed link for remote, superseding any
// prior link for the same endpoint.
func (m *Manager) openLink(remote, name string, st LinkState) (*PeerLink, error) {
	eng, err := m.engines(remote)
	if err != nil {
		return nil, err
	}
	eng.OnCandidate(func(c json.RawMessage) {
		m.send(signaling.Event{
			Type:    signaling.EventICECandidate,
			Target:  remote,
			Payload: c,
		})
	})
	eng.OnStateChange(func(s EngineState) {
		m.onEngineState(remote, eng, s)
	})

	m.mu.Lock()
	var old Engine
	if prev, ok := m.links[remote]; ok && prev.engine != nil {
		old = prev.engine
		prev.state = LinkClosed
	}
	l := &PeerLink{Remote: remote, Name: name, state: st, engine: eng}
	m.links[remote] = l
	m.reconcileLocked()
	m.mu.Unlock()

	if old != nil {
		log.Info().Str("module", "client.peer").Str("remote", remote).Msg("superseding prior link")
		old.Close()
	}
	return l, nil
}

// remoteApplied marks the remote proposal as set and flushes the buffered
// candidates for that endpoint.
func (m *Manager) remoteApplied(remote string) {
	m.mu.Lock()
	l, ok := m.links[remote]
	if !ok || l.engine == nil {
		m.mu.Unlock()
		return
	}
	l.remoteSet = true
	eng := l.engine
	queued := m.pending[remote]
	delete(m.pending, remote)
	m.mu.Unlock()

	for _, c := range queued {
		if err := eng.AddCandidate(c); err != nil {
			log.Error().Err(err).Str("module", "client.peer").Str("remote", remote).Msg("flush candidate")
		}
	}
}

func (m *Manager) onEngineState(remote string, eng Engine, s EngineState) {
	m.mu.Lock()
	l, ok := m.links[remote]
	if !ok || l.engine != eng {
		// Superseded engine still signaling; ignore.
		m.mu.Unlock()
		return
	}
	switch s {
	case EngineConnected:
		l.state = LinkConnected
		m.reconcileLocked()
		m.mu.Unlock()
		log.Info().Str("module", "client.peer").Str("remote", remote).Msg("link connected")
	case EngineDisconnected, EngineFailed, EngineClosed:
		m.mu.Unlock()
		log.Info().Str("module", "client.peer").Str("remote", remote).Str("state", s.String()).Msg("link lost")
		m.closeLink(remote)
	default:
		m.mu.Unlock()
	}
}

func (m *Manager) closeLink(remote string) {
	m.mu.Lock()
	l, ok := m.links[remote]
	if !ok {
		m.mu.Unlock()
		return
	}
	l.state = LinkClosed
	eng := l.engine
	l.engine = nil
	delete(m.links, remote)
	delete(m.pending, remote)
	m.reconcileLocked()
	m.mu.Unlock()

	if eng != nil {
		eng.Close()
	}
}

func (m *Manager) reconcileLocked() {
	m.views = ReconcileViews(m.views, DesiredViews(m.links), m.sink)
}

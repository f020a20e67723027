package peer

// LinkState is the negotiation lifecycle of one PeerLink.
type LinkState int

const (
	// LinkIdle: the remote is a known occupant but negotiation has not
	// started; we are waiting for its offer.
	LinkIdle LinkState = iota
	// LinkOffering: we sent an offer and await the answer.
	LinkOffering
	// LinkNegotiating: proposals exchanged, transport not yet usable.
	LinkNegotiating
	// LinkConnected: the engine reported a usable transport.
	LinkConnected
	// LinkClosed: terminal.
	LinkClosed
)

func (s LinkState) String() string {
	switch s {
	case LinkIdle:
		return "idle"
	case LinkOffering:
		return "offering"
	case LinkNegotiating:
		return "negotiating"
	case LinkConnected:
		return "connected"
	case LinkClosed:
		return "closed"
	}
	return "unknown"
}

// PeerLink pairs one remote endpoint with its negotiation state. At most one
// exists per remote endpoint; opening a second supersedes the first.
type PeerLink struct {
	Remote string
	Name   string
	state  LinkState
	engine Engine

	// remoteSet flips once the remote proposal has been applied; candidates
	// arriving earlier wait in the manager's buffer.
	remoteSet bool
}

func (l *PeerLink) State() LinkState { return l.state }

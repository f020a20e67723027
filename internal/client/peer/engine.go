package peer

import "encoding/json"

// EngineState is the connection-health signal of the external negotiation
// engine, reduced to what the manager reacts to.
type EngineState int

const (
	EngineConnecting EngineState = iota
	EngineConnected
	EngineDisconnected
	EngineFailed
	EngineClosed
)

func (s EngineState) String() string {
	switch s {
	case EngineConnecting:
		return "connecting"
	case EngineConnected:
		return "connected"
	case EngineDisconnected:
		return "disconnected"
	case EngineFailed:
		return "failed"
	case EngineClosed:
		return "closed"
	}
	return "unknown"
}

// Engine drives one peer negotiation on the external media stack. Offer,
// answer and candidate payloads are opaque to the manager; only the engine
// interprets them.
type Engine interface {
	// CreateOffer produces the local proposal.
	CreateOffer() (json.RawMessage, error)
	// HandleOffer applies a remote proposal and produces the answer.
	HandleOffer(offer json.RawMessage) (json.RawMessage, error)
	// HandleAnswer applies the remote answer to a previously sent offer.
	HandleAnswer(answer json.RawMessage) error
	// AddCandidate applies a remote network candidate.
	AddCandidate(candidate json.RawMessage) error
	// OnCandidate sets the callback for locally gathered candidates.
	OnCandidate(func(json.RawMessage))
	// OnStateChange sets the callback for connection-health transitions.
	OnStateChange(func(EngineState))
	Close()
}

// EngineFactory opens a fresh engine for one remote endpoint.
type EngineFactory func(remote string) (Engine, error)

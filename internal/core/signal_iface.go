package core

// Frame is a raw signaling payload, already marshaled for the wire.
type Frame []byte

// EndpointID identifies one live client connection. It is assigned by the
// transport layer and never reused for a different client while that
// connection lives.
type EndpointID string

// SignalConnection abstracts the per-endpoint messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

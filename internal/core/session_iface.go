package core

// EndpointSession binds an endpoint identity to its transport connection.
// This is what the registry stores and the dispatcher fans out to.
type EndpointSession interface {
	Endpoint() EndpointID
	Signal() SignalConnection
}

type endpointSession struct {
	ep   EndpointID
	conn SignalConnection
}

func NewEndpointSession(ep EndpointID, conn SignalConnection) EndpointSession {
	return &endpointSession{ep: ep, conn: conn}
}

func (s *endpointSession) Endpoint() EndpointID     { return s.ep }
func (s *endpointSession) Signal() SignalConnection { return s.conn }

package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/app"
	"github.com/ivchenkov/parley/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const (
	defaultReadLimit  = 64 * 1024
	defaultPingPeriod = 54 * time.Second
)

// Controller handles one websocket signaling endpoint per client and feeds
// the coordinator.
type Controller struct {
	Coord *app.Coordinator

	// ReadLimit caps inbound frame size; PingPeriod paces server pings. The
	// read deadline stretches slightly past the ping interval so one lost
	// pong does not kill the connection.
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(coord *app.Coordinator) *Controller {
	return &Controller{
		Coord:      coord,
		ReadLimit:  defaultReadLimit,
		PingPeriod: defaultPingPeriod,
	}
}

func (ctl *Controller) readWait() time.Duration {
	return ctl.PingPeriod * 10 / 9
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and mints a fresh endpoint identity for
// this connection. The identity lives exactly as long as the socket: two tabs
// of one browser are two endpoints, and a reconnect is a new endpoint.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ep := core.EndpointID(uuid.NewString())
	log.Info().Str("module", "signal").Str("endpoint", string(ep)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	ws.SetReadLimit(ctl.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(ctl.readWait()))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(ctl.readWait()))
	})

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	sess := core.NewEndpointSession(ep, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Coord.Registry.Bind(ep, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, ep, conn)
}

package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/MichelPescina/JogoTesto/internal/dispatch"
)

const (
	DefaultHeartbeatInterval = 10 * time.Second
	DefaultHeartbeatTimeout  = 5 * time.Second

	writeWait     = 10 * time.Second
	maxMessage    = 64 << 10
	outboundQueue = 256
)

// Messenger is the part of the dispatcher a websocket connection needs.
type Messenger interface {
	Connect(ctx context.Context, deliver func([]byte)) (*dispatch.Client, error)
	Disconnect(ctx context.Context, c *dispatch.Client)
	Handle(ctx context.Context, c *dispatch.Client, raw []byte)
}

// WebsocketHandler speaks the JSON protocol over websocket connections.
type WebsocketHandler struct {
	d        Messenger
	upgrader websocket.Upgrader
	interval time.Duration
	timeout  time.Duration

	ctx context.Context
}

type WebsocketOpt func(*WebsocketHandler)

// WithHeartbeat sets how often the server pings and how long it waits for
// the pong after each ping before dropping the connection.
func WithHeartbeat(interval, timeout time.Duration) WebsocketOpt {
	return func(h *WebsocketHandler) {
		h.interval = interval
		h.timeout = timeout
	}
}

// WithConnContext sets the context connections run under. Canceling it
// closes every connection.
func WithConnContext(ctx context.Context) WebsocketOpt {
	return func(h *WebsocketHandler) {
		h.ctx = ctx
	}
}

func NewWebsocketHandler(d Messenger, opts ...WebsocketOpt) *WebsocketHandler {
	h := &WebsocketHandler{
		d: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		interval: DefaultHeartbeatInterval,
		timeout:  DefaultHeartbeatTimeout,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *WebsocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade", "remote", r.RemoteAddr, "error", err)
		return
	}
	h.serve(h.ctx, conn)
}

type wsConn struct {
	conn     *websocket.Conn
	send     chan []byte
	closed   chan struct{}
	once     sync.Once
	stopping chan struct{}
	stopOnce sync.Once
}

// deliver queues an outbound message. A connection that cannot keep up is
// dropped rather than allowed to stall delivery to others.
func (c *wsConn) deliver(data []byte) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- data:
	case <-c.closed:
	default:
		slog.Warn("websocket outbound queue full, closing", "remote", c.conn.RemoteAddr())
		c.close()
	}
}

// stop asks the write loop to send what is queued, say goodbye and close.
func (c *wsConn) stop() {
	c.stopOnce.Do(func() {
		close(c.stopping)
	})
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

func (h *WebsocketHandler) serve(ctx context.Context, conn *websocket.Conn) {
	c := &wsConn{
		conn:     conn,
		send:     make(chan []byte, outboundQueue),
		closed:   make(chan struct{}),
		stopping: make(chan struct{}),
	}
	defer c.close()

	stop := context.AfterFunc(ctx, c.stop)
	defer stop()

	client, err := h.d.Connect(ctx, c.deliver)
	if err != nil {
		slog.ErrorContext(ctx, "opening websocket session", "error", err)
		return
	}
	defer h.d.Disconnect(context.WithoutCancel(ctx), client)

	go h.writeLoop(c)
	go h.watchTakeover(c, client)

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(h.readWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readWait()))
	})

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.InfoContext(ctx, "websocket closed", "player", client.PlayerID(), "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.readWait()))
		if msgType != websocket.TextMessage {
			continue
		}
		h.d.Handle(ctx, client, payload)
	}
}

// readWait is the longest a live client can stay silent: until the next
// ping plus the time allowed for its pong.
func (h *WebsocketHandler) readWait() time.Duration {
	return h.interval + h.timeout
}

func (h *WebsocketHandler) writeLoop(c *wsConn) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.stopping:
			c.drain()
			return
		}
	}
}

// drain writes every queued message, then closes with a going-away frame.
func (c *wsConn) drain() {
	defer c.close()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping")
			_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
			return
		}
	}
}

// watchTakeover closes the connection once another connection claims its
// player.
func (h *WebsocketHandler) watchTakeover(c *wsConn, client *dispatch.Client) {
	for {
		select {
		case <-c.closed:
			return
		case <-client.Done():
			if !client.Superseded() {
				continue
			}
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "taken over by another connection")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			c.close()
			return
		}
	}
}

// WebsocketListener serves the websocket handler at /ws.
type WebsocketListener struct {
	port uint16
	d    Messenger
	opts []WebsocketOpt
}

func NewWebsocketListener(port uint16, d Messenger, opts ...WebsocketOpt) *WebsocketListener {
	return &WebsocketListener{
		port: port,
		d:    d,
		opts: opts,
	}
}

func (l *WebsocketListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}
	return l.serve(ctx, ln)
}

func (l *WebsocketListener) serve(ctx context.Context, ln net.Listener) error {
	connCtx, cancelConns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelConns()

	opts := append([]WebsocketOpt{WithConnContext(connCtx)}, l.opts...)
	mux := http.NewServeMux()
	mux.Handle("/ws", NewWebsocketHandler(l.d, opts...))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.InfoContext(ctx, "listening for websocket", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving websocket: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Hijacked connections are not tracked by the server.
		cancelConns()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

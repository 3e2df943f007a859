package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// NatsServer runs an embedded NATS server and holds the single client
// connection the game publishes and subscribes through.
type NatsServer struct {
	ns *server.Server

	mu         sync.RWMutex
	conn       *nats.Conn
	ready      chan struct{}
	connect    sync.Once
	connectErr error
	onShutdown []func(context.Context)

	startupTimeout time.Duration
	host           string
	port           int
	inProcess      bool
}

func NewNatsServer(opts ...NatsServerOpt) (*NatsServer, error) {
	s := &NatsServer{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		ready:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:       s.host,
		Port:       s.port,
		DontListen: s.inProcess,
		NoSigs:     true, // Let the application handle signals
	})
	if err != nil {
		return nil, err
	}
	s.ns = ns

	return s, nil
}

// OnShutdown registers f to run after ctx is cancelled but while the
// connection is still open, so final messages can go out.
func (n *NatsServer) OnShutdown(f func(context.Context)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onShutdown = append(n.onShutdown, f)
}

// Start runs the server until ctx is cancelled.
func (n *NatsServer) Start(ctx context.Context) error {
	if err := n.Connect(); err != nil {
		return err
	}

	if n.inProcess {
		slog.InfoContext(ctx, "nats server running in process")
	} else {
		slog.InfoContext(ctx, "nats server listening", "addr", n.ns.Addr())
	}

	<-ctx.Done()

	n.mu.RLock()
	hooks := n.onShutdown
	n.mu.RUnlock()
	for _, f := range hooks {
		f(context.WithoutCancel(ctx))
	}
	if err := n.Flush(); err != nil {
		slog.WarnContext(ctx, "flushing nats before shutdown", "error", err)
	}

	n.Close()
	return nil
}

// Connect starts the embedded server and opens the internal client without
// blocking. It is safe to call more than once; Start calls it too.
func (n *NatsServer) Connect() error {
	n.connect.Do(func() {
		n.connectErr = n.open()
	})
	return n.connectErr
}

func (n *NatsServer) open() error {
	n.ns.Start()

	if !n.ns.ReadyForConnections(n.startupTimeout) {
		return fmt.Errorf("nats server not ready for connections")
	}

	var (
		conn *nats.Conn
		err  error
	)
	if n.inProcess {
		conn, err = nats.Connect("", nats.InProcessServer(n.ns))
	} else {
		conn, err = nats.Connect(n.ns.ClientURL())
	}
	if err != nil {
		return fmt.Errorf("creating nats client connection: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()
	close(n.ready)
	return nil
}

// Ready is closed once the client connection is usable.
func (n *NatsServer) Ready() <-chan struct{} {
	return n.ready
}

// Close drains the client and stops the server.
func (n *NatsServer) Close() {
	n.mu.Lock()
	conn := n.conn
	n.conn = nil
	n.mu.Unlock()

	if conn != nil {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	n.ns.Shutdown()
	n.ns.WaitForShutdown()
}

func (n *NatsServer) client() (*nats.Conn, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.conn == nil {
		return nil, fmt.Errorf("nats server not started")
	}
	return n.conn, nil
}

// Subscribe creates a subscription on the given subject.
// The handler is called for each message received, one at a time.
// Returns an unsubscribe function to remove the subscription.
func (n *NatsServer) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	conn, err := n.client()
	if err != nil {
		return nil, err
	}
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Publish sends a message to the given subject
func (n *NatsServer) Publish(subject string, data []byte) error {
	conn, err := n.client()
	if err != nil {
		return err
	}
	return conn.Publish(subject, data)
}

// Flush waits until the server has processed everything published so far.
func (n *NatsServer) Flush() error {
	conn, err := n.client()
	if err != nil {
		return err
	}
	return conn.Flush()
}

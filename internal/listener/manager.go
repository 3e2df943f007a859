package listener

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// SessionRunner serves one terminal connection to completion.
type SessionRunner interface {
	RunSession(ctx context.Context, conn io.ReadWriter) error
}

// ConnectionManager hands accepted terminal connections to the session
// runner and keeps count of how many are open.
type ConnectionManager struct {
	runner SessionRunner
	open   atomic.Int64
}

func NewConnectionManager(runner SessionRunner) *ConnectionManager {
	return &ConnectionManager{
		runner: runner,
	}
}

// Open returns the number of terminal sessions in progress.
func (m *ConnectionManager) Open() int {
	return int(m.open.Load())
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, transport string, conn io.ReadWriter) {
	m.open.Add(1)
	defer m.open.Add(-1)

	slog.InfoContext(ctx, "terminal session started", "transport", transport)
	if err := m.runner.RunSession(ctx, conn); err != nil {
		slog.WarnContext(ctx, "terminal session", "transport", transport, "error", err)
		return
	}
	slog.InfoContext(ctx, "terminal session ended", "transport", transport)
}

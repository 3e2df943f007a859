package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pixil98/go-errors"
)

const (
	DefaultTickLength = time.Second
)

// Manager is swept once per tick.
type Manager interface {
	Tick(context.Context) error
}

// SweepDriver runs the periodic sweeps: session expiry and match cleanup.
type SweepDriver struct {
	tickLength time.Duration
	names      []string
	managers   map[string]Manager
}

func NewSweepDriver(managers map[string]Manager, opts ...SweepDriverOpt) *SweepDriver {
	d := &SweepDriver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}
	for name := range managers {
		d.names = append(d.names, name)
	}
	sort.Strings(d.names)

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *SweepDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// A failed sweep is retried on the next tick.
			if err := d.Tick(ctx); err != nil {
				slog.WarnContext(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// Tick sweeps every manager in name order. One failing manager does not stop
// the others.
func (d *SweepDriver) Tick(ctx context.Context) error {
	el := errors.NewErrorList()
	for _, name := range d.names {
		if err := d.managers[name].Tick(ctx); err != nil {
			el.Add(fmt.Errorf("%s: %w", name, err))
		}
	}
	return el.Err()
}

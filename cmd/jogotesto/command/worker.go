package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-service"

	"github.com/MichelPescina/JogoTesto/internal/broadcast"
	"github.com/MichelPescina/JogoTesto/internal/commands"
	"github.com/MichelPescina/JogoTesto/internal/dispatch"
	"github.com/MichelPescina/JogoTesto/internal/driver"
	"github.com/MichelPescina/JogoTesto/internal/listener"
	"github.com/MichelPescina/JogoTesto/internal/matches"
	"github.com/MichelPescina/JogoTesto/internal/observe"
	"github.com/MichelPescina/JogoTesto/internal/player"
	"github.com/MichelPescina/JogoTesto/internal/session"
	"github.com/MichelPescina/JogoTesto/internal/status"
	"github.com/MichelPescina/JogoTesto/internal/world"
)

const shutdownReason = "server stopping"

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Load the world and rules
	catalog, err := world.Load(cfg.World)
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	rules, err := cfg.Rules.BuildRules()
	if err != nil {
		return nil, err
	}

	// Metrics
	provider, err := observe.NewPrometheusProvider()
	if err != nil {
		return nil, fmt.Errorf("creating metrics provider: %w", err)
	}
	metrics, err := observe.NewMetrics(provider.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	// The bus must be up before anything subscribes to it
	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	if err := nats.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	hub := broadcast.NewHub(nats, broadcast.WithMetrics(metrics))

	// Game state
	sessionOpts := []session.RegistryOpt{
		session.WithExpireHook(func(session.Session) {
			metrics.Sessions.Add(context.Background(), -1)
		}),
	}
	if cfg.Sessions.Expiry != "" {
		expiry, err := parseOptionalDuration("session expiry", cfg.Sessions.Expiry, 0)
		if err != nil {
			return nil, err
		}
		sessionOpts = append(sessionOpts, session.WithExpiry(expiry))
	}
	sessions := session.NewRegistry(sessionOpts...)

	matchOpts := []matches.RegistryOpt{
		matches.WithPublisher(hub),
		matches.WithMetrics(metrics),
		matches.WithMaxMatches(cfg.Matches.MaxMatches),
	}
	if cfg.Matches.FinishedMatchRetention != "" {
		retention, err := parseOptionalDuration("finished_match_retention", cfg.Matches.FinishedMatchRetention, 0)
		if err != nil {
			return nil, err
		}
		matchOpts = append(matchOpts, matches.WithRetention(retention))
	}
	registry := matches.NewRegistry(catalog, rules, matchOpts...)

	dispatcher := dispatch.NewDispatcher(sessions, registry, hub, dispatch.WithMetrics(metrics))

	// Terminal sessions
	cmdHandler, err := commands.NewHandler()
	if err != nil {
		return nil, fmt.Errorf("creating command handler: %w", err)
	}
	var playerOpts []player.PlayerManagerOpt
	if cfg.Terminal.Width > 0 {
		playerOpts = append(playerOpts, player.WithWidth(cfg.Terminal.Width))
	}
	playerManager := player.NewPlayerManager(dispatcher, cmdHandler, playerOpts...)

	// Websocket connections stay open until the shutdown broadcast is out
	connCtx, cancelConns := context.WithCancel(context.Background())
	interval, timeout, err := cfg.Heartbeat.durations()
	if err != nil {
		cancelConns()
		return nil, err
	}

	// Create Listeners
	deps := listenerDeps{
		terminals: listener.NewConnectionManager(playerManager),
		messenger: dispatcher,
		wsOpts: []listener.WebsocketOpt{
			listener.WithHeartbeat(interval, timeout),
			listener.WithConnContext(connCtx),
		},
	}
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		w, err := l.BuildListener(deps)
		if err != nil {
			cancelConns()
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = w
	}

	statusServer := status.NewServer(cfg.HTTP.addr(), registry, hub, catalog, rules,
		status.WithMetricsHandler(provider.Handler()),
	)

	// Setup the sweep driver
	sweeper := driver.NewSweepDriver(map[string]driver.Manager{
		"sessions": sessions,
		"matches":  registry,
	}, driver.WithTickLength(cfg.tickInterval()))

	// Shutdown runs while the bus is still open
	nats.OnShutdown(func(ctx context.Context) {
		registry.Shutdown(ctx)
		hub.Shutdown(shutdownReason)
		if err := nats.Flush(); err != nil {
			slog.WarnContext(ctx, "flushing shutdown broadcast", "error", err)
		}
		cancelConns()
		if err := provider.Shutdown(ctx); err != nil {
			slog.WarnContext(ctx, "shutting down metrics", "error", err)
		}
	})

	// Create a worker list
	return service.WorkerList{
		"nats":      nats,
		"driver":    sweeper,
		"status":    statusServer,
		"listeners": &listeners,
	}, nil
}

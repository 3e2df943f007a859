// Package observe holds the game's OpenTelemetry instruments and the
// Prometheus bridge used to scrape them.
package observe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/MichelPescina/JogoTesto"

// Metrics holds every instrument the server records. All fields are safe for
// concurrent use.
type Metrics struct {
	// Commands counts inbound commands by "command" and "outcome".
	Commands metric.Int64Counter

	// Rejections counts rejected commands by "code".
	Rejections metric.Int64Counter

	MatchesCreated metric.Int64Counter

	// MatchesFinished counts matches by end "reason".
	MatchesFinished metric.Int64Counter

	ActiveMatches    metric.Int64UpDownCounter
	ConnectedPlayers metric.Int64UpDownCounter
	Sessions         metric.Int64UpDownCounter

	// Reconnects counts reconnect attempts by "outcome".
	Reconnects metric.Int64Counter
}

// NewMetrics creates the instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Commands, err = m.Int64Counter("jogotesto.commands",
		metric.WithDescription("Inbound commands by command and outcome."),
	); err != nil {
		return nil, err
	}
	if met.Rejections, err = m.Int64Counter("jogotesto.command.rejections",
		metric.WithDescription("Rejected commands by error code."),
	); err != nil {
		return nil, err
	}
	if met.MatchesCreated, err = m.Int64Counter("jogotesto.matches.created",
		metric.WithDescription("Matches created."),
	); err != nil {
		return nil, err
	}
	if met.MatchesFinished, err = m.Int64Counter("jogotesto.matches.finished",
		metric.WithDescription("Matches finished by end reason."),
	); err != nil {
		return nil, err
	}
	if met.ActiveMatches, err = m.Int64UpDownCounter("jogotesto.matches.live",
		metric.WithDescription("Matches held by the registry."),
	); err != nil {
		return nil, err
	}
	if met.ConnectedPlayers, err = m.Int64UpDownCounter("jogotesto.connections",
		metric.WithDescription("Attached client connections."),
	); err != nil {
		return nil, err
	}
	if met.Sessions, err = m.Int64UpDownCounter("jogotesto.sessions",
		metric.WithDescription("Valid sessions."),
	); err != nil {
		return nil, err
	}
	if met.Reconnects, err = m.Int64Counter("jogotesto.reconnects",
		metric.WithDescription("Reconnect attempts by outcome."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Nop returns instruments that record nothing.
func Nop() *Metrics {
	met, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic(fmt.Sprintf("creating no-op metrics: %v", err))
	}
	return met
}

func (m *Metrics) RecordCommand(ctx context.Context, command, code string) {
	outcome := "ok"
	if code != "" {
		outcome = "rejected"
		m.Rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	}
	m.Commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordMatchFinished(ctx context.Context, reason string) {
	m.MatchesFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) RecordReconnect(ctx context.Context, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "rejected"
	}
	m.Reconnects.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Provider is a meter provider exported through its own Prometheus registry.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
}

// NewPrometheusProvider wires an SDK meter provider to a fresh Prometheus
// registry.
func NewPrometheusProvider() (*Provider, error) {
	reg := prometheus.NewRegistry()
	exp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}
	return &Provider{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)),
		registry:      reg,
	}, nil
}

// Handler serves the registry in the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.MeterProvider.Shutdown(ctx)
}

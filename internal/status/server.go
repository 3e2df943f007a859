// Package status serves the read-only HTTP surface: health, match
// summaries, the rule set and metrics.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MichelPescina/JogoTesto/internal/game"
	"github.com/MichelPescina/JogoTesto/internal/world"
)

const shutdownTimeout = 5 * time.Second

// MatchSource reports on the matches the server holds.
type MatchSource interface {
	Count() int
	Summaries() []game.Summary
}

// ConnectionCounter reports how many connections are attached.
type ConnectionCounter interface {
	Connected() int
}

type Server struct {
	addr    string
	matches MatchSource
	conns   ConnectionCounter
	catalog *world.Catalog
	rules   game.Rules
	metrics http.Handler
	now     func() time.Time
	started time.Time
}

type ServerOpt func(*Server)

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) ServerOpt {
	return func(s *Server) {
		s.metrics = h
	}
}

func WithNow(now func() time.Time) ServerOpt {
	return func(s *Server) {
		s.now = now
	}
}

func NewServer(addr string, matches MatchSource, conns ConnectionCounter, catalog *world.Catalog, rules game.Rules, opts ...ServerOpt) *Server {
	s := &Server{
		addr:    addr,
		matches: matches,
		conns:   conns,
		catalog: catalog,
		rules:   rules,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// Handler returns the routes of the status surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /matches", s.handleMatches)
	mux.HandleFunc("GET /info", s.handleInfo)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.InfoContext(ctx, "serving status", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving status: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type statusResponse struct {
	Healthy          bool      `json:"healthy"`
	Uptime           string    `json:"uptime"`
	UptimeSeconds    int64     `json:"uptimeSeconds"`
	MatchCount       int       `json:"matchCount"`
	ConnectedPlayers int       `json:"connectedPlayers"`
	Timestamp        time.Time `json:"timestamp"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	uptime := now.Sub(s.started).Truncate(time.Second)
	writeJSON(w, http.StatusOK, statusResponse{
		Healthy:          true,
		Uptime:           uptime.String(),
		UptimeSeconds:    int64(uptime / time.Second),
		MatchCount:       s.matches.Count(),
		ConnectedPlayers: s.conns.Connected(),
		Timestamp:        now.UTC(),
	})
}

type matchesResponse struct {
	Matches []game.Summary `json:"matches"`
}

func (s *Server) handleMatches(w http.ResponseWriter, _ *http.Request) {
	summaries := s.matches.Summaries()
	if summaries == nil {
		summaries = []game.Summary{}
	}
	writeJSON(w, http.StatusOK, matchesResponse{Matches: summaries})
}

type rulesView struct {
	MaxPlayersPerMatch       int     `json:"maxPlayersPerMatch"`
	MinPlayersToStart        int     `json:"minPlayersToStart"`
	CountdownDuration        string  `json:"countdownDuration"`
	WeaponSearchDuration     string  `json:"weaponSearchDuration"`
	WeaponRespawnDelay       string  `json:"weaponRespawnDelay"`
	DefaultWeaponSpawnChance float64 `json:"defaultWeaponSpawnChance"`
	EscapeSuccessChance      float64 `json:"escapeSuccessChance"`
	ActionCooldown           string  `json:"actionCooldown"`
	CombatResponseDeadline   string  `json:"combatResponseDeadline"`
	BasePlayerStrength       int     `json:"basePlayerStrength"`
	StrengthGainPerWin       int     `json:"strengthGainPerWin"`
	DisconnectGrace          string  `json:"disconnectGrace"`
	MatchDurationCap         string  `json:"matchDurationCap"`
}

type weaponView struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Damage      int     `json:"damage"`
	Rarity      float64 `json:"rarity"`
	Description string  `json:"description,omitempty"`
}

type infoResponse struct {
	Rules   rulesView    `json:"rules"`
	Weapons []weaponView `json:"weapons"`
	Rooms   int          `json:"rooms"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	r := s.rules
	resp := infoResponse{
		Rules: rulesView{
			MaxPlayersPerMatch:       r.MaxPlayersPerMatch,
			MinPlayersToStart:        r.MinPlayersToStart,
			CountdownDuration:        r.CountdownDuration.String(),
			WeaponSearchDuration:     r.WeaponSearchDuration.String(),
			WeaponRespawnDelay:       r.WeaponRespawnDelay.String(),
			DefaultWeaponSpawnChance: r.DefaultWeaponSpawnChance,
			EscapeSuccessChance:      r.EscapeSuccessChance,
			ActionCooldown:           r.ActionCooldown.String(),
			CombatResponseDeadline:   r.CombatResponseDeadline.String(),
			BasePlayerStrength:       r.BasePlayerStrength,
			StrengthGainPerWin:       r.StrengthGainPerWin,
			DisconnectGrace:          r.DisconnectGrace.String(),
			MatchDurationCap:         r.MatchDurationCap.String(),
		},
		Weapons: []weaponView{},
		Rooms:   len(s.catalog.Rooms()),
	}
	for _, wt := range s.catalog.Weapons() {
		resp.Weapons = append(resp.Weapons, weaponView{
			Key:         wt.Key,
			Name:        wt.Name,
			Damage:      wt.Damage,
			Rarity:      wt.Rarity,
			Description: wt.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

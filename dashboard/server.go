// Package dashboard serves the bot state as a JSON API, streams cycle
// reports over a websocket and exposes Prometheus metrics.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evdnx/signalbot/bot"
	"github.com/evdnx/signalbot/ledger"
	"github.com/evdnx/signalbot/logger"
	"github.com/evdnx/signalbot/risk"
	"github.com/evdnx/signalbot/strategy"
)

// Controller is the loop surface the API reads and toggles.
type Controller interface {
	Status() bot.Status
	LastReport() (strategy.Report, bool)
	SetAutoTrade(on bool)
}

// Account is the read-only account surface.
type Account interface {
	AccountSummary() strategy.AccountSummary
	Performance() ledger.Performance
	RiskMetrics() risk.Metrics
	Positions() []ledger.Position
}

type Config struct {
	Host string
	Port int
}

// Server is the HTTP + websocket API.
type Server struct {
	httpServer *http.Server
	ctrl       Controller
	acct       Account
	log        logger.Logger
}

// NewServer registers every route. hub may be nil to disable /ws.
func NewServer(cfg Config, ctrl Controller, acct Account, hub *Hub, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{ctrl: ctrl, acct: acct, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("GET /api/report", s.report)
	mux.HandleFunc("GET /api/positions", s.positions)
	mux.HandleFunc("GET /api/performance", s.performance)
	mux.HandleFunc("GET /api/risk", s.riskStats)
	mux.HandleFunc("GET /api/account", s.account)
	mux.HandleFunc("POST /api/trading/start", s.setTrading(true))
	mux.HandleFunc("POST /api/trading/stop", s.setTrading(false))
	mux.Handle("GET /metrics", promhttp.Handler())
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      logging(log)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Addr() string { return s.httpServer.Addr }

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	s.log.Info("dashboard_listening", logger.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard: listen: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("dashboard: shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.ctrl.LastReport()
	if !ok {
		writeError(w, http.StatusNotFound, "no cycle has run yet")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) positions(w http.ResponseWriter, r *http.Request) {
	all := s.acct.Positions()
	if all == nil {
		all = []ledger.Position{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) performance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.acct.Performance())
}

type riskView struct {
	Metrics     risk.Metrics    `json:"metrics"`
	Daily       risk.DailyStats `json:"daily_stats"`
	AccountPeak float64         `json:"account_peak"`
}

func (s *Server) riskStats(w http.ResponseWriter, r *http.Request) {
	sum := s.acct.AccountSummary()
	writeJSON(w, http.StatusOK, riskView{
		Metrics:     s.acct.RiskMetrics(),
		Daily:       sum.Daily,
		AccountPeak: sum.AccountPeak,
	})
}

func (s *Server) account(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.acct.AccountSummary())
}

func (s *Server) setTrading(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.ctrl.SetAutoTrade(on)
		writeJSON(w, http.StatusOK, s.ctrl.Status())
	}
}

// writeJSON marshals v as JSON and writes it with the given status code.
// If marshaling fails, it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

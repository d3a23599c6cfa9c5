package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/bloom-wire-service/internal/domain"
	"github.com/example/bloom-wire-service/internal/usecase"
)

// SyncControl — ручные действия оператора над планировщиком.
type SyncControl interface {
	Poll(ctx context.Context, opts usecase.PollOptions) (usecase.PollStats, error)
	Status(ctx context.Context) usecase.MonitorStatus
}

// DetailRefresher — ручное обновление деталей одного заказа.
type DetailRefresher interface {
	RefreshDetails(ctx context.Context, externalID string) (*domain.WireOrder, error)
}

// TokenSetter — ручная установка токена оператором.
type TokenSetter interface {
	SetManual(ctx context.Context, token string) error
}

type Server struct {
	Router    *mux.Router
	Monitor   SyncControl
	Refresher DetailRefresher
	Tokens    TokenSetter
	Wire      domain.WireOrderRepository
}

func NewServer(monitor SyncControl, refresher DetailRefresher, tokens TokenSetter, wire domain.WireOrderRepository) *Server {
	s := &Server{
		Router:    mux.NewRouter(),
		Monitor:   monitor,
		Refresher: refresher,
		Tokens:    tokens,
		Wire:      wire,
	}
	s.Router.HandleFunc("/api/wire/sync", s.handleSync).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/wire/sync/full", s.handleFullSync).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/wire/token", s.handleSetToken).Methods(http.MethodPut)
	s.Router.HandleFunc("/api/wire/status", s.handleStatus).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/wire/stats/summary", s.handleStats).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/wire/orders", s.handleList).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/wire/orders/{externalId}", s.handleGet).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/wire/orders/{externalId}/refresh", s.handleRefresh).Methods(http.MethodPost)
	return s
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// handleSync — "синхронизировать сейчас": рабочие часы пропускаются, окно
// обычное дельта-окно.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Monitor.Poll(r.Context(), usecase.PollOptions{BypassHours: true})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, stats)
}

// handleFullSync — принудительная полная синхронизация.
func (s *Server) handleFullSync(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Monitor.Poll(r.Context(), usecase.PollOptions{ForceFull: true, BypassHours: true})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleSetToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := s.Tokens.SetManual(r.Context(), body.Token); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"updated": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Monitor.Status(r.Context()))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	status := domain.SyncStatus(r.URL.Query().Get("status"))
	orders, err := s.Wire.List(r.Context(), status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []domain.WireOrder{}
	}
	writeJSON(w, orders)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	o, err := s.Wire.Get(r.Context(), mux.Vars(r)["externalId"])
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, o)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	o, err := s.Refresher.RefreshDetails(r.Context(), mux.Vars(r)["externalId"])
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, o)
}

// handleStats — сводка по корзинам статусов и выручке, как в исходном
// операторском дашборде.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Wire.List(r.Context(), "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type stats struct {
		TotalOrders       int   `json:"totalOrders"`
		NeedsAction       int   `json:"needsAction"`
		Accepted          int   `json:"accepted"`
		Delivered         int   `json:"delivered"`
		TotalRevenueCents int64 `json:"totalRevenueCents"`
	}
	var st stats
	st.TotalOrders = len(orders)
	for _, o := range orders {
		switch o.SyncStatus {
		case domain.SyncNeedsAction:
			st.NeedsAction++
		case domain.SyncAccepted:
			st.Accepted++
		case domain.SyncDelivered:
			st.Delivered++
		}
		st.TotalRevenueCents += o.TotalAmountCents
	}
	writeJSON(w, st)
}

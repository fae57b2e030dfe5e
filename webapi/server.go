// Package webapi is the optional companion HTTP API for the Telegram
// mini-app surface: a health probe plus an authenticated read of the
// caller's ledger record.
package webapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"refer-earn-bot/config"
	"refer-earn-bot/storage"
)

type Server struct {
	store    *storage.Store
	botToken string
	log      *zap.Logger
	http     *http.Server

	visitors *visitorRegistry
	sem      chan struct{}
}

const maxConcurrentRequests = 256

func New(cfg *config.Config, store *storage.Store, log *zap.Logger) *Server {
	s := &Server{
		store:    store,
		botToken: cfg.BotToken,
		log:      log,
		visitors: newVisitorRegistry(),
		sem:      make(chan struct{}, maxConcurrentRequests),
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	user := router.PathPrefix("/user").Subrouter()
	user.Use(s.limitConcurrent, s.auth, s.rateLimit, s.logging)
	user.HandleFunc("/data", s.handleUserData).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Run() error {
	s.log.Info("web api listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.Ping(); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleUserData(w http.ResponseWriter, r *http.Request) {
	data, ok := initDataFromContext(r.Context())
	if !ok {
		http.Error(w, "Something went wrong!", http.StatusInternalServerError)
		return
	}

	user, err := s.store.User(data.User.ID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("user lookup failed", zap.Int64("user_id", data.User.ID), zap.Error(err))
		http.Error(w, "Something went wrong!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(user); err != nil {
		s.log.Error("encode user failed", zap.Int64("user_id", data.User.ID), zap.Error(err))
	}
}

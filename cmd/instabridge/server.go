package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/itxrex07/insta-sub000/internal/constants"
	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/internal/models"
	"github.com/itxrex07/insta-sub000/internal/service"
)

const maxWebhookBodyBytes = 1 << 20 // 1 MiB

type Server struct {
	router  *mux.Router
	logger  *logrus.Logger
	bridge  service.Bridge
	metrics *service.Metrics
	server  *http.Server
	port    int
}

func NewServer(cfg *models.Config, bridge service.Bridge, metrics *service.Metrics, logger *logrus.Logger) *Server {
	port := cfg.Server.Port
	if port <= 0 {
		port = constants.DefaultServerPort
	}
	s := &Server{
		router:  mux.NewRouter(),
		logger:  logger,
		bridge:  bridge,
		metrics: metrics,
		port:    port,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)
	s.router.HandleFunc("/webhook/instagram", s.handleInstagramWebhook()).Methods(http.MethodPost)
	s.router.HandleFunc("/webhook/telegram", s.handleTelegramWebhook()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.port)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(s.metrics.Snapshot())
	}
}

func (s *Server) handleInstagramWebhook() http.HandlerFunc {
	return s.handleWebhook(models.DirectionInbound, s.bridge.Forward)
}

func (s *Server) handleTelegramWebhook() http.HandlerFunc {
	return s.handleWebhook(models.DirectionOutbound, s.bridge.Receive)
}

// handleWebhook decodes a normalized message and hands it to the bridge.
// Bridge failures return 5xx so well-behaved webhook senders redeliver;
// malformed payloads return 400 and are gone for good.
func (s *Server) handleWebhook(direction models.Direction, deliver func(context.Context, *models.Message) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		var msg models.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			s.logger.WithError(err).Warn("Malformed webhook payload")
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if msg.ThreadID == "" {
			http.Error(w, "threadId is required", http.StatusBadRequest)
			return
		}
		msg.Direction = direction
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}

		if err := deliver(r.Context(), &msg); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"threadId":  msg.ThreadID,
				"messageId": msg.ID,
			}).Error("Failed to process webhook message")

			status := http.StatusInternalServerError
			if brerrors.IsTransient(err) || brerrors.IsStoreUnavailable(err) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, "processing failed", status)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

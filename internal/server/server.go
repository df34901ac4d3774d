package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quickedit/internal/events"
	"quickedit/internal/models"
	"quickedit/internal/services"
)

const (
	maxRequestBytes = 32 << 20
	shutdownTimeout = 5 * time.Second
)

// Pipeline is the part of services.EditService the transport drives.
type Pipeline interface {
	Process(ctx context.Context, req models.EditRequest, sink events.Sink) (*models.EditResult, error)
	Analyze(message string, files map[string]string, history []models.ConversationTurn) services.AnalysisReport
}

// Server exposes the pipeline over HTTP: server-sent events on /api/edit and
// a websocket channel on /ws/edit.
type Server struct {
	pipeline  Pipeline
	log       logrus.FieldLogger
	upgrader  websocket.Upgrader
	startTime time.Time
}

func New(pipeline Pipeline, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		pipeline: pipeline,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
			},
		},
		startTime: time.Now(),
	}
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/edit", s.handleEdit)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /ws/edit", s.handleWebSocket)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req models.EditRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := services.ValidateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sink, err := newSSESink(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	log := s.log.WithFields(logrus.Fields{"session": req.SessionID, "transport": "sse"})
	if _, err := s.pipeline.Process(r.Context(), req, sink); err != nil {
		log.WithError(err).Debug("edit request ended with error")
	}
}

type analyzeRequest struct {
	Message             string                    `json:"message"`
	ProjectFiles        map[string]string         `json:"projectFiles"`
	ConversationHistory []models.ConversationTurn `json:"conversationHistory,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" || len(req.ProjectFiles) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: message and projectFiles are required", services.ErrInvalidRequest))
		return
	}
	writeJSON(w, http.StatusOK, s.pipeline.Analyze(req.Message, req.ProjectFiles, req.ConversationHistory))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", services.ErrInvalidRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, events.ErrorData{Message: err.Error()})
}

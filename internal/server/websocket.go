package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quickedit/internal/events"
	"quickedit/internal/models"
	"quickedit/internal/services"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsFirstFrame   = 30 * time.Second
)

// wsSink writes each event as one JSON text frame.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Emit(_ context.Context, evt events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(evt)
}

func (s *wsSink) close(code int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

// handleWebSocket reads one EditRequest frame, streams the pipeline events
// back and closes. The request is cancelled when the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()
	sink := &wsSink{conn: conn}

	conn.SetReadLimit(maxRequestBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsFirstFrame))
	var req models.EditRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.log.WithError(err).Debug("websocket request frame unreadable")
		_ = sink.Emit(r.Context(), events.NewError("invalid request frame", err.Error()))
		sink.close(websocket.CloseUnsupportedData, "invalid request")
		return
	}
	if err := services.ValidateRequest(req); err != nil {
		_ = sink.Emit(r.Context(), events.NewError(err.Error(), ""))
		sink.close(websocket.ClosePolicyViolation, "invalid request")
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Any further frame or a read error is treated as the client leaving.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	log := s.log.WithFields(logrus.Fields{"session": req.SessionID, "transport": "websocket"})
	_, err = s.pipeline.Process(ctx, req, sink)
	switch {
	case err == nil:
		sink.close(websocket.CloseNormalClosure, "complete")
	case errors.Is(err, context.Canceled):
		log.Debug("client disconnected")
	default:
		log.WithError(err).Debug("edit request ended with error")
		sink.close(websocket.CloseInternalServerErr, truncateReason(fmt.Sprint(err)))
	}
	cancel()
	_ = conn.Close()
	<-readDone
}

// truncateReason keeps close reasons within the control frame limit.
func truncateReason(s string) string {
	const max = 120
	if len(s) > max {
		return s[:max]
	}
	return s
}

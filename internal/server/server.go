package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/captiocr/captiocr/internal/errors"
	"github.com/captiocr/captiocr/internal/orchestrator"
	"github.com/captiocr/captiocr/internal/screen"
	"github.com/captiocr/captiocr/internal/trace"
)

// Message types pushed to websocket clients.
type TextMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type StatusMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// REST payloads.
type startRequest struct {
	Region      screen.Rect `json:"region"`
	Language    string      `json:"language"`
	CaptionMode bool        `json:"caption_mode"`
}

type processRequest struct {
	SessionID string `json:"session_id"`
	RawPath   string `json:"raw_path"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	mgr   *orchestrator.Manager
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// New creates a server and starts the event broadcaster.
func New(mgr *orchestrator.Manager) *Server {
	s := &Server{
		mgr:   mgr,
		conns: make(map[*websocket.Conn]struct{}),
	}
	go s.broadcastEvents()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("POST /api/capture/start", s.handleCaptureStart)
	mux.HandleFunc("POST /api/capture/stop", s.handleCaptureStop)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	log := trace.Logger(ctx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// Clients only listen; drain reads to notice disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			log.Debug("websocket closed", "error", err)
			return
		}
	}
}

func (s *Server) broadcastEvents() {
	for evt := range s.mgr.Events() {
		var msg any
		switch evt.Kind {
		case orchestrator.EventText:
			msg = TextMessage{Type: "text", SessionID: evt.SessionID, Text: truncate(evt.Text)}
		case orchestrator.EventStatus:
			msg = StatusMessage{Type: "status", SessionID: evt.SessionID, Status: evt.Text}
		default:
			continue
		}

		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn, m any) {
				_ = wsjson.Write(context.Background(), c, m)
			}(conn, msg)
		}
		s.mu.RUnlock()
	}
}

func (s *Server) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, errors.CodeConfigInvalid, "decode request"))
		return
	}

	sess, err := s.mgr.StartCapture(r.Context(), orchestrator.StartOptions{
		Region:      req.Region,
		Language:    req.Language,
		CaptionMode: req.CaptionMode,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	trace.Logger(r.Context()).Info("capture started",
		"session", sess.ID, "region", sess.Options.Region.String())
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"raw_path":   sess.RawPath,
		"started_at": sess.StartedAt,
	})
}

func (s *Server) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.StopCapture(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	trace.Logger(r.Context()).Info("capture stopped", "session", sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"raw_path":   sess.RawPath,
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, errors.CodeConfigInvalid, "decode request"))
		return
	}

	var err error
	var diag any
	switch {
	case req.SessionID != "":
		diag, err = s.mgr.ProcessSession(r.Context(), req.SessionID)
	case req.RawPath != "":
		diag, err = s.mgr.ProcessFile(req.RawPath)
	default:
		writeError(w, http.StatusBadRequest,
			errors.New(errors.CodeConfigInvalid, "session_id or raw_path required"))
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, diag)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := DefaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	sessions, err := s.mgr.RecentSessions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  string(errors.CodeOf(err)),
	})
}

func statusFor(err error) int {
	switch {
	case errors.IsCode(err, errors.CodeAlreadyRunning):
		return http.StatusConflict
	case errors.IsCode(err, errors.CodeNotRunning):
		return http.StatusConflict
	case errors.IsCode(err, errors.CodeAreaInvalid), errors.IsCode(err, errors.CodeConfigInvalid):
		return http.StatusBadRequest
	case errors.IsCode(err, errors.CodeOCRUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func truncate(text string) string {
	if len(text) > TextPreviewLimit {
		return text[:TextPreviewLimit] + "..."
	}
	return text
}

// Package httpapi exposes the chat service over HTTP and websocket.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/monalabs/mona/internal/agent"
	"github.com/monalabs/mona/internal/config"
	"github.com/monalabs/mona/internal/llm"
	"github.com/monalabs/mona/internal/observability"
	"github.com/monalabs/mona/internal/protocol"
	"github.com/monalabs/mona/internal/session"
)

// ChatHandler runs one user turn. Implemented by agent.Orchestrator.
type ChatHandler interface {
	HandleMessage(ctx context.Context, sessionID, message, rawImageB64 string) (agent.Reply, error)
}

type Server struct {
	cfg      config.Config
	chat     ChatHandler
	metrics  *observability.Metrics
	window   *observability.LatencyWindow
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func New(cfg config.Config, chat ChatHandler, metrics *observability.Metrics, window *observability.LatencyWindow, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		chat:    chat,
		metrics: metrics,
		window:  window,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only browser clients from the configured frontend origin
				// (or same origin) may open a chat socket.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				if strings.EqualFold(origin, cfg.FrontendOrigin) {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/perf/chat", s.handlePerfChat)

	return r
}

// corsMiddleware admits the configured frontend origin. The pack's routers
// are all same-origin or proxy-fronted, so this stays hand-rolled on chi.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		allowed := s.cfg.AllowAnyOrigin || (origin != "" && strings.EqualFold(origin, s.cfg.FrontendOrigin))
		if allowed {
			if s.cfg.AllowAnyOrigin {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.chat == nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "chat pipeline not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handlePerfChat(w http.ResponseWriter, _ *http.Request) {
	if s.window == nil {
		respondJSON(w, http.StatusOK, observability.LatencySnapshot{})
		return
	}
	respondJSON(w, http.StatusOK, s.window.Snapshot())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req protocol.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		return
	}

	reply, err := s.chat.HandleMessage(r.Context(), req.SessionID, req.Message, req.RawImage)
	if err != nil {
		s.respondChatError(w, req.SessionID, err)
		return
	}
	respondJSON(w, http.StatusOK, protocol.ChatResponse{
		SessionID: reply.SessionID,
		Response:  reply.Response,
	})
}

// respondChatError maps agent failures to HTTP statuses. Internal detail
// stays out of the body; the logs carry it.
func (s *Server) respondChatError(w http.ResponseWriter, sessionID string, err error) {
	s.logger.Error("chat turn failed", "session_id", sessionID, "error", err)
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", "session not found")
	case errors.Is(err, llm.ErrUpstreamTimeout):
		respondError(w, http.StatusGatewayTimeout, "upstream_timeout", "the assistant took too long to respond")
	case errors.Is(err, llm.ErrUpstreamUnavailable):
		respondError(w, http.StatusBadGateway, "upstream_unavailable", "the assistant is temporarily unavailable")
	default:
		respondError(w, http.StatusInternalServerError, "chat_failed", "the assistant could not complete this turn")
	}
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(8 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))

		req, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			})
			continue
		}

		reply, err := s.chat.HandleMessage(r.Context(), req.SessionID, req.Message, req.RawImage)
		if err != nil {
			s.logger.Error("ws chat turn failed", "session_id", req.SessionID, "error", err)
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: req.SessionID,
				Code:      wsErrorCode(err),
				Detail:    "the assistant could not complete this turn",
			})
			continue
		}

		s.writeWS(conn, protocol.WSChatResponse{
			Type: protocol.TypeChatResponse,
			ChatResponse: protocol.ChatResponse{
				SessionID: reply.SessionID,
				Response:  reply.Response,
			},
		})
	}
}

func wsErrorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return "session_not_found"
	case errors.Is(err, llm.ErrUpstreamTimeout):
		return "upstream_timeout"
	case errors.Is(err, llm.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "chat_failed"
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg any) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("ws write failed", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

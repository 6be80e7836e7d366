package webchat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/marketier-assistant/internal/conversation"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// Frame types sent to the widget.
const (
	FrameSession  = "session"
	FrameTyping   = "typing"
	FrameReply    = "reply"
	FrameError    = "error"
	FramePong     = "pong"
	FrameReplaced = "replaced"
)

// InboundFrame is what the widget sends.
type InboundFrame struct {
	Type   string `json:"type"` // "message", "select_slot", "accept_offer", "quick_action", "ping"
	Text   string `json:"text,omitempty"`
	SlotID string `json:"slot_id,omitempty"`
	Action string `json:"action,omitempty"`
}

// OutboundFrame is what we send to the widget.
type OutboundFrame struct {
	Type         string                     `json:"type"`
	SessionID    string                     `json:"session_id,omitempty"`
	FlowState    conversation.FlowState     `json:"flow_state,omitempty"`
	Message      *conversation.Message      `json:"message,omitempty"`
	Messages     []conversation.Message     `json:"messages,omitempty"`
	QuickActions []conversation.QuickAction `json:"quick_actions,omitempty"`
	Error        string                     `json:"error,omitempty"`
}

// Handler serves a live chat session over a websocket. Turns are answered
// synchronously; the reply frame follows the typing frame on the same
// connection.
type Handler struct {
	service *conversation.Service
	logger  *logging.Logger

	mu    sync.Mutex
	conns map[string]*websocket.Conn // sessionID -> active connection
}

// NewHandler creates a web chat handler.
func NewHandler(service *conversation.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger, conns: make(map[string]*websocket.Conn)}
}

// HandleWebSocket serves GET /chat/ws/{sessionID}.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	session, err := h.service.Session(r.Context(), sessionID)
	if errors.Is(err, conversation.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("webchat: failed to load session", "session_id", sessionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		h.serve(r.Context(), conn, session)
	}).ServeHTTP(w, r)
}

// ActiveConnections reports the number of open websocket sessions.
func (h *Handler) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, session *conversation.Session) {
	sessionID := session.ID
	h.register(sessionID, conn)
	defer h.unregister(sessionID, conn)

	_ = websocket.JSON.Send(conn, OutboundFrame{
		Type:         FrameSession,
		SessionID:    sessionID,
		FlowState:    session.FlowState,
		Messages:     session.Messages,
		QuickActions: conversation.QuickActions,
	})
	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}
		if frame.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: FramePong})
			continue
		}
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: FrameTyping})
		_ = websocket.JSON.Send(conn, h.dispatch(ctx, sessionID, frame))
	}
}

func (h *Handler) dispatch(ctx context.Context, sessionID string, frame InboundFrame) OutboundFrame {
	var (
		result *conversation.TurnResult
		err    error
	)
	switch frame.Type {
	case "message":
		result, err = h.service.SubmitTurn(ctx, sessionID, frame.Text)
	case "select_slot":
		result, err = h.service.SelectSlot(ctx, sessionID, frame.SlotID)
	case "accept_offer":
		result, err = h.service.AcceptScheduleOffer(ctx, sessionID)
	case "quick_action":
		result, err = h.service.QuickAction(ctx, sessionID, strings.ToLower(strings.TrimSpace(frame.Action)))
	default:
		return OutboundFrame{Type: FrameError, SessionID: sessionID, Error: "unknown frame type"}
	}
	if err != nil {
		return OutboundFrame{Type: FrameError, SessionID: sessionID, Error: errorText(err)}
	}
	reply := result.Reply
	return OutboundFrame{Type: FrameReply, SessionID: sessionID, FlowState: result.Session.FlowState, Message: &reply}
}

func (h *Handler) register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	prev := h.conns[sessionID]
	h.conns[sessionID] = conn
	h.mu.Unlock()
	if prev != nil {
		_ = websocket.JSON.Send(prev, OutboundFrame{Type: FrameReplaced, SessionID: sessionID})
		_ = prev.Close()
	}
}

func (h *Handler) unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[sessionID] == conn {
		delete(h.conns, sessionID)
	}
	h.mu.Unlock()
}

func errorText(err error) string {
	switch {
	case errors.Is(err, conversation.ErrInvalidInput):
		return "Invalid input"
	case errors.Is(err, conversation.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, conversation.ErrTurnInProgress):
		return "A reply is still pending for this session"
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

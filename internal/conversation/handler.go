package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

const maxRequestBody = 16 << 10

// TokenIssuer mints a bearer token bound to a session ID.
type TokenIssuer interface {
	Issue(sessionID string) (string, error)
}

// SessionCreated is the body returned when a session starts.
type SessionCreated struct {
	Session      *Session      `json:"session"`
	QuickActions []QuickAction `json:"quick_actions"`
	Token        string        `json:"token,omitempty"`
}

// TurnRequest is the body of POST /chat/sessions/{sessionID}/turns.
type TurnRequest struct {
	Text string `json:"text"`
}

// Handler wires HTTP requests to the session service.
type Handler struct {
	service *Service
	tokens  TokenIssuer
	logger  *logging.Logger
}

// NewHandler creates a chat handler. tokens may be nil when session tokens
// are disabled.
func NewHandler(service *Service, tokens TokenIssuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, tokens: tokens, logger: logger}
}

// Routes mounts the session API. sessionAuth guards every per-session route.
func (h *Handler) Routes(sessionAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		if sessionAuth != nil {
			r.Use(sessionAuth)
		}
		r.Get("/", h.GetSession)
		r.Delete("/", h.EndSession)
		r.Post("/turns", h.SubmitTurn)
		r.Post("/slots/{slotID}", h.SelectSlot)
		r.Post("/schedule-offer", h.AcceptScheduleOffer)
		r.Post("/quick-actions/{action}", h.QuickAction)
	})
	return r
}

// CreateSession handles POST /chat/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.StartSession(r.Context())
	if err != nil {
		h.writeError(w, "failed to start session", err)
		return
	}
	resp := SessionCreated{Session: session, QuickActions: QuickActions}
	if h.tokens != nil {
		token, err := h.tokens.Issue(session.ID)
		if err != nil {
			h.writeError(w, "failed to issue session token", err)
			return
		}
		resp.Token = token
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

// GetSession handles GET /chat/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, "failed to load session", err)
		return
	}
	h.writeJSON(w, http.StatusOK, session)
}

// SubmitTurn handles POST /chat/sessions/{sessionID}/turns.
func (h *Handler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode turn request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.service.SubmitTurn(r.Context(), chi.URLParam(r, "sessionID"), req.Text)
	if err != nil {
		h.writeError(w, "failed to handle turn", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// SelectSlot handles POST /chat/sessions/{sessionID}/slots/{slotID}.
func (h *Handler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SelectSlot(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "slotID"))
	if err != nil {
		h.writeError(w, "failed to select slot", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// AcceptScheduleOffer handles POST /chat/sessions/{sessionID}/schedule-offer.
func (h *Handler) AcceptScheduleOffer(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.AcceptScheduleOffer(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, "failed to accept schedule offer", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// QuickAction handles POST /chat/sessions/{sessionID}/quick-actions/{action}.
func (h *Handler) QuickAction(w http.ResponseWriter, r *http.Request) {
	action := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "action")))
	result, err := h.service.QuickAction(r.Context(), chi.URLParam(r, "sessionID"), action)
	if err != nil {
		h.writeError(w, "failed to run quick action", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// EndSession handles DELETE /chat/sessions/{sessionID}.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.writeError(w, "failed to end session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusForError maps service errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTurnInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	status := StatusForError(err)
	switch status {
	case http.StatusBadRequest:
		http.Error(w, "Invalid input", status)
	case http.StatusNotFound:
		http.Error(w, "Session not found", status)
	case http.StatusConflict:
		http.Error(w, "A reply is still pending for this session", status)
	default:
		h.logger.Error(msg, "error", err)
		http.Error(w, "Internal server error", status)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

package conversation

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

const maxLegacyHistory = 20

var (
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	unsafeCharacters = strings.NewReplacer("<", "", ">", "", "'", "", `"`, "")
)

// LegacyChatRequest is the body accepted by POST /api/chat.
type LegacyChatRequest struct {
	Message             string             `json:"message"`
	ConversationHistory []LegacyHistoryMsg `json:"conversationHistory"`
}

type LegacyHistoryMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LegacyChatResponse reports the reply and whether it came from the model.
type LegacyChatResponse struct {
	Response string `json:"response"`
	Source   string `json:"source"`
}

// LegacyChatHandler serves the stateless single-shot chat endpoint older
// widgets call. History travels with each request; nothing is stored.
type LegacyChatHandler struct {
	controller *Controller
	logger     *logging.Logger
}

func NewLegacyChatHandler(controller *Controller, logger *logging.Logger) *LegacyChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &LegacyChatHandler{controller: controller, logger: logger}
}

// Chat handles POST /api/chat.
func (h *LegacyChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req LegacyChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if reason := validateLegacyRequest(req); reason != "" {
		h.logger.Debug("rejected legacy chat request", "reason", reason)
		http.Error(w, "Invalid input: "+reason, http.StatusBadRequest)
		return
	}

	message := SanitizeInput(req.Message)
	if message == "" {
		http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}

	history := make([]Message, 0, len(req.ConversationHistory))
	for _, entry := range req.ConversationHistory {
		author := AuthorAssistant
		if entry.Role == ChatRoleUser {
			author = AuthorUser
		}
		history = append(history, Message{Author: author, Text: SanitizeInput(entry.Content)})
	}

	reply, source := h.controller.Reply(r.Context(), message, history)
	resp := LegacyChatResponse{Response: reply, Source: "fallback"}
	if source == SourceCompletion {
		resp.Source = "ai"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

// SanitizeInput trims, strips HTML tags and quote/angle characters, and caps
// the result at MaxTurnLength characters.
func SanitizeInput(text string) string {
	text = htmlTagPattern.ReplaceAllString(strings.TrimSpace(text), "")
	text = unsafeCharacters.Replace(text)
	return strings.TrimSpace(truncateRunes(text, MaxTurnLength))
}

func validateLegacyRequest(req LegacyChatRequest) string {
	msg := strings.TrimSpace(req.Message)
	if msg == "" || utf8.RuneCountInString(msg) > MaxTurnLength {
		return "message must be between 1 and 1000 characters"
	}
	if len(req.ConversationHistory) > maxLegacyHistory {
		return "conversation history must have at most 20 messages"
	}
	for _, entry := range req.ConversationHistory {
		if entry.Role != "" && entry.Role != ChatRoleUser && entry.Role != ChatRoleAssistant {
			return "message role must be user or assistant"
		}
		if utf8.RuneCountInString(strings.TrimSpace(entry.Content)) > MaxTurnLength {
			return "each message must be under 1000 characters"
		}
	}
	return ""
}

package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/marketier-assistant/internal/observability/metrics"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

const (
	// MaxHistoryMessages is how many trailing messages accompany a turn.
	MaxHistoryMessages     = 6
	defaultProviderTimeout = 15 * time.Second
	defaultMaxReplyTokens  = 200
	defaultTemperature     = 0.7
)

var completionTracer = otel.Tracer("marketier.internal.conversation.completion")

// Completer produces a reply for a user turn. Implementations return an
// error wrapping ErrInvalidInput or ErrProviderUnavailable.
type Completer interface {
	Complete(ctx context.Context, userText string, history []Message, systemInstructions string) (string, error)
}

// CompletionConfig configures the remote completion client.
type CompletionConfig struct {
	Provider    string // label used in logs and metrics
	Model       string
	Timeout     time.Duration
	MaxTokens   int32
	Temperature float32
}

func (c CompletionConfig) withDefaults() CompletionConfig {
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = "llm"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultProviderTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxReplyTokens
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	return c
}

// CompletionClient sends one bounded request per turn to an LLM provider and
// folds every failure into ErrProviderUnavailable. It never retries.
type CompletionClient struct {
	llm     LLMClient
	cfg     CompletionConfig
	metrics *metrics.ConversationMetrics
	logger  *logging.Logger
}

// NewCompletionClient wraps a provider adapter.
func NewCompletionClient(llm LLMClient, cfg CompletionConfig, m *metrics.ConversationMetrics, logger *logging.Logger) *CompletionClient {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CompletionClient{llm: llm, cfg: cfg.withDefaults(), metrics: m, logger: logger}
}

// Provider returns the configured provider label.
func (c *CompletionClient) Provider() string { return c.cfg.Provider }

// Complete implements Completer.
func (c *CompletionClient) Complete(ctx context.Context, userText string, history []Message, systemInstructions string) (string, error) {
	text, err := ValidateTurn(userText)
	if err != nil {
		return "", err
	}
	req := c.buildRequest(text, history, systemInstructions)

	ctx, span := completionTracer.Start(ctx, "conversation.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.cfg.Provider),
		attribute.Int("llm.history_messages", len(req.Messages)-1),
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.llm.Complete(ctx, req)
	elapsed := time.Since(started)
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveCompletion(c.cfg.Provider, "error", elapsed)
		c.logger.Warn("completion failed", "provider", c.cfg.Provider, "elapsed_ms", elapsed.Milliseconds(), "error", err)
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		c.metrics.ObserveCompletion(c.cfg.Provider, "empty", elapsed)
		c.logger.Warn("completion returned empty reply", "provider", c.cfg.Provider, "stop_reason", resp.StopReason)
		return "", fmt.Errorf("%w: empty reply", ErrProviderUnavailable)
	}

	c.metrics.ObserveCompletion(c.cfg.Provider, "ok", elapsed)
	span.SetAttributes(attribute.Int("llm.output_tokens", int(resp.Usage.OutputTokens)))
	return reply, nil
}

func (c *CompletionClient) buildRequest(userText string, history []Message, systemInstructions string) LLMRequest {
	messages := TrimHistory(history)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: userText})

	var system []string
	if strings.TrimSpace(systemInstructions) != "" {
		system = []string{systemInstructions}
	}
	return LLMRequest{
		Model:       c.cfg.Model,
		System:      system,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
}

// TrimHistory keeps the last MaxHistoryMessages non-empty messages, each
// capped at MaxTurnLength characters, in provider shape.
func TrimHistory(history []Message) []ChatMessage {
	out := make([]ChatMessage, 0, MaxHistoryMessages+1)
	for i := len(history) - 1; i >= 0 && len(out) < MaxHistoryMessages; i-- {
		text := strings.TrimSpace(history[i].Text)
		if text == "" {
			continue
		}
		role := ChatRoleAssistant
		if history[i].Author == AuthorUser {
			role = ChatRoleUser
		}
		out = append(out, ChatMessage{Role: role, Content: truncateRunes(text, MaxTurnLength)})
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

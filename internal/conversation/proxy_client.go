package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// proxyRequest is the wire shape accepted by a completion proxy.
type proxyRequest struct {
	SystemInstructions string        `json:"systemInstructions"`
	History            []ChatMessage `json:"history"`
	UserTurn           string        `json:"userTurn"`
}

type proxyResponse struct {
	Reply string `json:"reply"`
}

// ProxyLLMClient implements LLMClient against an HTTP completion proxy that
// holds the real provider credentials.
type ProxyLLMClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *logging.Logger
}

// NewProxyLLMClient creates a proxy client. The request deadline comes from
// the caller's context; timeout only guards against a missing one.
func NewProxyLLMClient(endpoint, apiKey string, timeout time.Duration, logger *logging.Logger) (*ProxyLLMClient, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("conversation: completion endpoint is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ProxyLLMClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimSpace(endpoint),
		apiKey:     strings.TrimSpace(apiKey),
		logger:     logger,
	}, nil
}

func (c *ProxyLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	n := len(req.Messages)
	if n == 0 || req.Messages[n-1].Role != ChatRoleUser {
		return LLMResponse{}, errors.New("conversation: proxy requires a trailing user message")
	}
	body := proxyRequest{
		SystemInstructions: strings.Join(req.System, "\n\n"),
		History:            append([]ChatMessage{}, req.Messages[:n-1]...),
		UserTurn:           req.Messages[n-1].Content,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: marshal proxy request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: build proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: proxy request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: read proxy response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("completion proxy non-2xx response", "status", resp.StatusCode, "body", msg)
		return LLMResponse{}, fmt.Errorf("conversation: proxy returned %d", resp.StatusCode)
	}

	var decoded proxyResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: decode proxy response: %w", err)
	}
	return LLMResponse{Text: strings.TrimSpace(decoded.Reply)}, nil
}

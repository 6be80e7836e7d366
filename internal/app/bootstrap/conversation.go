package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/marketier-assistant/cmd/mainconfig"
	"github.com/wolfman30/marketier-assistant/internal/booking"
	"github.com/wolfman30/marketier-assistant/internal/calendly"
	appconfig "github.com/wolfman30/marketier-assistant/internal/config"
	"github.com/wolfman30/marketier-assistant/internal/conversation"
	"github.com/wolfman30/marketier-assistant/internal/observability/metrics"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// Conversation bundles the wired dialogue stack.
type Conversation struct {
	Controller         *conversation.Controller
	Service            *conversation.Service
	CompletionProvider string
}

// ConversationDeps are the optional collaborators of BuildConversation.
type ConversationDeps struct {
	Store      conversation.SessionStore
	TurnLocker conversation.TurnLocker
	Metrics    *metrics.ConversationMetrics
	Observers  []conversation.BookingObserver
	Logger     *logging.Logger
}

// BuildConversation wires completion, booking and the session service from
// config.
func BuildConversation(ctx context.Context, cfg *appconfig.Config, deps ConversationDeps) (*Conversation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	policy, err := SlotPolicy(cfg)
	if err != nil {
		return nil, err
	}
	completer, provider, err := BuildCompleter(ctx, cfg, deps.Metrics, logger)
	if err != nil {
		return nil, err
	}

	flowOpts := []conversation.BookingFlowOption{conversation.WithBookingMetrics(deps.Metrics)}
	for _, o := range deps.Observers {
		flowOpts = append(flowOpts, conversation.WithBookingObserver(o))
	}
	flow := conversation.NewBookingFlow(BuildBookingProvider(cfg, policy, logger), policy, cfg.CalendarURL, logger, flowOpts...)

	ctrlOpts := []conversation.ControllerOption{conversation.WithMetrics(deps.Metrics)}
	if completer != nil {
		ctrlOpts = append(ctrlOpts, conversation.WithCompleter(completer))
	}
	controller := conversation.NewController(flow, nil, logger, ctrlOpts...)

	logger.Info("conversation stack ready", "completion_provider", provider, "booking_provider", controller.BookingProvider())
	return &Conversation{
		Controller:         controller,
		Service:            conversation.NewService(controller, deps.Store, deps.Metrics, logger, conversation.WithTurnLocker(deps.TurnLocker)),
		CompletionProvider: provider,
	}, nil
}

// SlotPolicy builds the booking slot policy from business-hours settings.
func SlotPolicy(cfg *appconfig.Config) (booking.SlotPolicy, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(cfg.BusinessTimezone))
	if err != nil {
		return booking.SlotPolicy{}, fmt.Errorf("bootstrap: business timezone %q: %w", cfg.BusinessTimezone, err)
	}
	policy := booking.DefaultSlotPolicy(loc)
	if len(cfg.BusinessHours) > 0 {
		policy.Hours = append([]int(nil), cfg.BusinessHours...)
	}
	if cfg.BusinessOpenHour > 0 || cfg.BusinessCloseHour > 0 {
		policy.OpenHour, policy.CloseHour = cfg.BusinessOpenHour, cfg.BusinessCloseHour
	}
	if cfg.SlotWindowDays > 0 {
		policy.WindowDays = cfg.SlotWindowDays
	}
	return policy, nil
}

// BuildBookingProvider returns the Calendly adapter when Calendly is
// configured, or nil so the booking flow falls back to demo availability.
func BuildBookingProvider(cfg *appconfig.Config, policy booking.SlotPolicy, logger *logging.Logger) booking.Provider {
	token := strings.TrimSpace(cfg.CalendlyAPIToken)
	eventType := strings.TrimSpace(cfg.CalendlyEventTypeURI)
	if token == "" || eventType == "" {
		logger.Info("calendly not configured; using demo availability")
		return nil
	}
	client := calendly.NewClient(cfg.CalendlyBaseURL, token, cfg.ProviderTimeout, logger)
	return calendly.NewAdapter(client, eventType, policy, logger)
}

// BuildCompleter builds the remote completion client for the resolved
// provider. It returns a nil Completer and "none" when nothing is configured.
func BuildCompleter(ctx context.Context, cfg *appconfig.Config, m *metrics.ConversationMetrics, logger *logging.Logger) (conversation.Completer, string, error) {
	provider := cfg.ResolvedCompletionProvider()

	var (
		llm   conversation.LLMClient
		model string
		err   error
	)
	switch provider {
	case "none":
		logger.Warn("no completion provider configured; answering from the fallback table")
		return nil, provider, nil
	case "openai":
		model = cfg.OpenAIModel
		llm, err = conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey, "", model)
	case "gemini":
		model = cfg.GeminiModel
		llm, err = conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, model)
	case "proxy":
		llm, err = conversation.NewProxyLLMClient(cfg.CompletionEndpoint, cfg.CompletionAPIKey, cfg.ProviderTimeout, logger)
	case "bedrock":
		model = strings.TrimSpace(cfg.BedrockModelID)
		if model == "" {
			return nil, provider, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for bedrock")
		}
		var awsCfg aws.Config
		if awsCfg, err = mainconfig.LoadAWSConfig(ctx, cfg); err == nil {
			llm = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), model)
		}
	default:
		return nil, provider, fmt.Errorf("bootstrap: unknown completion provider %q", provider)
	}
	if err != nil {
		return nil, provider, fmt.Errorf("bootstrap: %s client: %w", provider, err)
	}

	client := conversation.NewCompletionClient(llm, conversation.CompletionConfig{
		Provider:  provider,
		Model:     model,
		Timeout:   cfg.ProviderTimeout,
		MaxTokens: int32(cfg.MaxReplyTokens),
	}, m, logger)
	return client, provider, nil
}

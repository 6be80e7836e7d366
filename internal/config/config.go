package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Remote completion provider: "openai", "gemini", "bedrock", "proxy", "none" or "auto".
	CompletionProvider string
	OpenAIAPIKey       string
	OpenAIModel        string
	CompletionEndpoint string
	CompletionAPIKey   string
	GeminiAPIKey       string
	GeminiModel        string
	BedrockModelID     string
	ProviderTimeout    time.Duration
	MaxReplyTokens     int

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Session storage: "memory" or "redis".
	SessionStore       string
	SessionTTL         time.Duration
	SessionTokenSecret string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool

	// Scheduling
	CalendlyAPIToken     string
	CalendlyEventTypeURI string
	CalendlyBaseURL      string
	CalendarURL          string
	BusinessTimezone     string
	BusinessHours        []int
	BusinessOpenHour     int
	BusinessCloseHour    int
	SlotWindowDays       int

	// Booking ledger
	DatabaseURL string

	// Booking confirmation email: "sendgrid", "ses" or "" (stub).
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	BookingTeamEmail  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 100.0/900.0),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		CompletionProvider: strings.ToLower(strings.TrimSpace(getEnv("COMPLETION_PROVIDER", "auto"))),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		CompletionEndpoint: getEnv("COMPLETION_ENDPOINT", ""),
		CompletionAPIKey:   getEnv("COMPLETION_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BedrockModelID:     getEnv("BEDROCK_MODEL_ID", ""),
		ProviderTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT", 15*time.Second),
		MaxReplyTokens:     getEnvAsInt("MAX_REPLY_TOKENS", 200),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SessionStore:       strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		SessionTokenSecret: getEnv("SESSION_TOKEN_SECRET", ""),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),

		CalendlyAPIToken:     getEnv("CALENDLY_API_TOKEN", ""),
		CalendlyEventTypeURI: getEnv("CALENDLY_EVENT_TYPE_URI", ""),
		CalendlyBaseURL:      getEnv("CALENDLY_BASE_URL", ""),
		CalendarURL:          getEnv("CALENDAR_URL", "https://calendly.com/brettponters/marketier"),
		BusinessTimezone:     getEnv("BUSINESS_TIMEZONE", "America/New_York"),
		BusinessHours:        getEnvAsIntList("BUSINESS_HOURS", []int{10, 14, 16}),
		BusinessOpenHour:     getEnvAsInt("BUSINESS_OPEN_HOUR", 9),
		BusinessCloseHour:    getEnvAsInt("BUSINESS_CLOSE_HOUR", 17),
		SlotWindowDays:       getEnvAsInt("SLOT_WINDOW_DAYS", 7),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "The Marketier"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		BookingTeamEmail:  getEnv("BOOKING_TEAM_EMAIL", ""),
	}
}

// ResolvedCompletionProvider turns "auto" into a concrete provider based on
// which credentials are present. "none" means the fallback responder answers
// every non-booking turn.
func (c *Config) ResolvedCompletionProvider() string {
	switch c.CompletionProvider {
	case "openai", "gemini", "bedrock", "proxy", "none":
		return c.CompletionProvider
	}
	switch {
	case strings.TrimSpace(c.OpenAIAPIKey) != "":
		return "openai"
	case strings.TrimSpace(c.GeminiAPIKey) != "":
		return "gemini"
	case strings.TrimSpace(c.CompletionEndpoint) != "":
		return "proxy"
	case strings.TrimSpace(c.BedrockModelID) != "":
		return "bedrock"
	default:
		return "none"
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsIntList parses a comma separated list of integers. Any invalid
// entry makes the whole value fall back to the default.
func getEnvAsIntList(key string, defaultValue []int) []int {
	parts := getEnvAsList(key, nil)
	if len(parts) == 0 {
		return defaultValue
	}
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, v)
	}
	return out
}

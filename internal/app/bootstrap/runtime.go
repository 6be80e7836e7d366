package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	appconfig "github.com/wolfman30/marketier-assistant/internal/config"
	"github.com/wolfman30/marketier-assistant/internal/conversation"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the session store named by SESSION_STORE. A redis
// store that cannot be reached degrades to memory so chat keeps working on a
// single instance.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.SessionStore, *redis.Client) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SessionStore == "redis" {
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL.String())
			return conversation.NewRedisSessionStore(client, cfg.SessionTTL, otel.Tracer("marketier.internal.conversation.sessions")), client
		}
		logger.Warn("redis session store unavailable; falling back to memory")
	}
	logger.Info("using in-memory session store", "ttl", cfg.SessionTTL.String())
	return conversation.NewMemorySessionStore(cfg.SessionTTL), nil
}

// BuildTurnLocker returns a redis turn lock when sessions live in redis, so
// instances behind a load balancer never run two turns on one session. It
// returns nil without a client and the service keeps its in-process guard.
func BuildTurnLocker(cfg *appconfig.Config, client *redis.Client) conversation.TurnLocker {
	if client == nil {
		return nil
	}
	// A turn can wait on the completion provider and then on the booking
	// provider.
	ttl := 3 * cfg.ProviderTimeout
	if ttl < 30*time.Second {
		ttl = 30 * time.Second
	}
	return conversation.NewRedisTurnLocker(client, ttl)
}

// ConnectPostgresPool returns nil when databaseURL is empty or unreachable.
func ConnectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Error("invalid DATABASE_URL", "error", err)
		return nil
	}
	poolCfg.MaxConns = 5
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Error("postgres not reachable; booking ledger disabled", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

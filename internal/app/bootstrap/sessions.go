package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wmcproducts/partner-site/internal/auth"
	appconfig "github.com/wmcproducts/partner-site/internal/config"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

// BuildSessionStore picks the admin session store named by SESSION_STORE.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (auth.SessionStore, *redis.Client, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	switch cfg.SessionStore {
	case "", "memory":
		return auth.NewMemorySessionStore(), nil, nil
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, nil, fmt.Errorf("bootstrap: redis session store unavailable at %s", cfg.RedisAddr)
		}
		return auth.NewRedisSessionStore(client), client, nil
	}
	return nil, nil, fmt.Errorf("bootstrap: unknown SESSION_STORE %q", cfg.SessionStore)
}

// BuildAuthProvider wires the single-operator provider over store.
func BuildAuthProvider(cfg *appconfig.Config, store auth.SessionStore, logger *logging.Logger) (*auth.LocalProvider, error) {
	return auth.NewLocalProvider(auth.LocalConfig{
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       cfg.AdminJWTSecret,
		TTL:          cfg.SessionTTL,
	}, store, logger)
}

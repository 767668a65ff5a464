package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/modules/player"
	"github.com/yungbote/coursehall-backend/internal/pkg/async"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type Clients struct {
	Sessions player.SessionStore
	Async    *async.Runner

	closers []func(context.Context) error
}

func wireClients(cfg Config, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")
	c := Clients{Async: async.NewRunner(cfg.AsyncLimit, cfg.AsyncTimeout, log)}

	// Redis
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		sessions, err := player.NewRedisSessions(player.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis sessions: %w", err)
		}
		c.Sessions = sessions
		if cl, ok := sessions.(interface{ Close() error }); ok {
			c.closers = append(c.closers, func(context.Context) error { return cl.Close() })
		}
	} else {
		c.Sessions = player.NewMemorySessions(cfg.SessionTTL)
	}
	return c, nil
}

// Close drains background work first, then releases connections.
func (c Clients) Close(ctx context.Context, log *logger.Logger) {
	if c.Async != nil {
		if err := c.Async.Shutdown(ctx); err != nil {
			log.Warn("Background tasks did not drain", "error", err)
		}
	}
	for _, fn := range c.closers {
		if err := fn(ctx); err != nil {
			log.Warn("Client close failed", "error", err)
		}
	}
}

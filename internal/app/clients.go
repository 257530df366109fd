package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/platform/sendgrid"
	"github.com/openacademy/trilhas-backend/internal/realtime/bus"
)

// Clients are the optional external connections. Nil fields mean the
// feature falls back to its in-process variant.
type Clients struct {
	Redis    *goredis.Client
	SSEBus   bus.Bus
	Sendgrid sendgrid.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping %s: %w", addr, err)
		}
		b, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		c.Redis, c.SSEBus = rdb, b
	}

	// Sendgrid
	if strings.TrimSpace(cfg.SendgridAPIKey) != "" {
		sg, err := sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.SendgridAPIKey,
			DefaultFromEmail: cfg.SendgridFromEmail,
			DefaultFromName:  cfg.SendgridFromName,
			MaxRetries:       3,
		})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
		c.Sendgrid = sg
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

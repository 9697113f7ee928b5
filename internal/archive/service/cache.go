package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/info-evry/astro-ndi-sub000/internal/archive"
)

const (
	summaryCacheKey = "ndi:archives:summaries"
	summaryCacheTTL = 5 * time.Minute
)

// SummaryCache keeps the archive summary list in redis. The listing is the
// hot admin read; the builder and enforcer invalidate it on every mutation.
// Cache failures degrade to the database, never to an error.
type SummaryCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewSummaryCache(client *redis.Client, logger *slog.Logger) *SummaryCache {
	return &SummaryCache{client: client, logger: logger}
}

func (c *SummaryCache) Get(ctx context.Context) ([]archive.Summary, bool) {
	payload, err := c.client.Get(ctx, summaryCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "summary cache read failed", "error", err.Error())
		}
		return nil, false
	}
	var summaries []archive.Summary
	if err := json.Unmarshal(payload, &summaries); err != nil {
		c.logger.WarnContext(ctx, "summary cache decode failed", "error", err.Error())
		return nil, false
	}
	return summaries, true
}

func (c *SummaryCache) Set(ctx context.Context, summaries []archive.Summary) {
	payload, err := json.Marshal(summaries)
	if err != nil {
		c.logger.WarnContext(ctx, "summary cache encode failed", "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, summaryCacheKey, payload, summaryCacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "summary cache write failed", "error", err.Error())
	}
}

func (c *SummaryCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, summaryCacheKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "summary cache invalidation failed", "error", err.Error())
	}
}

package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
)

const (
	defaultDedupTTL = 24 * time.Hour
	dedupKeyPrefix  = "dedup:wamid:"
)

// DedupGuard short-circuits redelivered provider message ids before
// they reach the wrapped sink. Redis keeps one key per id with a TTL;
// when Redis is unreachable the write falls through and idempotence is
// left to the wrapped sink's own contract.
type DedupGuard struct {
	inner  Sink
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDedupGuard(inner Sink, client *goredis.Client, ttl time.Duration, logger *zap.Logger) (*DedupGuard, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner sink is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DedupGuard{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (g *DedupGuard) Record(ctx context.Context, msg domain.Message) error {
	if g == nil || g.inner == nil {
		return fmt.Errorf("dedup guard is not initialized")
	}
	if strings.TrimSpace(msg.WhatsAppID) == "" {
		return g.inner.Record(ctx, msg)
	}

	key := dedupKeyPrefix + msg.WhatsAppID
	fresh, err := g.client.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		g.logger.Warn("dedup check unavailable, forwarding to sink",
			zap.String("whatsappId", msg.WhatsAppID),
			zap.Error(err),
		)
		return g.inner.Record(ctx, msg)
	}
	if !fresh {
		g.logger.Debug("duplicate message id dropped",
			zap.String("whatsappId", msg.WhatsAppID),
		)
		return nil
	}

	if err := g.inner.Record(ctx, msg); err != nil {
		// Free the key so a provider redelivery can try the sink again.
		if delErr := g.client.Del(ctx, key).Err(); delErr != nil {
			g.logger.Warn("failed to release dedup key",
				zap.String("whatsappId", msg.WhatsAppID),
				zap.Error(delErr),
			)
		}
		return err
	}

	return nil
}

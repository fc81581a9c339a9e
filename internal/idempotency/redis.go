package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourorg/payment-processor/internal/payment"
)

const defaultTTL = 24 * time.Hour

// RedisLedger is a Ledger shared across processes. Results are stored as
// JSON under a prefixed key with a retention TTL; SET NX keeps the first
// terminal result authoritative.
type RedisLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLedger creates a RedisLedger. A non-positive ttl falls back to 24h.
func NewRedisLedger(rdb *redis.Client, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLedger{rdb: rdb, ttl: ttl}
}

func (l *RedisLedger) key(id string) string {
	return fmt.Sprintf("payment:result:%s", id)
}

// Get implements Ledger.
func (l *RedisLedger) Get(ctx context.Context, id string) (payment.PaymentResult, bool, error) {
	raw, err := l.rdb.Get(ctx, l.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return payment.PaymentResult{}, false, nil
	}
	if err != nil {
		return payment.PaymentResult{}, false, fmt.Errorf("idempotency: redis GET: %w", err)
	}
	var result payment.PaymentResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return payment.PaymentResult{}, false, fmt.Errorf("idempotency: decode record %s: %w", id, err)
	}
	return result, true, nil
}

// Put implements Ledger.
func (l *RedisLedger) Put(ctx context.Context, id string, result payment.PaymentResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("idempotency: encode record %s: %w", id, err)
	}
	if err := l.rdb.SetNX(ctx, l.key(id), raw, l.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency: redis SETNX: %w", err)
	}
	return nil
}

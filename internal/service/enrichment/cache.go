package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	applog "github.com/janisto/lead-intake/internal/platform/logging"
)

const (
	fxCacheKey        = "lead-intake:fx:usd:eur"
	DefaultFXCacheTTL = 10 * time.Minute
)

// CachingService serves the exchange rate from Redis when a fresh value is
// cached. Fun facts are never cached. Cache failures fall through to the
// wrapped Service.
type CachingService struct {
	next Service
	rdb  redis.Cmdable
	ttl  time.Duration
}

func NewCachingService(next Service, rdb redis.Cmdable, ttl time.Duration) *CachingService {
	if ttl <= 0 {
		ttl = DefaultFXCacheTTL
	}
	return &CachingService{next: next, rdb: rdb, ttl: ttl}
}

func (s *CachingService) ExchangeRate(ctx context.Context) (float64, error) {
	cached, err := s.rdb.Get(ctx, fxCacheKey).Float64()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		applog.LogWarn(ctx, "fx cache read failed", zap.Error(err))
	}

	rate, err := s.next.ExchangeRate(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.rdb.Set(ctx, fxCacheKey, strconv.FormatFloat(rate, 'f', -1, 64), s.ttl).Err(); err != nil {
		applog.LogWarn(ctx, "fx cache write failed", zap.Error(err))
	}
	return rate, nil
}

func (s *CachingService) FunFact(ctx context.Context, maxChars int) (string, error) {
	return s.next.FunFact(ctx, maxChars)
}

// OpenRedis connects to the Redis server at url (redis:// or rediss://) and
// checks it responds.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

var _ Service = (*CachingService)(nil)

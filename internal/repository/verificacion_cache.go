package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"evot/internal/dto"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const verificacionKeyPrefix = "verificacion:"

var verificacionCacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "evot_verificacion_cache_total",
	Help: "Public diploma verification cache lookups by result.",
}, []string{"result"})

// VerificacionCache caches the public by-cedula diploma lookup.
// Failures are logged and treated as a miss; the cache never fails a request.
type VerificacionCache interface {
	Get(ctx context.Context, cedula int64) (*dto.VerificacionResponse, bool)
	Set(ctx context.Context, cedula int64, v *dto.VerificacionResponse)
	Invalidate(ctx context.Context, cedulas ...int64)
}

type redisVerificacionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewVerificacionCache(rdb *redis.Client, ttl time.Duration) VerificacionCache {
	return &redisVerificacionCache{rdb: rdb, ttl: ttl}
}

func verificacionKey(cedula int64) string {
	return verificacionKeyPrefix + strconv.FormatInt(cedula, 10)
}

func (c *redisVerificacionCache) Get(ctx context.Context, cedula int64) (*dto.VerificacionResponse, bool) {
	raw, err := c.rdb.Get(ctx, verificacionKey(cedula)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Int64("cedula", cedula).Msg("verificacion cache: get")
		}
		verificacionCacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}
	var v dto.VerificacionResponse
	if err := json.Unmarshal(raw, &v); err != nil {
		verificacionCacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}
	verificacionCacheOps.WithLabelValues("hit").Inc()
	return &v, true
}

func (c *redisVerificacionCache) Set(ctx context.Context, cedula int64, v *dto.VerificacionResponse) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, verificacionKey(cedula), raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Int64("cedula", cedula).Msg("verificacion cache: set")
	}
}

func (c *redisVerificacionCache) Invalidate(ctx context.Context, cedulas ...int64) {
	if len(cedulas) == 0 {
		return
	}
	keys := make([]string, 0, len(cedulas))
	for _, ced := range cedulas {
		keys = append(keys, verificacionKey(ced))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("verificacion cache: invalidate")
	}
}

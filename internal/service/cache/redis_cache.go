package cache

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	pkgcache "HKPulse/pkg/cache"
)

// RedisCache adapts the layered cache (memory L1, redis L2) to the
// BytesCache interface the handlers use.
type RedisCache struct {
	layered *pkgcache.LayeredCache
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	host, port := splitAddr(cfg.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Password),
		pkgcache.WithRedisDB(cfg.DB),
		pkgcache.WithRedisPrefix("hkpulse:api"),
	)
	if err != nil {
		return nil, err
	}
	return &RedisCache{layered: pkgcache.NewLayeredCache(rc)}, nil
}

func (r *RedisCache) GetBytes(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var s string
	if err := r.layered.Get(ctx, key, &s); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(s), true, nil
}

func (r *RedisCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.layered.Set(ctx, key, string(value), ttl)
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

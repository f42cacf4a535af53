package redis

import (
	"context"
	"time"
)

// StringCache 带统一前缀与过期时间的字符串缓存
type StringCache struct {
	prefix string
	ttl    time.Duration
}

func NewStringCache(prefix string, ttl time.Duration) *StringCache {
	return &StringCache{prefix: prefix, ttl: ttl}
}

// Get 命中返回 (value, true)
func (s *StringCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := GetValue(ctx, s.prefix+key)
	if err != nil {
		return "", false, err
	}
	return value, value != "", nil
}

func (s *StringCache) Set(ctx context.Context, key string, value string) error {
	return SetWithExpiration(ctx, s.prefix+key, value, s.ttl)
}

package catalog

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// cachedMatcher is a read-through Redis cache in front of a Matcher.
// Cache errors degrade to direct lookups, never to request failures.
type cachedMatcher struct {
	inner Matcher
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedMatcher wraps a Matcher with a Redis cache.
// Returns the inner matcher unchanged when rdb is nil.
func NewCachedMatcher(inner Matcher, rdb *redis.Client, ttl time.Duration) Matcher {
	if rdb == nil {
		return inner
	}
	return &cachedMatcher{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *cachedMatcher) FindBestMatch(ctx context.Context, keywords []string) (*Item, error) {
	key := matchKey(keywords)

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var item Item
		if err := json.Unmarshal(data, &item); err == nil {
			return &item, nil
		}
	}

	item, err := c.inner.FindBestMatch(ctx, keywords)
	if err != nil || item == nil {
		return item, err
	}

	if data, err := json.Marshal(item); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache catalog match")
		}
	}

	return item, nil
}

func (c *cachedMatcher) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	key := "catalog:item:" + id.String()

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var item Item
		if err := json.Unmarshal(data, &item); err == nil {
			return &item, nil
		}
	}

	item, err := c.inner.GetByID(ctx, id)
	if err != nil || item == nil {
		return item, err
	}

	if data, err := json.Marshal(item); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache catalog item")
		}
	}

	return item, nil
}

func matchKey(keywords []string) string {
	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			terms = append(terms, kw)
		}
	}
	sort.Strings(terms)
	return "catalog:match:" + strings.Join(terms, "|")
}

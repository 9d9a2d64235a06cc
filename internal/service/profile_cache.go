package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/psds-microservice/complaint-service/internal/policy"
)

var (
	profileCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaint_profile_cache_hits_total",
		Help: "Попадания в кэш категорий AdminProfile.",
	})
	profileCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaint_profile_cache_misses_total",
		Help: "Промахи кэша категорий AdminProfile.",
	})
)

// ScopeInvalidator сбрасывает закэшированные категории AdminProfile. Реализуют
// локальный кэш и шина сброса между процессами.
type ScopeInvalidator interface {
	Invalidate(userID string)
	Purge()
}

// ScopeInvalidators передаёт сброс каждому получателю по очереди.
type ScopeInvalidators []ScopeInvalidator

func (s ScopeInvalidators) Invalidate(userID string) {
	for _, inv := range s {
		inv.Invalidate(userID)
	}
}

func (s ScopeInvalidators) Purge() {
	for _, inv := range s {
		inv.Purge()
	}
}

type profileScope struct {
	categoryIDs []uint64
	found       bool
}

// ProfileScopeCache: LRU с TTL поверх источника категорий AdminProfile.
// Ошибки источника не кэшируются. size <= 0 отключает кэш.
type ProfileScopeCache struct {
	src   policy.ProfileSource
	cache *expirable.LRU[string, profileScope]
}

func NewProfileScopeCache(src policy.ProfileSource, size int, ttl time.Duration) *ProfileScopeCache {
	c := &ProfileScopeCache{src: src}
	if size > 0 {
		c.cache = expirable.NewLRU[string, profileScope](size, nil, ttl)
	}
	return c
}

// CategoryScope реализует policy.ProfileSource.
func (c *ProfileScopeCache) CategoryScope(ctx context.Context, userID string) ([]uint64, bool, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(userID); ok {
			profileCacheHitsTotal.Inc()
			return append([]uint64(nil), v.categoryIDs...), v.found, nil
		}
		profileCacheMissesTotal.Inc()
	}
	ids, found, err := c.src.CategoryScope(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if c.cache != nil {
		c.cache.Add(userID, profileScope{categoryIDs: append([]uint64(nil), ids...), found: found})
	}
	return ids, found, nil
}

// Invalidate сбрасывает запись пользователя.
func (c *ProfileScopeCache) Invalidate(userID string) {
	if c.cache != nil {
		c.cache.Remove(userID)
	}
}

// Purge сбрасывает весь кэш.
func (c *ProfileScopeCache) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

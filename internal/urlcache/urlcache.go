package urlcache

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/photoshare/internal/blobstore"
)

// WrapLruCacheToStore caches signed read URLs. ttl must stay well below the
// lifetime of the URLs themselves so a cached URL is never handed out close
// to its expiry.
func WrapLruCacheToStore(s blobstore.Store, size int, ttl time.Duration) blobstore.Store {
	if s == nil || size <= 0 || ttl <= 0 {
		return s
	}
	return &lruStore{
		Store: s,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

type lruStore struct {
	blobstore.Store
	cache *expirable.LRU[string, string]
}

func (l *lruStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	cacheKey := key + "|" + strconv.FormatInt(int64(ttl), 10)
	if cached, ok := l.cache.Get(cacheKey); ok {
		logutil.GetLogger(ctx).Debug("read url cache hit", zap.String("key", key))
		return cached, nil
	}
	signed, err := l.Store.PresignGet(ctx, key, ttl)
	if err != nil {
		return "", err
	}
	l.cache.Add(cacheKey, signed)
	return signed, nil
}

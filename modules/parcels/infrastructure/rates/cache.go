package rates

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Cache is the read-through rate cache: a hit returns the stored value
// without touching the provider; a miss fetches, stores under the fixed
// key with the configured TTL, and returns. Concurrent misses may each hit
// the provider; last write wins. Provider failures are never cached.
type Cache struct {
	store    Store
	provider Provider
	key      string
	ttl      time.Duration
	log      *logrus.Entry
}

func NewCache(store Store, provider Provider, key string, ttl time.Duration, log *logrus.Entry) *Cache {
	return &Cache{
		store:    store,
		provider: provider,
		key:      key,
		ttl:      ttl,
		log:      log,
	}
}

func (c *Cache) GetRate(ctx context.Context) (float64, error) {
	cached, err := c.store.Get(ctx, c.key)
	if err == nil {
		rate, parseErr := parseRate(cached)
		if parseErr == nil {
			observeCacheLookup("hit")
			return rate, nil
		}
		// A corrupt entry behaves like a miss; overwritten below.
		c.log.WithError(parseErr).WithField("value", cached).Warn("rates: discarding malformed cache entry")
	} else if !stderrors.Is(err, ErrNotCached) {
		c.log.WithError(err).Warn("rates: cache read failed, falling through to provider")
	}
	observeCacheLookup("miss")

	rate, err := c.provider.FetchRate(ctx)
	if err != nil {
		return 0, err
	}

	if err := c.store.SetEx(ctx, c.key, formatRate(rate), c.ttl); err != nil {
		// The fetched rate is still good; losing the cache write only costs
		// an extra provider call later.
		c.log.WithError(err).Warn("rates: cache write failed")
	}
	return rate, nil
}

func parseRate(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrap(err, "parse rate")
	}
	rate, _ := d.Float64()
	if rate <= 0 {
		return 0, errors.Errorf("non-positive rate %q", s)
	}
	return rate, nil
}

func formatRate(rate float64) string {
	return decimal.NewFromFloat(rate).String()
}

package rates

import (
	"context"
	"errors"
	"time"
)

// ErrNotCached is returned by Store.Get when the key is absent or expired.
var ErrNotCached = errors.New("rate not cached")

// Store is the key-value surface the read-through cache needs: get and
// set-with-expiration. Values travel as decimal text so no precision is
// lost between writers and readers.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
}

package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedCropper memoizes crops by path, start and duration.
type CachedCropper struct {
	next  Cropper
	cache *cache.Cache
}

// NewCachedCropper wraps next with an in-memory cache whose entries expire after ttl.
func NewCachedCropper(next Cropper, ttl time.Duration) *CachedCropper {
	return &CachedCropper{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Crop implements Cropper.
func (c *CachedCropper) Crop(ctx context.Context, path string, start, duration *float64) ([]byte, error) {
	key := cropKey(path, start, duration)
	if v, ok := c.cache.Get(key); ok {
		return v.([]byte), nil
	}
	data, err := c.next.Crop(ctx, path, start, duration)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, data)
	return data, nil
}

// Flush drops all cached segments.
func (c *CachedCropper) Flush() {
	c.cache.Flush()
}

func cropKey(path string, start, duration *float64) string {
	opt := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return formatSeconds(*v)
	}
	return fmt.Sprintf("%s|%s|%s", path, opt(start), opt(duration))
}

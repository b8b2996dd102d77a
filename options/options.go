// Package options holds the global settings that contributors assemble
// during aggregation. A Builder is write-only; Build freezes it into an
// Options value that the container bootstrap consumes.
package options

import (
	"maps"
	"slices"
	"time"
)

// RetryPolicy bounds how the shared HTTP client retries idempotent requests.
type RetryPolicy struct {
	// Max is the number of retries after the first attempt. Zero disables retries.
	Max             uint64        `validate:"max=10"`
	InitialInterval time.Duration `validate:"gte=0"`
	MaxInterval     time.Duration `validate:"gtefield=InitialInterval"`
}

// Options is an immutable snapshot. Accessors return copies of any
// reference-typed fields.
type Options struct {
	baseURL   string
	timeout   time.Duration
	retry     RetryPolicy
	userAgent string
	headers   map[string]string
	logHTTP   bool
	cacheDir  string
	values    map[string]any
}

func (o Options) BaseURL() string            { return o.baseURL }
func (o Options) HTTPTimeout() time.Duration { return o.timeout }
func (o Options) Retry() RetryPolicy         { return o.retry }
func (o Options) UserAgent() string          { return o.userAgent }
func (o Options) LogHTTP() bool              { return o.logHTTP }
func (o Options) CacheDir() string           { return o.cacheDir }
func (o Options) Headers() map[string]string { return maps.Clone(o.headers) }

// Value returns a free-form value set by a contributor with Builder.Set.
func (o Options) Value(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the names of all free-form values, sorted.
func (o Options) Keys() []string {
	return slices.Sorted(maps.Keys(o.values))
}

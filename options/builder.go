package options

import (
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	DefaultUserAgent   = "hostkit"
)

// DefaultRetry is the retry policy a Builder starts with.
var DefaultRetry = RetryPolicy{
	Max:             2,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// fields mirrors Options with exported fields so the validator can see them.
type fields struct {
	BaseURL   string        `validate:"omitempty,url"`
	Timeout   time.Duration `validate:"gte=0"`
	Retry     RetryPolicy
	UserAgent string `validate:"required"`
	Headers   map[string]string
	LogHTTP   bool
	CacheDir  string
	Values    map[string]any
}

// Builder collects option writes from contributors. It deliberately has no
// getters: a contributor can only write, and a later write to the same
// setting replaces an earlier one.
//
// Builder is not safe for concurrent use.
type Builder struct {
	f fields
}

// NewBuilder returns a Builder pre-populated with defaults.
func NewBuilder() *Builder {
	return &Builder{f: fields{
		Timeout:   DefaultHTTPTimeout,
		Retry:     DefaultRetry,
		UserAgent: DefaultUserAgent,
		Headers:   map[string]string{},
		Values:    map[string]any{},
	}}
}

func (b *Builder) BaseURL(u string) *Builder {
	b.f.BaseURL = u
	return b
}

func (b *Builder) HTTPTimeout(d time.Duration) *Builder {
	b.f.Timeout = d
	return b
}

func (b *Builder) Retry(p RetryPolicy) *Builder {
	b.f.Retry = p
	return b
}

func (b *Builder) UserAgent(ua string) *Builder {
	b.f.UserAgent = ua
	return b
}

// Header adds a default header sent with every request of the shared client.
func (b *Builder) Header(key, value string) *Builder {
	b.f.Headers[http.CanonicalHeaderKey(key)] = value
	return b
}

func (b *Builder) LogHTTP(enabled bool) *Builder {
	b.f.LogHTTP = enabled
	return b
}

func (b *Builder) CacheDir(dir string) *Builder {
	b.f.CacheDir = dir
	return b
}

// Set stores a free-form value under key.
func (b *Builder) Set(key string, value any) *Builder {
	b.f.Values[key] = value
	return b
}

// Build validates the collected values and returns a frozen snapshot.
// The Builder may keep being written to afterwards without affecting the
// returned Options.
func (b *Builder) Build() (Options, error) {
	if err := validate.Struct(b.f); err != nil {
		return Options{}, fmt.Errorf("invalid options: %w", err)
	}
	return Options{
		baseURL:   b.f.BaseURL,
		timeout:   b.f.Timeout,
		retry:     b.f.Retry,
		userAgent: b.f.UserAgent,
		headers:   maps.Clone(b.f.Headers),
		logHTTP:   b.f.LogHTTP,
		cacheDir:  b.f.CacheDir,
		values:    maps.Clone(b.f.Values),
	}, nil
}

var validate = validator.New()

package throttle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttle's requests per second and burst capacity.
type Config struct {
	RPS   int
	Burst int
}

// Validate checks that both limits are positive.
func (c Config) Validate() error {
	if c.RPS <= 0 || c.Burst <= 0 {
		return fmt.Errorf("rps[%d] and burst[%d] %w", c.RPS, c.Burst, ErrMustNotBeZero)
	}
	return nil
}

// Throttle gates transfers behind a token bucket.
type Throttle struct {
	limiter *rate.Limiter
	cfg     Config
	logFn   func() *zap.Logger
}

// New returns a Throttle for cfg. logFn lazily resolves the logger at
// request time; a nil logFn, or one returning nil, disables logging.
func New(cfg Config, logFn func() *zap.Logger) (*Throttle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logFn == nil {
		logFn = func() *zap.Logger { return nil }
	}

	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:     cfg,
		logFn:   logFn,
	}, nil
}

// Wait blocks until a token is available or ctx ends.
// target only labels the log lines.
func (t *Throttle) Wait(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	logger := t.logFn()
	if logger != nil && t.limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted",
			zap.Int("rate", t.cfg.RPS), zap.Int("burst", t.cfg.Burst), zap.String("target", target))
	}

	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if waited := time.Since(start); logger != nil && waited > time.Millisecond {
		logger.Info("throttle wait complete", zap.Duration("waited", waited), zap.String("target", target))
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return nil
}

// Middleware returns a resty request middleware that waits on the throttle
// before each request is sent.
func (t *Throttle) Middleware() resty.RequestMiddleware {
	return func(_ *resty.Client, r *resty.Request) error {
		return t.Wait(r.Context(), r.URL)
	}
}

// RoundTripper wraps next so every round trip waits on the throttle.
func (t *Throttle) RoundTripper(next http.RoundTripper) http.RoundTripper {
	return roundTripper{t: t, next: next}
}

type roundTripper struct {
	t    *Throttle
	next http.RoundTripper
}

func (rt roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := rt.t.Wait(r.Context(), r.URL.Path); err != nil {
		return nil, err
	}

	return rt.next.RoundTrip(r)
}

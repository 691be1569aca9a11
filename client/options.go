package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/adamwoolhether/curler/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	resty             *resty.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *zap.Logger
	tracerProvider    trace.TracerProvider
	requestIDHeader   string
}

// WithRestyClient replaces the default [resty.Client] the [Client] drives.
func WithRestyClient(rc *resty.Client) Option {
	return func(o *options) error {
		if rc == nil {
			return fmt.Errorf("resty client must not be nil: %w", ErrTransferUnavailable)
		}
		o.resty = rc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return fmt.Errorf("transport must not be nil: %w", ErrTransferUnavailable)
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout bounds each transfer. Zero, the default, means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent replaces [DefaultUserAgent] for all requests.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		if ua == "" {
			return errors.New("user agent must not be empty")
		}
		o.userAgent = ua
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects makes the transfer library return redirect
// responses instead of following them.
func WithNoFollowRedirects() Option {
	return func(o *options) error {
		o.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a [zap.Logger]. It also receives the transfer
// library's request and response dump, at debug level, when
// [Client.Verbose] is on.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracerProvider sets the provider used to trace transfers.
// The global otel provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) error {
		if tp == nil {
			return errors.New("tracer provider must not be nil")
		}
		o.tracerProvider = tp
		return nil
	}
}

// WithRequestID stamps every transfer with a fresh UUID in header,
// unless the header was already set with [Client.SetHeader].
func WithRequestID(header string) Option {
	return func(o *options) error {
		if header == "" {
			return errors.New("request id header must not be empty")
		}
		o.requestIDHeader = http.CanonicalHeaderKey(header)
		return nil
	}
}

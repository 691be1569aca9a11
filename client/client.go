package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/adamwoolhether/curler/client/form"
	"github.com/adamwoolhether/curler/client/throttle"
)

// DefaultUserAgent is sent unless overridden.
const DefaultUserAgent = "curler/1.1 (+https://github.com/adamwoolhether/curler)"

const tracerName = "github.com/adamwoolhether/curler/client"

// Client owns one transfer library session plus the headers, cookies and
// options accumulated on it. Each request overwrites the [Result] of the
// previous one.
//
// A Client is not safe for concurrent use.
type Client struct {
	rc     *resty.Client
	logger *zap.Logger
	tracer trace.Tracer

	requestIDHeader string

	opts    settings
	headers form.Form
	cookies form.Form

	result *Result
	closed bool
}

// Build acquires a transfer session and applies the given options.
// Release it with [Client.Close], or use [Session].
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	rc := opts.resty
	if rc == nil {
		rc = resty.New()
		// Only cookies set on the Client are sent.
		rc.SetCookieJar(nil)
	}
	if rc.GetClient() == nil {
		return nil, ErrTransferUnavailable
	}

	client := &Client{
		rc:              rc,
		logger:          zap.NewNop(),
		requestIDHeader: opts.requestIDHeader,
		opts: settings{
			userAgent:      DefaultUserAgent,
			followLocation: !opts.noFollowRedirects,
		},
		result: &Result{},
	}

	if opts.logger != nil {
		client.logger = opts.logger
		rc.SetLogger(opts.logger.Sugar())
	}

	tp := opts.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	client.tracer = tp.Tracer(tracerName)

	if opts.userAgent != "" {
		client.opts.userAgent = opts.userAgent
	}

	if opts.rt != nil {
		rc.SetTransport(opts.rt)
	}

	if opts.timeout != nil {
		rc.SetTimeout(*opts.timeout)
	}

	if opts.throttle != nil {
		th, err := throttle.New(*opts.throttle, func() *zap.Logger { return client.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		rc.OnBeforeRequest(th.Middleware())
	}

	rc.SetDisableWarn(true)
	if opts.noFollowRedirects {
		client.applyRedirectPolicy()
	}

	return client, nil
}

// Session builds a Client, hands it to fn and closes it on every exit
// path. The close error is joined with fn's error.
func Session(fn func(*Client) error, opts ...Option) (err error) {
	c, err := Build(opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Close())
	}()

	return fn(c)
}

// Close releases the transfer session. Requests made afterwards fail with
// [ErrClosed]. Calling Close more than once is a no-op.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if hc := c.rc.GetClient(); hc != nil {
		hc.CloseIdleConnections()
	}

	return nil
}

// Result returns the outcome of the most recent request.
func (c *Client) Result() *Result {
	return c.result
}

// Get requests rawURL with params appended as the query string.
// It reports whether the transfer succeeded; see [Client.Result].
func (c *Client) Get(ctx context.Context, rawURL string, params any) bool {
	return c.exec(ctx, http.MethodGet, rawURL, params, nil)
}

// Post sends data as a form-encoded body to rawURL, with params appended
// as the query string.
func (c *Client) Post(ctx context.Context, rawURL string, data, params any) bool {
	return c.execWithBody(ctx, http.MethodPost, rawURL, data, params)
}

// Put requests rawURL with the PUT method and params appended as the
// query string. No body is sent.
func (c *Client) Put(ctx context.Context, rawURL string, params any) bool {
	return c.exec(ctx, http.MethodPut, rawURL, params, nil)
}

// Patch sends data as a form-encoded body to rawURL with the PATCH method.
func (c *Client) Patch(ctx context.Context, rawURL string, data, params any) bool {
	return c.execWithBody(ctx, http.MethodPatch, rawURL, data, params)
}

// Delete requests rawURL with the DELETE method and params appended as
// the query string.
func (c *Client) Delete(ctx context.Context, rawURL string, params any) bool {
	return c.exec(ctx, http.MethodDelete, rawURL, params, nil)
}

func (c *Client) execWithBody(ctx context.Context, method, rawURL string, data, params any) bool {
	body, err := form.BuildBody(data)
	if err != nil {
		return c.fail(CodeBadArgument, err)
	}

	return c.exec(ctx, method, rawURL, params, &body)
}

// exec performs exactly one transfer and records its Result.
func (c *Client) exec(ctx context.Context, method, rawURL string, params any, body *string) bool {
	if c.closed {
		return c.fail(CodeFailedInit, ErrClosed)
	}

	target, err := form.BuildURL(rawURL, params)
	if err != nil {
		return c.fail(CodeBadArgument, err)
	}

	if c.opts.customRequest != "" {
		method = c.opts.customRequest
	}

	start := time.Now()
	x := c.transfer(ctx, method, target, body)
	c.result = parseExchange(x)

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", c.result.HTTPStatusCode),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch {
	case c.result.TransportError:
		c.logger.Warn("transfer failed", append(fields,
			zap.Stringer("code", c.result.TransportErrorCode),
			zap.String("error", c.result.TransportErrorMessage))...)
	case c.result.HTTPError:
		c.logger.Info("transfer returned error status", fields...)
	default:
		c.logger.Debug("transfer complete", fields...)
	}

	return !c.result.Error
}

// fail records a transport-level failure that happened before any transfer.
func (c *Client) fail(code ErrorCode, err error) bool {
	c.result = parseExchange(exchange{code: code, err: err})
	c.logger.Warn("transfer not attempted", zap.Stringer("code", code), zap.Error(err))
	return false
}

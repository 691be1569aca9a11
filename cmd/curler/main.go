// Command curler performs a single HTTP transfer, curl style.
//
//	curler [flags] URL
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/adamwoolhether/curler/client"
	"github.com/adamwoolhether/curler/client/form"
	"github.com/adamwoolhether/curler/internal/config"
	"github.com/adamwoolhether/curler/internal/cookiejar"
	"github.com/adamwoolhether/curler/internal/formfile"
	"github.com/adamwoolhether/curler/internal/logger"
)

// exitHTTPError is curl's exit status for a 4xx/5xx response.
const exitHTTPError = 22

// exitError carries the process exit status for a failed transfer.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return fmt.Sprintf("(%d) %s", e.code, e.msg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(exitCode(err, os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	var ee *exitError
	switch {
	case err == nil, errors.Is(err, config.ErrHelp):
		return 0
	case errors.As(err, &ee):
		fmt.Fprintf(stderr, "curler: %v\n", ee)
		return ee.code
	default:
		fmt.Fprintf(stderr, "curler: %v\n", err)
		return int(client.CodeFailedInit)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return err
		}
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}

	log := logger.New(level, stderr)
	defer func() { _ = log.Sync() }()

	opts := []client.Option{client.WithLogger(log)}
	if cfg.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.Timeout))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(cfg.UserAgent))
	}
	if cfg.RPS > 0 {
		opts = append(opts, client.WithThrottle(cfg.RPS, cfg.Burst))
	}

	return client.Session(func(c *client.Client) error {
		return transfer(ctx, c, cfg, stdout, log)
	}, opts...)
}

func transfer(ctx context.Context, c *client.Client, cfg *config.Config, stdout io.Writer, log *zap.Logger) error {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	var jar *cookiejar.Jar
	if cfg.CookieJar != "" {
		jar, err = cookiejar.Open(cfg.CookieJar)
		if err != nil {
			return err
		}
		defer jar.Close()

		stored, err := jar.Cookies(u.Hostname())
		if err != nil {
			return err
		}
		for _, p := range stored {
			c.SetCookie(p.Key, p.Value.(string))
		}
	}

	if err := configure(c, cfg); err != nil {
		return err
	}

	params := pairs(cfg.Query)
	body, err := requestBody(cfg)
	if err != nil {
		return err
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
		if cfg.HasBody() {
			method = http.MethodPost
		}
	}

	log.Debug("starting transfer", zap.String("method", method), zap.String("url", cfg.URL))

	var ok bool
	hasBody := cfg.HasBody()
	switch {
	case method == http.MethodGet && !hasBody:
		ok = c.Get(ctx, cfg.URL, params)
	case method == http.MethodPost:
		ok = c.Post(ctx, cfg.URL, body, params)
	case method == http.MethodPatch:
		ok = c.Patch(ctx, cfg.URL, body, params)
	case method == http.MethodPut && !hasBody:
		ok = c.Put(ctx, cfg.URL, params)
	case method == http.MethodDelete && !hasBody:
		ok = c.Delete(ctx, cfg.URL, params)
	default:
		if err := c.SetOpt(client.OptCustomRequest, method); err != nil {
			return err
		}
		if hasBody {
			ok = c.Post(ctx, cfg.URL, body, params)
		} else {
			ok = c.Get(ctx, cfg.URL, params)
		}
	}

	r := c.Result()

	if jar != nil {
		if err := jar.Store(u.Hostname(), r.Cookies()); err != nil {
			log.Warn("saving cookies", zap.Error(err))
		}
	}

	if err := write(stdout, r, cfg.Include); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	if ok {
		return nil
	}
	if r.TransportError {
		return &exitError{code: int(r.TransportErrorCode), msg: r.ErrorMessage}
	}
	return &exitError{code: exitHTTPError, msg: r.ErrorMessage}
}

// configure copies the per-request settings from cfg onto c.
func configure(c *client.Client, cfg *config.Config) error {
	for _, h := range cfg.Headers {
		name, value, _ := strings.Cut(h, ":")
		c.SetHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	for _, p := range pairs(cfg.Cookies) {
		c.SetCookie(p.Key, p.Value.(string))
	}

	if cfg.User != "" {
		user, pass, _ := strings.Cut(cfg.User, ":")
		c.SetBasicAuth(user, pass)
	}
	if cfg.Referer != "" {
		c.SetReferrer(cfg.Referer)
	}
	if cfg.Verbose {
		c.Verbose(true)
	}
	if cfg.Proxy != "" {
		if err := c.SetOpt(client.OptProxy, cfg.Proxy); err != nil {
			return err
		}
	}

	return nil
}

func requestBody(cfg *config.Config) (any, error) {
	switch {
	case cfg.DataRaw != "":
		return cfg.DataRaw, nil
	case cfg.FormFile != "":
		f, err := formfile.Load(cfg.FormFile)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs(cfg.Data) {
			f.Set(p.Key, p.Value)
		}
		return f, nil
	case len(cfg.Data) > 0:
		return pairs(cfg.Data), nil
	default:
		return nil, nil
	}
}

// pairs turns key=value arguments into a form, keeping repeated keys.
func pairs(kvs []string) form.Form {
	if len(kvs) == 0 {
		return nil
	}

	f := make(form.Form, 0, len(kvs))
	for _, kv := range kvs {
		k, v, _ := strings.Cut(kv, "=")
		f = append(f, form.Pair{Key: k, Value: v})
	}
	return f
}

func write(w io.Writer, r *client.Result, include bool) error {
	if include && len(r.ResponseHeaders) > 0 {
		if _, err := io.WriteString(w, strings.Join(r.ResponseHeaders, "\r\n")+"\r\n\r\n"); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, r.Body)
	return err
}

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"net/textproto"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	formContentType = "application/x-www-form-urlencoded"
	continueLine    = "HTTP/1.1 100 Continue"
)

// transfer runs one blocking request through the resty session and
// captures what was sent and received.
func (c *Client) transfer(ctx context.Context, method, target string, body *string) exchange {
	ctx, span := c.tracer.Start(ctx, "curler "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
		))
	defer span.End()

	var interim bool
	ct := &httptrace.ClientTrace{
		Got100Continue: func() { interim = true },
		Got1xxResponse: func(code int, _ textproto.MIMEHeader) error {
			if code == http.StatusContinue {
				interim = true
			}
			return nil
		},
	}

	req := c.rc.R().SetContext(httptrace.WithClientTrace(ctx, ct))
	c.applySettings(req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if body != nil {
		if req.Header.Get("Content-Type") == "" {
			req.SetHeader("Content-Type", formContentType)
		}
		req.SetBody(*body)
	}

	resp, err := req.Execute(method, target)

	x := exchange{
		code: classify(err),
		err:  err,
	}

	if resp != nil && resp.RawResponse != nil {
		x.status = resp.StatusCode()

		var raw strings.Builder
		if interim {
			raw.WriteString(continueLine + headerSep)
		}
		raw.WriteString(responseHead(resp))
		raw.Write(resp.Body())
		x.raw = raw.String()
	}

	raw := req.RawRequest
	if resp != nil && resp.Request != nil && resp.Request.RawRequest != nil {
		raw = resp.Request.RawRequest
	}
	if raw != nil {
		x.requestHeader = requestHead(raw)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", x.status))
	switch {
	case x.code != CodeOK:
		span.RecordError(err)
		span.SetStatus(codes.Error, x.code.String())
	case x.status >= http.StatusBadRequest:
		span.SetStatus(codes.Error, http.StatusText(x.status))
	}

	return x
}

// applySettings copies the accumulated configuration onto req. Custom
// header lines go last so they replace the built-in User-Agent, Referer
// and Cookie values.
func (c *Client) applySettings(req *resty.Request) {
	if c.opts.userAgent != "" {
		req.SetHeader("User-Agent", c.opts.userAgent)
	}
	if c.opts.referer != "" {
		req.SetHeader("Referer", c.opts.referer)
	}
	if c.opts.cookie != "" {
		req.SetHeader("Cookie", c.opts.cookie)
	}
	if c.opts.userPwd != "" {
		user, pass, _ := strings.Cut(c.opts.userPwd, ":")
		req.SetBasicAuth(user, pass)
	}

	for _, line := range c.opts.headerLines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.SetHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if c.requestIDHeader != "" && req.Header.Get(c.requestIDHeader) == "" {
		req.SetHeader(c.requestIDHeader, uuid.NewString())
	}
}

// responseHead renders the final status line and header lines followed by
// the blank line separating them from the body.
func responseHead(resp *resty.Response) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s\r\n", resp.Proto(), resp.Status())
	_ = resp.Header().Write(&b)
	b.WriteString("\r\n")
	return b.String()
}

// requestHead renders the request line and the headers that were sent.
func requestHead(r *http.Request) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s %s\r\n", r.Method, r.URL.RequestURI(), r.Proto)
	fmt.Fprintf(&b, "Host: %s\r\n", r.Host)
	_ = r.Header.Write(&b)
	return b.String()
}

package client_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adamwoolhether/curler/client"
	"github.com/adamwoolhether/curler/client/form"
)

// echo is what the mock server reports back about each request.
type echo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	RawQuery    string `json:"rawQuery"`
	Body        string `json:"body"`
	ContentType string `json:"contentType"`
	UserAgent   string `json:"userAgent"`
	Referer     string `json:"referer"`
	Cookie      string `json:"cookie"`
	Custom      string `json:"custom"`
	RequestID   string `json:"requestID"`
	User        string `json:"user"`
	Pass        string `json:"pass"`
}

func mockServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		user, pass, _ := r.BasicAuth()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echo{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			Body:        string(body),
			ContentType: r.Header.Get("Content-Type"),
			UserAgent:   r.Header.Get("User-Agent"),
			Referer:     r.Header.Get("Referer"),
			Cookie:      r.Header.Get("Cookie"),
			Custom:      r.Header.Get("X-Custom"),
			RequestID:   r.Header.Get("X-Request-Id"),
			User:        user,
			Pass:        pass,
		})
	})
	mux.HandleFunc("/status/404", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such thing", http.StatusNotFound)
	})
	mux.HandleFunc("/status/401", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/cookies", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.Header().Set("X-Served-By", "mock")
		_, _ = io.WriteString(w, "ok")
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts
}

func build(t *testing.T, opts ...client.Option) *client.Client {
	t.Helper()

	c, err := client.Build(opts...)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func decodeEcho(t *testing.T, c *client.Client) echo {
	t.Helper()

	var e echo
	if err := json.Unmarshal([]byte(c.Result().Body), &e); err != nil {
		t.Fatalf("failed to decode echo body %q: %v", c.Result().Body, err)
	}

	return e
}

func TestClient_Methods(t *testing.T) {
	ts := mockServer(t)

	testCases := map[string]struct {
		do  func(c *client.Client) bool
		exp echo
	}{
		"get": {
			do: func(c *client.Client) bool {
				return c.Get(t.Context(), ts.URL+"/echo", map[string]string{"q": "go lang", "page": "2"})
			},
			exp: echo{Method: http.MethodGet, Path: "/echo", RawQuery: "page=2&q=go+lang"},
		},
		"getRawQuery": {
			do: func(c *client.Client) bool {
				return c.Get(t.Context(), ts.URL+"/echo", "a=1&b=two")
			},
			exp: echo{Method: http.MethodGet, Path: "/echo", RawQuery: "a=1&b=two"},
		},
		"postFlat": {
			do: func(c *client.Client) bool {
				return c.Post(t.Context(), ts.URL+"/echo", form.Form{{Key: "name", Value: "alice"}, {Key: "age", Value: 30}}, nil)
			},
			exp: echo{
				Method:      http.MethodPost,
				Path:        "/echo",
				Body:        "name=alice&age=30",
				ContentType: "application/x-www-form-urlencoded",
			},
		},
		"postNested": {
			do: func(c *client.Client) bool {
				data := form.Form{
					{Key: "user", Value: form.Form{{Key: "name", Value: "bob"}}},
					{Key: "tag", Value: "x y"},
				}
				return c.Post(t.Context(), ts.URL+"/echo", data, map[string]string{"v": "1"})
			},
			exp: echo{
				Method:      http.MethodPost,
				Path:        "/echo",
				RawQuery:    "v=1",
				Body:        "user%5B%5D=bob&tag=x%20y",
				ContentType: "application/x-www-form-urlencoded",
			},
		},
		"postRaw": {
			do: func(c *client.Client) bool {
				return c.Post(t.Context(), ts.URL+"/echo", "raw=body", nil)
			},
			exp: echo{
				Method:      http.MethodPost,
				Path:        "/echo",
				Body:        "raw=body",
				ContentType: "application/x-www-form-urlencoded",
			},
		},
		"put": {
			do: func(c *client.Client) bool {
				return c.Put(t.Context(), ts.URL+"/echo", map[string]string{"id": "7"})
			},
			exp: echo{Method: http.MethodPut, Path: "/echo", RawQuery: "id=7"},
		},
		"patch": {
			do: func(c *client.Client) bool {
				return c.Patch(t.Context(), ts.URL+"/echo", map[string]string{"name": "carol"}, nil)
			},
			exp: echo{
				Method:      http.MethodPatch,
				Path:        "/echo",
				Body:        "name=carol",
				ContentType: "application/x-www-form-urlencoded",
			},
		},
		"delete": {
			do: func(c *client.Client) bool {
				return c.Delete(t.Context(), ts.URL+"/echo", nil)
			},
			exp: echo{Method: http.MethodDelete, Path: "/echo"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			c := build(t)

			if ok := tc.do(c); !ok {
				t.Fatalf("exp success, got result: %+v", c.Result())
			}

			got := decodeEcho(t, c)
			tc.exp.UserAgent = client.DefaultUserAgent
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("echo mismatch (-exp +got):\n%s", diff)
			}

			r := c.Result()
			if r.Error || r.ErrorCode != 0 || r.HTTPStatusCode != http.StatusOK {
				t.Errorf("unexpected result flags: %+v", r)
			}
			if len(r.ResponseHeaders) == 0 || !strings.HasPrefix(r.ResponseHeaders[0], "HTTP/1.1 200") {
				t.Errorf("exp status line first, got %q", r.ResponseHeaders)
			}
		})
	}
}

func TestClient_AccumulatedSettings(t *testing.T) {
	ts := mockServer(t)
	c := build(t)

	c.SetHeader("X-Custom", "one")
	c.SetHeader("X-Custom", "two")
	c.SetCookie("session", "abc")
	c.SetCookie("theme", "dark mode")
	c.SetCookie("session", "xyz")
	c.SetUserAgent("tester/2.0")
	c.SetReferrer("https://example.com/from")
	c.SetBasicAuth("alice", "s3cret")

	for range 2 {
		if !c.Get(t.Context(), ts.URL+"/echo", nil) {
			t.Fatalf("exp success, got result: %+v", c.Result())
		}

		got := decodeEcho(t, c)
		exp := echo{
			Method:    http.MethodGet,
			Path:      "/echo",
			UserAgent: "tester/2.0",
			Referer:   "https://example.com/from",
			Cookie:    "session=xyz; theme=dark+mode",
			Custom:    "two",
			User:      "alice",
			Pass:      "s3cret",
		}
		if diff := cmp.Diff(exp, got); diff != "" {
			t.Errorf("echo mismatch (-exp +got):\n%s", diff)
		}
	}

	var sawUA bool
	for _, line := range c.Result().RequestHeaders {
		if line == "User-Agent: tester/2.0" {
			sawUA = true
		}
	}
	if !sawUA {
		t.Errorf("exp user agent in request headers, got %q", c.Result().RequestHeaders)
	}
	if got := c.Result().RequestHeaders[0]; got != "GET /echo HTTP/1.1" {
		t.Errorf("exp request line first, got %q", got)
	}

	// Header lines naming a built-in header replace its value.
	c.SetHeader("User-Agent", "custom/9")
	c.SetHeader("Referer", "https://example.com/line")
	c.SetHeader("Cookie", "only=line")

	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got result: %+v", c.Result())
	}

	got := decodeEcho(t, c)
	if got.UserAgent != "custom/9" {
		t.Errorf("exp custom user agent, got %q", got.UserAgent)
	}
	if got.Referer != "https://example.com/line" {
		t.Errorf("exp custom referer, got %q", got.Referer)
	}
	if got.Cookie != "only=line" {
		t.Errorf("exp custom cookie, got %q", got.Cookie)
	}
}

func TestClient_ExpectContinue(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		br := bufio.NewReader(conn)
		req, err := http.ReadRequest(br)
		if err != nil {
			return
		}
		_, _ = io.WriteString(conn, "HTTP/1.1 100 Continue\r\n\r\n")
		_, _ = io.Copy(io.Discard, req.Body)
		_, _ = io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\nConnection: close\r\n\r\nhello")
	}()

	c := build(t)
	c.SetHeader("Expect", "100-continue")

	if !c.Post(t.Context(), "http://"+ln.Addr().String()+"/upload", "a=1", nil) {
		t.Fatalf("exp success, got result: %+v", c.Result())
	}

	r := c.Result()
	if r.HTTPStatusCode != http.StatusOK {
		t.Errorf("exp status 200 after interim response, got %d", r.HTTPStatusCode)
	}
	if r.Body != "hello" {
		t.Errorf("exp body hello, got %q", r.Body)
	}
	if len(r.ResponseHeaders) == 0 || r.ResponseHeaders[0] != "HTTP/1.1 200 OK" {
		t.Errorf("exp final status line first, got %q", r.ResponseHeaders)
	}
}

func TestClient_HTTPError(t *testing.T) {
	ts := mockServer(t)
	c := build(t)

	if c.Get(t.Context(), ts.URL+"/status/404", nil) {
		t.Fatal("exp failure for 404")
	}

	r := c.Result()
	if !r.Error || !r.HTTPError || r.TransportError {
		t.Errorf("unexpected result flags: %+v", r)
	}
	if r.ErrorCode != http.StatusNotFound || r.HTTPStatusCode != http.StatusNotFound {
		t.Errorf("exp code 404, got %d/%d", r.ErrorCode, r.HTTPStatusCode)
	}
	if r.ErrorMessage != "HTTP/1.1 404 Not Found" {
		t.Errorf("exp status line as message, got %q", r.ErrorMessage)
	}
	if r.Body != "no such thing\n" {
		t.Errorf("exp error body, got %q", r.Body)
	}

	var se *client.StatusError
	if !errors.As(r.Err(), &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("exp *StatusError, got %v", r.Err())
	}
	if errors.Is(r.Err(), client.ErrAuthFailure) {
		t.Error("404 must not be an auth failure")
	}

	if c.Get(t.Context(), ts.URL+"/status/401", nil) {
		t.Fatal("exp failure for 401")
	}
	if !errors.Is(c.Result().Err(), client.ErrAuthFailure) {
		t.Errorf("exp ErrAuthFailure, got %v", c.Result().Err())
	}

	// The next request overwrites the previous result.
	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}
	if c.Result().Err() != nil {
		t.Errorf("exp nil err after success, got %v", c.Result().Err())
	}
}

func TestClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	target := ts.URL
	ts.Close()

	c := build(t)
	if c.Get(t.Context(), target, nil) {
		t.Fatal("exp failure against closed server")
	}

	r := c.Result()
	if !r.TransportError || r.HTTPError {
		t.Errorf("unexpected result flags: %+v", r)
	}
	if r.TransportErrorCode != client.CodeCouldNotConnect || r.ErrorCode != int(client.CodeCouldNotConnect) {
		t.Errorf("exp %s, got %s", client.CodeCouldNotConnect, r.TransportErrorCode)
	}
	if r.ErrorMessage == "" || r.ErrorMessage != r.TransportErrorMessage {
		t.Errorf("exp transport message, got %q", r.ErrorMessage)
	}
	if !errors.Is(r.Err(), client.ErrTransport) {
		t.Errorf("exp ErrTransport, got %v", r.Err())
	}
}

func TestClient_Timeout(t *testing.T) {
	ts := mockServer(t)
	c := build(t, client.WithTimeout(50*time.Millisecond))

	if c.Get(t.Context(), ts.URL+"/slow", nil) {
		t.Fatal("exp timeout failure")
	}
	if got := c.Result().TransportErrorCode; got != client.CodeTimedOut {
		t.Errorf("exp %s, got %s", client.CodeTimedOut, got)
	}
}

func TestClient_Closed(t *testing.T) {
	ts := mockServer(t)

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatal("exp failure on closed client")
	}
	if got := c.Result().TransportErrorCode; got != client.CodeFailedInit {
		t.Errorf("exp %s, got %s", client.CodeFailedInit, got)
	}
	if !errors.Is(c.Result().Err(), client.ErrClosed) {
		t.Errorf("exp ErrClosed, got %v", c.Result().Err())
	}
}

func TestSession(t *testing.T) {
	ts := mockServer(t)

	var held *client.Client
	err := client.Session(func(c *client.Client) error {
		held = c
		if !c.Get(t.Context(), ts.URL+"/echo", nil) {
			return c.Result().Err()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	if held.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Error("exp client closed after session")
	}

	sentinel := errors.New("fn failed")
	if err := client.Session(func(*client.Client) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("exp fn error, got %v", err)
	}

	if err := client.Session(nil, client.WithTimeout(-1)); err == nil {
		t.Error("exp build error to be returned")
	}
}

func TestClient_BadArgument(t *testing.T) {
	c := build(t)

	if c.Get(t.Context(), "http://localhost/", 42) {
		t.Fatal("exp failure for unsupported params")
	}
	if got := c.Result().TransportErrorCode; got != client.CodeBadArgument {
		t.Errorf("exp %s, got %s", client.CodeBadArgument, got)
	}
	if !errors.Is(c.Result().Err(), form.ErrUnsupportedType) {
		t.Errorf("exp ErrUnsupportedType, got %v", c.Result().Err())
	}

	if c.Post(t.Context(), "http://localhost/", struct{}{}, nil) {
		t.Fatal("exp failure for unsupported body")
	}
	if got := c.Result().TransportErrorCode; got != client.CodeBadArgument {
		t.Errorf("exp %s, got %s", client.CodeBadArgument, got)
	}
}

func TestClient_SetOpt(t *testing.T) {
	ts := mockServer(t)
	c := build(t)

	if err := c.SetOpt(client.OptUserAgent, 5); !errors.Is(err, client.ErrInvalidOptValue) {
		t.Errorf("exp ErrInvalidOptValue, got %v", err)
	}
	if err := c.SetOpt(client.Opt(999), "x"); !errors.Is(err, client.ErrUnknownOpt) {
		t.Errorf("exp ErrUnknownOpt, got %v", err)
	}

	steps := []struct {
		opt   client.Opt
		value any
	}{
		{client.OptCustomRequest, "delete"},
		{client.OptHTTPHeader, []string{"X-Custom: raw"}},
		{client.OptCookie, "a=1"},
		{client.OptTimeout, 5 * time.Second},
		{client.OptVerbose, false},
	}
	for _, s := range steps {
		if err := c.SetOpt(s.opt, s.value); err != nil {
			t.Fatalf("set %s: %v", s.opt, err)
		}
	}

	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}
	got := decodeEcho(t, c)
	if got.Method != http.MethodDelete || got.Custom != "raw" || got.Cookie != "a=1" {
		t.Errorf("options not applied: %+v", got)
	}

	if err := c.SetOpt(client.OptCustomRequest, ""); err != nil {
		t.Fatalf("clear custom request: %v", err)
	}
	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}
	if got := decodeEcho(t, c); got.Method != http.MethodGet {
		t.Errorf("exp GET after clearing override, got %s", got.Method)
	}

	if got := client.OptMaxRedirs.String(); got != "MAXREDIRS" {
		t.Errorf("exp MAXREDIRS, got %s", got)
	}
}

func TestClient_Redirects(t *testing.T) {
	ts := mockServer(t)

	t.Run("follow", func(t *testing.T) {
		c := build(t)
		if !c.Get(t.Context(), ts.URL+"/redirect", nil) {
			t.Fatalf("exp success, got %+v", c.Result())
		}
		if got := decodeEcho(t, c); got.Path != "/echo" {
			t.Errorf("exp redirect followed to /echo, got %s", got.Path)
		}
	})

	t.Run("noFollow", func(t *testing.T) {
		c := build(t, client.WithNoFollowRedirects())
		if !c.Get(t.Context(), ts.URL+"/redirect", nil) {
			t.Fatalf("3xx must not be an error, got %+v", c.Result())
		}
		if got := c.Result().HTTPStatusCode; got != http.StatusFound {
			t.Errorf("exp 302, got %d", got)
		}
		if got := c.Result().Header("Location"); got != "/echo" {
			t.Errorf("exp location /echo, got %q", got)
		}
	})

	t.Run("maxRedirs", func(t *testing.T) {
		c := build(t)
		if err := c.SetOpt(client.OptMaxRedirs, 2); err != nil {
			t.Fatalf("set max redirs: %v", err)
		}
		if c.Get(t.Context(), ts.URL+"/loop", nil) {
			t.Fatal("exp redirect loop failure")
		}
		if got := c.Result().TransportErrorCode; got != client.CodeTooManyRedirects {
			t.Errorf("exp %s, got %s", client.CodeTooManyRedirects, got)
		}
	})

	t.Run("disableFollow", func(t *testing.T) {
		c := build(t)
		if err := c.SetOpt(client.OptFollowLocation, false); err != nil {
			t.Fatalf("set follow location: %v", err)
		}
		if !c.Get(t.Context(), ts.URL+"/loop", nil) {
			t.Fatalf("exp 302 as success, got %+v", c.Result())
		}
		if got := c.Result().HTTPStatusCode; got != http.StatusFound {
			t.Errorf("exp 302, got %d", got)
		}
	})
}

func TestClient_ResponseCookies(t *testing.T) {
	ts := mockServer(t)
	c := build(t)

	if !c.Get(t.Context(), ts.URL+"/cookies", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}

	r := c.Result()
	if r.Body != "ok" {
		t.Errorf("exp body ok, got %q", r.Body)
	}
	if got := r.Header("X-Served-By"); got != "mock" {
		t.Errorf("exp header mock, got %q", got)
	}

	cookies := r.Cookies()
	if len(cookies) != 1 || cookies[0].Name != "session" || cookies[0].Value != "abc" {
		t.Errorf("unexpected cookies: %v", cookies)
	}

	// Response cookies are not replayed; only SetCookie values are sent.
	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}
	if got := decodeEcho(t, c); got.Cookie != "" {
		t.Errorf("exp no cookie sent, got %q", got.Cookie)
	}
}

func TestClient_WithRequestID(t *testing.T) {
	ts := mockServer(t)
	c := build(t, client.WithRequestID("x-request-id"))

	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}
	first := decodeEcho(t, c).RequestID
	if len(first) != 36 {
		t.Fatalf("exp uuid request id, got %q", first)
	}

	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}
	if second := decodeEcho(t, c).RequestID; second == first {
		t.Error("exp a fresh request id per transfer")
	}

	c.SetHeader("X-Request-Id", "fixed")
	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}
	if got := decodeEcho(t, c).RequestID; got != "fixed" {
		t.Errorf("exp explicit header kept, got %q", got)
	}
}

func TestClient_WithLogger(t *testing.T) {
	ts := mockServer(t)

	core, logs := observer.New(zapcore.DebugLevel)
	c := build(t, client.WithLogger(zap.New(core)))

	c.Get(t.Context(), ts.URL+"/echo", nil)
	c.Get(t.Context(), ts.URL+"/status/404", nil)

	if n := logs.FilterMessage("transfer complete").Len(); n != 1 {
		t.Errorf("exp 1 completion log, got %d", n)
	}

	entries := logs.FilterMessage("transfer returned error status").All()
	if len(entries) != 1 {
		t.Fatalf("exp 1 error status log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusNotFound) {
		t.Errorf("exp status field 404, got %v", got)
	}
}

func TestClient_WithThrottle(t *testing.T) {
	ts := mockServer(t)
	c := build(t, client.WithThrottle(20, 1))

	start := time.Now()
	for range 3 {
		if !c.Get(t.Context(), ts.URL+"/echo", nil) {
			t.Fatalf("exp success, got %+v", c.Result())
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("exp throttled requests to take at least 80ms, took %v", elapsed)
	}
}

func TestClient_WithTransport(t *testing.T) {
	var called bool
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{
			StatusCode: http.StatusTeapot,
			Status:     "418 I'm a teapot",
			Proto:      "HTTP/1.1",
			ProtoMajor: 1,
			ProtoMinor: 1,
			Header:     http.Header{"X-Brewed": {"yes"}},
			Body:       io.NopCloser(strings.NewReader("short and stout")),
			Request:    r,
		}, nil
	})

	c := build(t, client.WithTransport(rt))
	if c.Get(t.Context(), "http://example.invalid/pot", nil) {
		t.Fatal("exp 418 to be an HTTP error")
	}
	if !called {
		t.Fatal("exp custom transport to be used")
	}

	r := c.Result()
	exp := []string{"HTTP/1.1 418 I'm a teapot", "X-Brewed: yes"}
	if diff := cmp.Diff(exp, r.ResponseHeaders); diff != "" {
		t.Errorf("response headers mismatch (-exp +got):\n%s", diff)
	}
	if r.Body != "short and stout" || r.ErrorMessage != exp[0] {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestClient_WithRestyClient(t *testing.T) {
	ts := mockServer(t)

	rc := resty.New().SetHeader("X-Custom", "from-resty")
	c := build(t, client.WithRestyClient(rc))

	if !c.Get(t.Context(), ts.URL+"/echo", nil) {
		t.Fatalf("exp success, got %+v", c.Result())
	}
	if got := decodeEcho(t, c).Custom; got != "from-resty" {
		t.Errorf("exp resty client defaults applied, got %q", got)
	}
}

func TestBuild_InvalidOptions(t *testing.T) {
	testCases := map[string]struct {
		opt client.Option
		exp error
	}{
		"nilResty":     {opt: client.WithRestyClient(nil), exp: client.ErrTransferUnavailable},
		"nilTransport": {opt: client.WithTransport(nil), exp: client.ErrTransferUnavailable},
		"zeroRPS":      {opt: client.WithThrottle(0, 1)},
		"zeroBurst":    {opt: client.WithThrottle(1, 0)},
		"negTimeout":   {opt: client.WithTimeout(-time.Second)},
		"emptyUA":      {opt: client.WithUserAgent("")},
		"nilLogger":    {opt: client.WithLogger(nil)},
		"nilTracer":    {opt: client.WithTracerProvider(nil)},
		"emptyReqID":   {opt: client.WithRequestID("")},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := client.Build(tc.opt)
			if err == nil {
				t.Fatal("exp error, got nil")
			}
			if tc.exp != nil && !errors.Is(err, tc.exp) {
				t.Errorf("exp %v, got %v", tc.exp, err)
			}
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

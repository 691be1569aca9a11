package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxErrBodySize caps the amount of response body carried by a
// [StatusError]. Result.Body always holds the full body.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrTransport is the sentinel wrapped by [TransportError].
	ErrTransport = errors.New("transfer failed")
	// ErrHTTPStatus is the sentinel wrapped by [StatusError].
	ErrHTTPStatus = errors.New("http error status")
	// ErrAuthFailure is joined with [ErrHTTPStatus] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrClosed is reported for requests made after [Client.Close].
	ErrClosed = errors.New("client is closed")
	// ErrTransferUnavailable is returned by [Build] when no transfer
	// library handle can be acquired.
	ErrTransferUnavailable = errors.New("transfer library unavailable")
)

// Result holds the outcome of the most recent transfer on a [Client].
type Result struct {
	// Error is set for transport failures and 4xx/5xx responses.
	Error bool
	// ErrorCode is the transport code for transport failures, the HTTP
	// status for HTTP errors and 0 otherwise.
	ErrorCode    int
	ErrorMessage string

	TransportError        bool
	TransportErrorCode    ErrorCode
	TransportErrorMessage string

	HTTPError        bool
	HTTPStatusCode   int
	HTTPErrorMessage string

	// RequestHeaders are the request header lines sent, request line first.
	RequestHeaders []string
	// ResponseHeaders are the final response header lines, status line first.
	ResponseHeaders []string
	Body            string

	cause error
}

// Err converts the result into an error, nil when the transfer succeeded.
// Transport failures yield a [*TransportError], HTTP errors a [*StatusError].
func (r *Result) Err() error {
	if r == nil || !r.Error {
		return nil
	}

	if r.TransportError {
		return &TransportError{
			Code:    r.TransportErrorCode,
			Message: r.TransportErrorMessage,
			Cause:   r.cause,
		}
	}

	body := r.Body
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	err := ErrHTTPStatus
	if r.HTTPStatusCode == http.StatusUnauthorized || r.HTTPStatusCode == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", ErrAuthFailure, ErrHTTPStatus)
	}

	return &StatusError{
		StatusCode: r.HTTPStatusCode,
		StatusLine: r.HTTPErrorMessage,
		Body:       body,
		Err:        err,
	}
}

// Header returns the value of the first response header line named name.
func (r *Result) Header(name string) string {
	if r == nil {
		return ""
	}

	for _, line := range r.ResponseHeaders {
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

// Cookies parses the Set-Cookie lines of the response.
func (r *Result) Cookies() []*http.Cookie {
	if r == nil {
		return nil
	}

	var cookies []*http.Cookie
	for _, line := range r.ResponseHeaders {
		k, v, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "Set-Cookie") {
			continue
		}

		c, err := http.ParseSetCookie(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		cookies = append(cookies, c)
	}

	return cookies
}

// TransportError is returned by [Result.Err] when the transfer itself failed.
type TransportError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s (%d): %s", ErrTransport, e.Code, int(e.Code), e.Message)
}

func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Cause}
}

// StatusError is returned by [Result.Err] when the server answered with a
// 4xx or 5xx status.
type StatusError struct {
	StatusCode int
	StatusLine string
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

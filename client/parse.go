package client

import (
	"strings"
)

const headerSep = "\r\n\r\n"

// exchange is the raw outcome of a single transfer, as reported by the
// transfer library before any interpretation.
type exchange struct {
	status        int
	requestHeader string
	// raw holds the response header block(s) and body, each header
	// block terminated by a blank line.
	raw  string
	code ErrorCode
	err  error
}

// parseExchange classifies x and splits its raw response into header
// lines and body.
func parseExchange(x exchange) *Result {
	r := Result{
		TransportError: x.code != CodeOK,
		HTTPStatusCode: x.status,
		RequestHeaders: splitLines(x.requestHeader),
		cause:          x.err,
	}

	if r.TransportError {
		r.TransportErrorCode = x.code
		if x.err != nil {
			r.TransportErrorMessage = x.err.Error()
		} else {
			r.TransportErrorMessage = x.code.String()
		}
	}

	class := x.status / 100
	r.HTTPError = class == 4 || class == 5
	r.Error = r.TransportError || r.HTTPError

	if r.Error {
		if r.TransportError {
			r.ErrorCode = int(x.code)
		} else {
			r.ErrorCode = x.status
		}
	}

	r.Body = x.raw
	if block, body, ok := strings.Cut(x.raw, headerSep); ok {
		if isContinue(block) {
			block, body, _ = strings.Cut(body, headerSep)
		}
		r.ResponseHeaders = splitLines(block)
		r.Body = body
	}

	if r.Error && len(r.ResponseHeaders) > 0 {
		r.HTTPErrorMessage = r.ResponseHeaders[0]
	}

	if r.TransportError {
		r.ErrorMessage = r.TransportErrorMessage
	} else {
		r.ErrorMessage = r.HTTPErrorMessage
	}

	return &r
}

// isContinue reports whether block is a lone "100 Continue" status line.
func isContinue(block string) bool {
	if strings.Contains(block, "\r\n") || !strings.HasPrefix(block, "HTTP/") {
		return false
	}

	fields := strings.Fields(block)
	return len(fields) >= 2 && fields[1] == "100"
}

// splitLines splits a header block on CRLF, dropping empty segments.
func splitLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\r\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

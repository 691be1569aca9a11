package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
)

// ErrorCode classifies transport failures. Values follow libcurl's
// CURLcode numbering so codes can be used as process exit statuses.
type ErrorCode int

const (
	CodeOK                  ErrorCode = 0
	CodeUnsupportedProtocol ErrorCode = 1
	CodeFailedInit          ErrorCode = 2
	CodeURLMalformed        ErrorCode = 3
	CodeCouldNotResolveHost ErrorCode = 6
	CodeCouldNotConnect     ErrorCode = 7
	CodeTimedOut            ErrorCode = 28
	CodeSSLConnect          ErrorCode = 35
	CodeAborted             ErrorCode = 42
	CodeBadArgument         ErrorCode = 43
	CodeTooManyRedirects    ErrorCode = 47
	CodeGotNothing          ErrorCode = 52
	CodeRecvError           ErrorCode = 56
	CodePeerVerification    ErrorCode = 60
)

var codeNames = map[ErrorCode]string{
	CodeOK:                  "OK",
	CodeUnsupportedProtocol: "UNSUPPORTED_PROTOCOL",
	CodeFailedInit:          "FAILED_INIT",
	CodeURLMalformed:        "URL_MALFORMAT",
	CodeCouldNotResolveHost: "COULDNT_RESOLVE_HOST",
	CodeCouldNotConnect:     "COULDNT_CONNECT",
	CodeTimedOut:            "OPERATION_TIMEDOUT",
	CodeSSLConnect:          "SSL_CONNECT_ERROR",
	CodeAborted:             "ABORTED_BY_CALLBACK",
	CodeBadArgument:         "BAD_FUNCTION_ARGUMENT",
	CodeTooManyRedirects:    "TOO_MANY_REDIRECTS",
	CodeGotNothing:          "GOT_NOTHING",
	CodeRecvError:           "RECV_ERROR",
	CodePeerVerification:    "PEER_FAILED_VERIFICATION",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// classify maps an error returned by the transfer library to an ErrorCode.
// Order matters: DNS and TLS failures surface wrapped in *net.OpError.
func classify(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}

	if errors.Is(err, context.Canceled) {
		return CodeAborted
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return CodeTimedOut
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeCouldNotResolveHost
	}

	var (
		certErr      *tls.CertificateVerificationError
		unknownCA    x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidCert  x509.CertificateInvalidError
		recordHdrErr tls.RecordHeaderError
		alertErr     tls.AlertError
	)
	switch {
	case errors.As(err, &certErr), errors.As(err, &unknownCA),
		errors.As(err, &hostnameErr), errors.As(err, &invalidCert):
		return CodePeerVerification
	case errors.As(err, &recordHdrErr), errors.As(err, &alertErr):
		return CodeSSLConnect
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return CodeCouldNotConnect
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return CodeGotNothing
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "unsupported protocol scheme"):
		return CodeUnsupportedProtocol
	case strings.Contains(msg, "stopped after") && strings.Contains(msg, "redirects"):
		return CodeTooManyRedirects
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return CodeURLMalformed
	}

	return CodeRecvError
}

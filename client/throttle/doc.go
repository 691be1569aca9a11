// Package throttle rate-limits outbound transfers using a token-bucket
// algorithm from [golang.org/x/time/rate].
//
// # Usage
//
// A [Throttle] can gate a resty client through its request middleware,
// which is how the curler client installs it:
//
//	th, err := throttle.New(throttle.Config{RPS: 10, Burst: 5}, nil)
//	rc := resty.New().OnBeforeRequest(th.Middleware())
//
// or wrap a plain transport for use with [net/http]:
//
//	httpClient := &http.Client{Transport: th.RoundTripper(http.DefaultTransport)}
//
// When the bucket is empty, requests block until a token becomes available
// or the request context ends.
package throttle

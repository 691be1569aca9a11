// Package client provides a stateful HTTP client built on
// [github.com/go-resty/resty/v2].
//
// # Building a Client
//
// Use [Build] to acquire a [Client] with functional options, and release
// it with [Client.Close]:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//	)
//	if err != nil { ... }
//	defer c.Close()
//
// [Session] does both, closing the client on every exit path:
//
//	err := client.Session(func(c *client.Client) error {
//		...
//	})
//
// # Making Requests
//
// Headers, cookies and auth accumulate on the Client and are sent with
// every following request. Request methods block, make a single attempt
// and report success as a bool; the details land in [Client.Result]:
//
//	c.SetHeader("Accept", "application/json")
//	c.SetCookie("session", "abc123")
//
//	ok := c.Post(ctx, "https://api.example.com/users",
//		form.Form{{Key: "name", Value: "alice"}}, // body
//		map[string]string{"notify": "1"},         // query string
//	)
//	if !ok {
//		r := c.Result()
//		log.Printf("%d: %s", r.ErrorCode, r.ErrorMessage)
//	}
//
// A failed result is either a transport error (the transfer did not
// complete; [Result.TransportErrorCode] follows libcurl numbering) or an
// HTTP error (4xx/5xx). [Result.Err] turns either into a typed error.
//
// # Parameters
//
// Query parameters and bodies are encoded by the
// [github.com/adamwoolhether/curler/client/form] package.
package client

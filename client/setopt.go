package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adamwoolhether/curler/client/form"
)

var (
	// ErrInvalidOptValue is returned by [Client.SetOpt] when the value has
	// the wrong type for the option.
	ErrInvalidOptValue = errors.New("invalid option value")
	// ErrUnknownOpt is returned by [Client.SetOpt] for unknown options.
	ErrUnknownOpt = errors.New("unknown option")
)

// defaultMaxRedirs matches net/http's own redirect limit.
const defaultMaxRedirs = 10

// Opt names a single transfer configuration key.
type Opt int

const (
	OptUserAgent      Opt = iota + 1 // string
	OptReferer                       // string
	OptCookie                        // string, raw Cookie header value
	OptHTTPHeader                    // []string of "Name: value" lines
	OptUserPwd                       // string, "user:password" for basic auth
	OptCustomRequest                 // string, method override; "" clears
	OptVerbose                       // bool
	OptTimeout                       // time.Duration
	OptFollowLocation                // bool
	OptMaxRedirs                     // int
	OptProxy                         // string; "" removes
)

var optNames = map[Opt]string{
	OptUserAgent:      "USERAGENT",
	OptReferer:        "REFERER",
	OptCookie:         "COOKIE",
	OptHTTPHeader:     "HTTPHEADER",
	OptUserPwd:        "USERPWD",
	OptCustomRequest:  "CUSTOMREQUEST",
	OptVerbose:        "VERBOSE",
	OptTimeout:        "TIMEOUT",
	OptFollowLocation: "FOLLOWLOCATION",
	OptMaxRedirs:      "MAXREDIRS",
	OptProxy:          "PROXY",
}

func (o Opt) String() string {
	if name, ok := optNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Opt(%d)", int(o))
}

// settings is the per-request configuration applied on every transfer.
type settings struct {
	userAgent      string
	referer        string
	cookie         string
	headerLines    []string
	userPwd        string
	customRequest  string
	verbose        bool
	followLocation bool
	maxRedirs      int
}

// SetOpt sets a single transfer option. Only the type of value is checked.
func (c *Client) SetOpt(opt Opt, value any) error {
	switch opt {
	case OptUserAgent, OptReferer, OptCookie, OptUserPwd, OptCustomRequest, OptProxy:
		s, ok := value.(string)
		if !ok {
			return invalidOpt(opt, "string", value)
		}
		c.setString(opt, s)
	case OptHTTPHeader:
		lines, ok := value.([]string)
		if !ok {
			return invalidOpt(opt, "[]string", value)
		}
		c.opts.headerLines = append([]string(nil), lines...)
	case OptVerbose:
		on, ok := value.(bool)
		if !ok {
			return invalidOpt(opt, "bool", value)
		}
		c.opts.verbose = on
		c.rc.SetDebug(on)
	case OptTimeout:
		d, ok := value.(time.Duration)
		if !ok {
			return invalidOpt(opt, "time.Duration", value)
		}
		c.rc.SetTimeout(d)
	case OptFollowLocation:
		on, ok := value.(bool)
		if !ok {
			return invalidOpt(opt, "bool", value)
		}
		c.opts.followLocation = on
		c.applyRedirectPolicy()
	case OptMaxRedirs:
		n, ok := value.(int)
		if !ok {
			return invalidOpt(opt, "int", value)
		}
		c.opts.maxRedirs = n
		c.applyRedirectPolicy()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOpt, opt)
	}

	return nil
}

func (c *Client) setString(opt Opt, s string) {
	switch opt {
	case OptUserAgent:
		c.opts.userAgent = s
	case OptReferer:
		c.opts.referer = s
	case OptCookie:
		c.opts.cookie = s
	case OptUserPwd:
		c.opts.userPwd = s
	case OptCustomRequest:
		c.opts.customRequest = strings.ToUpper(s)
	case OptProxy:
		if s == "" {
			c.rc.RemoveProxy()
			return
		}
		c.rc.SetProxy(s)
	}
}

func (c *Client) applyRedirectPolicy() {
	if !c.opts.followLocation {
		c.rc.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
		return
	}

	n := c.opts.maxRedirs
	if n <= 0 {
		n = defaultMaxRedirs
	}
	c.rc.SetRedirectPolicy(resty.FlexibleRedirectPolicy(n))
}

func invalidOpt(opt Opt, want string, got any) error {
	return fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidOptValue, opt, want, got)
}

// SetHeader sets a request header sent with every following request.
// Setting the same name again replaces the earlier value.
func (c *Client) SetHeader(key, value string) {
	c.headers.Set(key, key+": "+value)

	lines := make([]string, 0, len(c.headers))
	for _, p := range c.headers {
		lines = append(lines, p.Value.(string))
	}
	c.opts.headerLines = lines
}

// SetCookie adds a cookie sent with every following request. Setting the
// same name again replaces the earlier value.
func (c *Client) SetCookie(key, value string) {
	c.cookies.Set(key, value)
	c.opts.cookie = form.Encode(c.cookies, "; ")
}

// SetUserAgent overrides the User-Agent header.
func (c *Client) SetUserAgent(ua string) {
	c.opts.userAgent = ua
}

// SetReferrer sets the Referer header.
func (c *Client) SetReferrer(referrer string) {
	c.opts.referer = referrer
}

// SetBasicAuth enables HTTP basic authentication.
func (c *Client) SetBasicAuth(username, password string) {
	c.opts.userPwd = username + ":" + password
}

// Verbose toggles logging of every request and response by the transfer
// library. The dump goes to the [WithLogger] logger at debug level, so a
// logger above debug discards it.
func (c *Client) Verbose(on bool) {
	c.opts.verbose = on
	c.rc.SetDebug(on)
}

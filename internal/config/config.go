// Package config loads the curler command configuration from flags,
// CURLER_ environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrHelp is returned by [Load] when usage was requested.
var ErrHelp = pflag.ErrHelp

// Config holds one invocation of the curler command.
type Config struct {
	URL       string        `mapstructure:"url" validate:"required,url"`
	Method    string        `mapstructure:"method" validate:"omitempty,alpha"`
	Data      []string      `mapstructure:"data" validate:"dive,kv"`
	DataRaw   string        `mapstructure:"data_raw" validate:"excluded_with=FormFile"`
	FormFile  string        `mapstructure:"form_file" validate:"omitempty,file"`
	Query     []string      `mapstructure:"query" validate:"dive,kv"`
	Headers   []string      `mapstructure:"header" validate:"dive,contains=:"`
	Cookies   []string      `mapstructure:"cookie" validate:"dive,kv"`
	User      string        `mapstructure:"user" validate:"omitempty,contains=:"`
	UserAgent string        `mapstructure:"user_agent"`
	Referer   string        `mapstructure:"referer"`
	Verbose   bool          `mapstructure:"verbose"`
	Include   bool          `mapstructure:"include"`
	Timeout   time.Duration `mapstructure:"max_time" validate:"gte=0"`
	CookieJar string        `mapstructure:"cookie_jar"`
	RPS       int           `mapstructure:"rps" validate:"gte=0"`
	Burst     int           `mapstructure:"burst" validate:"required_with=RPS,gte=0"`
	Proxy     string        `mapstructure:"proxy" validate:"omitempty,url"`
	LogLevel  string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// HasBody reports whether the invocation sends a request body.
func (c *Config) HasBody() bool {
	return len(c.Data) > 0 || c.DataRaw != "" || c.FormFile != ""
}

// Load parses args, overlays CURLER_ environment variables and validates
// the result. The first positional argument is the target URL.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load(".env")

	fs := pflag.NewFlagSet("curler", pflag.ContinueOnError)
	fs.StringP("request", "X", "", "request method")
	fs.StringArrayP("data", "d", nil, "form field as key=value (repeatable)")
	fs.String("data-raw", "", "request body sent as is")
	fs.String("form-file", "", "YAML file holding the form body")
	fs.StringArrayP("query", "q", nil, "query parameter as key=value (repeatable)")
	fs.StringArrayP("header", "H", nil, "request header as 'Name: value' (repeatable)")
	fs.StringArrayP("cookie", "b", nil, "cookie as key=value (repeatable)")
	fs.StringP("user", "u", "", "basic auth credentials as user:password")
	fs.StringP("user-agent", "A", "", "User-Agent header")
	fs.StringP("referer", "e", "", "Referer header")
	fs.BoolP("verbose", "v", false, "log every request and response")
	fs.BoolP("include", "i", false, "print response headers before the body")
	fs.DurationP("max-time", "m", 0, "maximum time allowed for the transfer")
	fs.String("cookie-jar", "", "bbolt file to read and write cookies")
	fs.Int("rps", 0, "requests per second limit")
	fs.Int("burst", 0, "burst capacity for --rps")
	fs.String("proxy", "", "proxy URL")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("curler")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("url", "")
	v.SetDefault("log_level", "warn")

	bindings := map[string]string{
		"method":     "request",
		"data":       "data",
		"data_raw":   "data-raw",
		"form_file":  "form-file",
		"query":      "query",
		"header":     "header",
		"cookie":     "cookie",
		"user":       "user",
		"user_agent": "user-agent",
		"referer":    "referer",
		"verbose":    "verbose",
		"include":    "include",
		"max_time":   "max-time",
		"cookie_jar": "cookie-jar",
		"rps":        "rps",
		"burst":      "burst",
		"proxy":      "proxy",
		"log_level":  "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	switch fs.NArg() {
	case 0:
	case 1:
		v.Set("url", fs.Arg(0))
	default:
		return nil, fmt.Errorf("expected a single URL, got %d arguments", fs.NArg())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Method = strings.ToUpper(cfg.Method)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	// Unset array flags decode as empty slices.
	for _, list := range []*[]string{&cfg.Data, &cfg.Query, &cfg.Headers, &cfg.Cookies} {
		if len(*list) == 0 {
			*list = nil
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

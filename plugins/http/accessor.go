package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/BDNK1/netflow/runtime/plugin"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// OptionTimeout overrides the request timeout for one action, e.g. "5s".
const OptionTimeout = "timeout"

// Config holds the HTTP accessor configuration with declarative tags
type Config struct {
	Timeout            time.Duration `yaml:"timeout" default:"30s" validate:"gte=1s"`
	MaxRetries         int           `yaml:"max_retries" default:"0" validate:"gte=0,lte=10"`
	RetryWaitMS        int           `yaml:"retry_wait_ms" default:"100" validate:"gte=0,lte=10000"`
	MaxRedirects       int           `yaml:"max_redirects" default:"10" validate:"gte=0,lte=50"`
	UserAgent          string        `yaml:"user_agent"`
	Proxy              string        `yaml:"proxy" validate:"omitempty,url_format"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" default:"false"`
	Debug              bool          `yaml:"debug" default:"false"`
}

// Accessor talks plain HTTP through a resty client. Cookies set by responses
// are kept in a jar shared by all calls, so a login in one action carries
// over to the next.
type Accessor struct {
	Config Config

	client *resty.Client
	jar    http.CookieJar
	l      *slog.Logger
}

var _ plugin.WebAccessor = (*Accessor)(nil)

// New prepares cfg (defaults and validation) and builds the client.
func New(cfg Config, l *slog.Logger) (*Accessor, error) {
	return NewFromValues(cfg, nil, l)
}

// NewFromValues merges raw config values, e.g. a section of the CLI config
// file, over cfg before building the client.
func NewFromValues(cfg Config, raw map[string]any, l *slog.Logger) (*Accessor, error) {
	if err := plugin.InitializeConfig(&cfg, raw); err != nil {
		return nil, fmt.Errorf("http accessor config: %w", err)
	}
	if l == nil {
		l = slog.Default()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Duration(cfg.RetryWaitMS) * time.Millisecond).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects)).
		SetCookieJar(jar).
		SetHeader("User-Agent", cfg.UserAgent).
		SetDebug(cfg.Debug)

	if cfg.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}

	return &Accessor{
		Config: cfg,
		client: client,
		jar:    jar,
		l:      l,
	}, nil
}

func (a *Accessor) Fetch(ctx context.Context, target string, opts plugin.Options) (*plugin.Response, error) {
	ctx, cancel := a.requestContext(ctx, opts)
	defer cancel()

	resp, err := a.client.R().
		SetContext(ctx).
		Get(target)
	return a.toResponse(ctx, http.MethodGet, target, resp, err)
}

func (a *Accessor) Submit(ctx context.Context, target string, values plugin.FormValues, opts plugin.Options) (*plugin.Response, error) {
	ctx, cancel := a.requestContext(ctx, opts)
	defer cancel()

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(values.Encode()).
		Post(target)
	return a.toResponse(ctx, http.MethodPost, target, resp, err)
}

// Cookies returns the cookies the jar would send to rawURL.
func (a *Accessor) Cookies(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return a.jar.Cookies(u)
}

func (a *Accessor) requestContext(ctx context.Context, opts plugin.Options) (context.Context, context.CancelFunc) {
	if raw, ok := opts[OptionTimeout]; ok && raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return context.WithTimeout(ctx, d)
		}
		a.l.WarnContext(ctx, "Ignoring invalid timeout option", "value", raw)
	}
	return context.WithCancel(ctx)
}

func (a *Accessor) toResponse(ctx context.Context, method, target string, resp *resty.Response, err error) (*plugin.Response, error) {
	if err != nil {
		a.l.ErrorContext(ctx, "HTTP request failed",
			"method", method,
			"url", target,
			"error", err)
		return nil, fmt.Errorf("HTTP %s %s failed: %w", method, target, err)
	}

	final := target
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	a.l.DebugContext(ctx, "HTTP request completed",
		"method", method,
		"url", target,
		"final_url", final,
		"status", resp.StatusCode(),
		"duration", resp.Time())

	return &plugin.Response{
		StatusCode: resp.StatusCode(),
		URL:        final,
		HTML:       resp.String(),
	}, nil
}

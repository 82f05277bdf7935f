package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BDNK1/netflow/runtime/plugin"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// OptionLoadDelay is the per-action settle delay in milliseconds, applied
// after the page has loaded and before its markup is read.
const OptionLoadDelay = "loadDelay"

// Config holds the browser accessor configuration with declarative tags
type Config struct {
	Headful           bool          `yaml:"headful" default:"false"`
	NoSandbox         bool          `yaml:"no_sandbox" default:"false"`
	RemoteURL         string        `yaml:"remote_url" validate:"omitempty,url_format"`
	ExecPath          string        `yaml:"exec_path"`
	UserAgent         string        `yaml:"user_agent"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" default:"60s" validate:"gte=1s"`
	LoadDelay         time.Duration `yaml:"load_delay" default:"0s" validate:"gte=0"`
}

// Accessor drives a Chrome instance over the DevTools protocol. Each call
// opens a tab in one shared browser, so cookies persist across actions.
type Accessor struct {
	Config Config

	l *slog.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

var (
	_ plugin.WebAccessor = (*Accessor)(nil)
	_ plugin.Lifecycle   = (*Accessor)(nil)
)

// New prepares cfg. The browser itself starts on first use.
func New(cfg Config, l *slog.Logger) (*Accessor, error) {
	return NewFromValues(cfg, nil, l)
}

// NewFromValues merges raw config values over cfg.
func NewFromValues(cfg Config, raw map[string]any, l *slog.Logger) (*Accessor, error) {
	if err := plugin.InitializeConfig(&cfg, raw); err != nil {
		return nil, fmt.Errorf("browser accessor config: %w", err)
	}
	if l == nil {
		l = slog.Default()
	}
	return &Accessor{Config: cfg, l: l}, nil
}

func (a *Accessor) Fetch(ctx context.Context, target string, opts plugin.Options) (*plugin.Response, error) {
	tabCtx, done, err := a.newTab(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	status := watchDocumentStatus(tabCtx)
	return a.load(tabCtx, target, status, opts, network.Enable())
}

// Submit navigates to target and turns the navigation request into a
// form-encoded POST carrying values. Redirects that follow are left alone.
func (a *Accessor) Submit(ctx context.Context, target string, values plugin.FormValues, opts plugin.Options) (*plugin.Response, error) {
	tabCtx, done, err := a.newTab(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	status := watchDocumentStatus(tabCtx)
	interceptPost(tabCtx, values.Encode(), a.l)
	return a.load(tabCtx, target, status, opts, network.Enable(), fetch.Enable())
}

// Shutdown closes the browser.
func (a *Accessor) Shutdown(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelBrowser != nil {
		a.cancelBrowser()
		a.cancelAlloc()
		a.browserCtx, a.cancelBrowser, a.cancelAlloc = nil, nil, nil
	}
	return nil
}

func (a *Accessor) load(tabCtx context.Context, target string, status *documentStatus, opts plugin.Options, setup ...chromedp.Action) (*plugin.Response, error) {
	navCtx, cancel := context.WithTimeout(tabCtx, a.Config.NavigationTimeout)
	defer cancel()

	var (
		location string
		markup   string
	)
	actions := append(setup,
		chromedp.Navigate(target),
		chromedp.Sleep(a.loadDelay(tabCtx, opts)),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err := chromedp.Run(navCtx, actions...); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("navigation to %s timed out after %s: %w", target, a.Config.NavigationTimeout, err)
		}
		return nil, fmt.Errorf("navigation to %s failed: %w", target, err)
	}

	code := status.get()
	a.l.DebugContext(tabCtx, "Browser navigation completed",
		"url", target,
		"final_url", location,
		"status", code)

	return &plugin.Response{
		StatusCode: code,
		URL:        location,
		HTML:       markup,
	}, nil
}

func (a *Accessor) loadDelay(ctx context.Context, opts plugin.Options) time.Duration {
	raw, ok := opts[OptionLoadDelay]
	if !ok || raw == "" {
		return a.Config.LoadDelay
	}
	ms, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || ms < 0 {
		a.l.WarnContext(ctx, "Ignoring invalid loadDelay option", "value", raw)
		return a.Config.LoadDelay
	}
	return time.Duration(ms) * time.Millisecond
}

// newTab opens a tab in the shared browser. The tab closes when the returned
// func is called or when ctx is cancelled.
func (a *Accessor) newTab(ctx context.Context) (context.Context, func(), error) {
	browserCtx, err := a.browser()
	if err != nil {
		return nil, nil, err
	}
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	stop := context.AfterFunc(ctx, cancel)
	return tabCtx, func() {
		stop()
		cancel()
	}, nil
}

func (a *Accessor) browser() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.browserCtx != nil {
		return a.browserCtx, nil
	}

	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if a.Config.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), a.Config.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", !a.Config.Headful),
			chromedp.Flag("disable-gpu", true),
		)
		if a.Config.NoSandbox {
			opts = append(opts, chromedp.NoSandbox)
		}
		if a.Config.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(a.Config.ExecPath))
		}
		if a.Config.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(a.Config.UserAgent))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	a.l.Info("Browser started", "remote", a.Config.RemoteURL != "", "headful", a.Config.Headful)
	a.browserCtx, a.cancelBrowser, a.cancelAlloc = browserCtx, cancelBrowser, cancelAlloc
	return browserCtx, nil
}

// documentStatus keeps the status of the first document response in a tab.
// Redirect hops do not produce a response event, so this is the final page.
type documentStatus struct {
	mu   sync.Mutex
	code int
}

func (s *documentStatus) get() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

func watchDocumentStatus(tabCtx context.Context) *documentStatus {
	status := &documentStatus{}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		status.mu.Lock()
		if status.code == 0 {
			status.code = int(e.Response.Status)
		}
		status.mu.Unlock()
	})
	return status
}

// interceptPost rewrites the first document request of the tab into a POST.
// Every other paused request continues unchanged.
func interceptPost(tabCtx context.Context, body string, l *slog.Logger) {
	var rewritten atomic.Bool
	encoded := base64.StdEncoding.EncodeToString([]byte(body))

	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			execCtx := cdp.WithExecutor(tabCtx, c.Target)

			req := fetch.ContinueRequest(e.RequestID)
			if e.ResourceType == network.ResourceTypeDocument && rewritten.CompareAndSwap(false, true) {
				req = req.
					WithMethod("POST").
					WithPostData(encoded).
					WithHeaders(postHeaders(e.Request.Headers))
			}
			if err := req.Do(execCtx); err != nil {
				l.WarnContext(tabCtx, "Failed to continue intercepted request",
					"url", e.Request.URL,
					"error", err)
			}
		}()
	})
}

func postHeaders(h network.Headers) []*fetch.HeaderEntry {
	entries := []*fetch.HeaderEntry{{Name: "Content-Type", Value: "application/x-www-form-urlencoded"}}
	for k, v := range h {
		if strings.EqualFold(k, "Content-Type") || strings.EqualFold(k, "Content-Length") {
			continue
		}
		entries = append(entries, &fetch.HeaderEntry{Name: k, Value: fmt.Sprint(v)})
	}
	return entries
}

package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds every navigation and DOM call on a session.
const DefaultTimeout = 25 * time.Second

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// ChromeOptions configures a headless Chrome session.
type ChromeOptions struct {
	Headless  bool
	ExecPath  string
	UserAgent string
	// Timeout is the per-call deadline applied to navigation and DOM reads.
	Timeout time.Duration
	// SlowMo pauses after each navigation.
	SlowMo time.Duration
}

// ChromeSession owns one browser context with a single tab, reused for every navigation.
type ChromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	slowMo      time.Duration
	proxy       *ProxyConfig
}

// NewChromeSession starts a browser. When proxies yields a proxy, the whole
// browser context is routed through it.
func NewChromeSession(parent context.Context, opts ChromeOptions, proxies ProxyProvider) (*ChromeSession, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	var proxy *ProxyConfig
	if proxies != nil {
		if p, ok := proxies.Next(); ok {
			proxy = &p
			allocOpts = append(allocOpts, chromedp.ProxyServer(p.Server()))
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	s := &ChromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     opts.Timeout,
		slowMo:      opts.SlowMo,
		proxy:       proxy,
	}

	// The first Run allocates the browser and binds its lifetime to the ctx
	// it gets, so it runs on the tab ctx itself with no deadline.
	if err := chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	if proxy != nil && proxy.HasCredentials() {
		authCtx, cancel := s.callContext(parent)
		err := s.enableProxyAuth(authCtx, *proxy)
		cancel()
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Proxy returns the proxy this session was created with, if any.
func (s *ChromeSession) Proxy() (ProxyConfig, bool) {
	if s.proxy == nil {
		return ProxyConfig{}, false
	}
	return *s.proxy, true
}

// Close shuts down the tab and the browser process.
func (s *ChromeSession) Close() {
	s.cancelTab()
	s.cancelAlloc()
}

// Goto navigates the tab and waits for cond.
func (s *ChromeSession) Goto(ctx context.Context, url string, cond LoadCondition) (Response, error) {
	runCtx, cancel := s.callContext(ctx)
	defer cancel()

	var idle chan struct{}
	if cond == LoadConditionNetworkIdle {
		idle = s.watchLifecycle(runCtx, s.mainFrame(), "networkIdle")
	}

	out := Response{URL: url}
	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return out, fmt.Errorf("navigate %s: %w", url, err)
	}
	if resp != nil {
		out.Status = int(resp.Status)
		if resp.URL != "" {
			out.URL = resp.URL
		}
	}
	if err := s.waitFor(runCtx, cond, idle); err != nil {
		return out, fmt.Errorf("wait for %s on %s: %w", cond, url, err)
	}
	if !out.OK() {
		return out, fmt.Errorf("%w: %d for %s", ErrBadStatus, out.Status, url)
	}
	if s.slowMo > 0 {
		if err := chromedp.Run(runCtx, chromedp.Sleep(s.slowMo)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Document snapshots the current DOM.
func (s *ChromeSession) Document(ctx context.Context) (*Document, error) {
	runCtx, cancel := s.callContext(ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read dom: %w", err)
	}
	return ParseDocument(html)
}

// callContext derives a deadline-bound context from the tab that is also
// cancelled when the caller's ctx is.
func (s *ChromeSession) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *ChromeSession) waitFor(ctx context.Context, cond LoadCondition, idle <-chan struct{}) error {
	switch cond {
	case LoadConditionDOMContentLoaded:
		return chromedp.Run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
	case LoadConditionNetworkIdle:
		select {
		case <-idle:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		var ready bool
		return chromedp.Run(ctx, chromedp.Poll(`document.readyState === "complete"`, &ready))
	}
}

// mainFrame is the tab's top-level frame, whose id equals the target id.
func (s *ChromeSession) mainFrame() cdp.FrameID {
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return ""
	}
	return cdp.FrameID(c.Target.TargetID)
}

func (s *ChromeSession) watchLifecycle(ctx context.Context, frame cdp.FrameID, name string) chan struct{} {
	fired := make(chan struct{}, 1)
	w := &lifecycleWatch{frame: frame, name: name}
	chromedp.ListenTarget(ctx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && w.observe(e) {
			select {
			case fired <- struct{}{}:
			default:
			}
		}
	})
	return fired
}

// lifecycleWatch matches a lifecycle event of the document a navigation
// started. The "init" event of the main frame pins the loader; events of
// other frames or of the previous document never match.
type lifecycleWatch struct {
	frame  cdp.FrameID
	name   string
	loader cdp.LoaderID
}

func (w *lifecycleWatch) observe(e *page.EventLifecycleEvent) bool {
	if w.frame != "" && e.FrameID != w.frame {
		return false
	}
	if e.Name == "init" {
		w.loader = e.LoaderID
		return false
	}
	return w.loader != "" && e.LoaderID == w.loader && e.Name == w.name
}

func (s *ChromeSession) enableProxyAuth(ctx context.Context, proxy ProxyConfig) error {
	tab := s.ctx
	chromedp.ListenTarget(tab, func(ev any) {
		execCtx := cdp.WithExecutor(tab, chromedp.FromContext(tab).Target)
		switch e := ev.(type) {
		case *fetch.EventAuthRequired:
			go func() {
				_ = fetch.ContinueWithAuth(e.RequestID, &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: proxy.Username,
					Password: proxy.Password,
				}).Do(execCtx)
			}()
		case *fetch.EventRequestPaused:
			go func() {
				_ = fetch.ContinueRequest(e.RequestID).Do(execCtx)
			}()
		}
	})
	if err := chromedp.Run(ctx, fetch.Enable().WithHandleAuthRequests(true)); err != nil {
		return fmt.Errorf("enable proxy auth: %w", err)
	}
	return nil
}

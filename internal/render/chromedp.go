// Package render loads URLs in headless Chrome and returns the DOM after
// client-side scripts have run. One Session is one isolated browser tab.
package render

import (
	"context"
	"fmt"
	"time"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Config controls the renderer.
type Config struct {
	// UserAgent is the synthetic client identity. When empty a realistic
	// Chrome identity is generated.
	UserAgent string
	// NavigationTimeout bounds each navigate-and-settle cycle. A hung page
	// otherwise pins its worker slot for the rest of the run.
	NavigationTimeout time.Duration
	// Silent suppresses browser diagnostics.
	Silent bool
	// Settle is applied after navigation, before content is read.
	Settle Settle
}

// Renderer owns a headless Chrome process and mints isolated sessions from
// it. Close tears the process down.
type Renderer struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New starts the browser allocator. Sessions share the process but nothing
// else: cookies, storage, and execution state are per-tab.
func New(cfg Config) (*Renderer, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = browser.Chrome()
	}
	if cfg.Settle == nil {
		cfg.Settle = FixedDelay(5 * time.Second)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Renderer{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context, killing the browser process.
func (r *Renderer) Close() {
	r.allocCancel()
}

// NewSession opens a fresh tab. The caller must Close it; sessions are not
// reclaimed by garbage collection and a leaked tab holds real memory.
func (r *Renderer) NewSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("session open: %w", err)
	}
	var ctxOpts []chromedp.ContextOption
	if r.cfg.Silent {
		ctxOpts = append(ctxOpts, chromedp.WithErrorf(func(string, ...interface{}) {}))
	}
	tabCtx, cancel := chromedp.NewContext(r.allocator, ctxOpts...)
	return &Session{
		tabCtx:    tabCtx,
		cancel:    cancel,
		timeout:   r.cfg.NavigationTimeout,
		settle:    r.cfg.Settle,
		userAgent: r.cfg.UserAgent,
	}, nil
}

// Session is one isolated rendering context.
type Session struct {
	tabCtx    context.Context
	cancel    context.CancelFunc
	timeout   time.Duration
	settle    Settle
	userAgent string
}

// Navigate loads rawURL and runs the settle policy. The call is bounded by
// the configured navigation timeout and by ctx.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	taskCtx, cancelTask := context.WithTimeout(s.tabCtx, s.timeout)
	defer cancelTask()
	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(s.userAgent),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		s.settle.Action(),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	return nil
}

// Content returns the current DOM serialized as HTML.
func (s *Session) Content(ctx context.Context) (string, error) {
	taskCtx, cancelTask := context.WithTimeout(s.tabCtx, s.timeout)
	defer cancelTask()
	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return html, nil
}

// Close disposes the tab. Safe to call exactly once per session; always
// called via defer on the owning worker's exit path.
func (s *Session) Close() {
	s.cancel()
}

// forwardCancel propagates cancellation of parent into cancel without tying
// the chromedp task context's lifetime to the caller's context tree.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// captureStylesJS concatenates the text of every rule in every stylesheet.
// Sheets that refuse access (cross-origin) are skipped.
const captureStylesJS = `(() => {
	let css = '';
	for (const sheet of document.styleSheets) {
		try {
			for (const rule of sheet.cssRules) {
				css += rule.cssText + '\n';
			}
		} catch (e) {}
	}
	return css;
})()`

const captureMarkupJS = `(() => {
	const doctype = document.doctype ? new XMLSerializer().serializeToString(document.doctype) : '';
	return doctype + (document.documentElement ? document.documentElement.outerHTML : '');
})()`

// Options configures the browser and every tab it opens.
type Options struct {
	Headless       bool
	Width          int
	Height         int
	UserAgent      string
	CaptureTimeout time.Duration
}

// Chrome renders pages with a headless Chrome driven by chromedp. One tab is
// opened per page.
type Chrome struct {
	opts          Options
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// NewChrome starts a browser. The browser stops when ctx is done or Close is
// called.
func NewChrome(ctx context.Context, opts Options) (*Chrome, error) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", opts.Headless),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if opts.CaptureTimeout <= 0 {
		opts.CaptureTimeout = 30 * time.Second
	}

	return &Chrome{
		opts:          opts,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() {
	c.browserCancel()
	c.allocCancel()
}

// Load opens a new tab and navigates it to url, waiting for the page's
// networkIdle lifecycle event for at most timeout.
func (c *Chrome) Load(url string, timeout time.Duration) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	p := &chromePage{ctx: tabCtx, cancel: cancel, captureTimeout: c.opts.CaptureTimeout}

	setup := []chromedp.Action{page.SetLifecycleEventsEnabled(true)}
	if c.opts.UserAgent != "" {
		setup = append(setup, emulation.SetUserAgentOverride(c.opts.UserAgent))
	}
	if c.opts.Width > 0 && c.opts.Height > 0 {
		setup = append(setup, chromedp.EmulateViewport(int64(c.opts.Width), int64(c.opts.Height)))
	}
	// Allocate the tab on tabCtx so the navigation timeout below does not
	// close it.
	if err := chromedp.Run(tabCtx, setup...); err != nil {
		return p, fmt.Errorf("failed to open tab for %s: %w", url, err)
	}

	// networkIdle is recorded per loader. Every frame has its own loader,
	// so only the one returned for the main frame navigation counts.
	var mu sync.Mutex
	idled := make(map[cdp.LoaderID]bool)
	notify := make(chan struct{}, 1)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.Name != "networkIdle" {
			return
		}
		mu.Lock()
		idled[e.LoaderID] = true
		mu.Unlock()
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	navCtx, navCancel := context.WithTimeout(tabCtx, timeout)
	defer navCancel()

	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, loader, errText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errText != "" {
			return fmt.Errorf("page load error %s", errText)
		}
		// Same-document navigations have no loader of their own.
		if loader == "" {
			return nil
		}
		for {
			mu.Lock()
			done := idled[loader]
			mu.Unlock()
			if done {
				return nil
			}
			select {
			case <-notify:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}))
	if err != nil {
		return p, fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return p, nil
}

type chromePage struct {
	ctx            context.Context
	cancel         context.CancelFunc
	captureTimeout time.Duration
}

func (p *chromePage) Wait(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return chromedp.Run(p.ctx, chromedp.Sleep(d))
}

func (p *chromePage) Capture() (string, string, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.captureTimeout)
	defer cancel()

	var markup, styles string
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(captureStylesJS, &styles),
		chromedp.Evaluate(captureMarkupJS, &markup),
	); err != nil {
		return markup, styles, fmt.Errorf("capture failed: %w", err)
	}
	return markup, styles, nil
}

func (p *chromePage) Close() {
	p.cancel()
}

package browserui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Renderer pushes state changes into the embedded assistant page over
// CDP. It implements the listener interfaces of the state packages;
// the state layer never depends on it, and render failures are logged,
// never propagated back into state flow.
type Renderer struct {
	cdpURL      string
	urlFilter   string
	evalTimeout time.Duration

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

// NewRenderer creates a renderer for the tab whose URL contains
// urlFilter, reachable through the CDP endpoint at cdpURL.
func NewRenderer(cdpURL, urlFilter string, evalTimeout time.Duration) *Renderer {
	return &Renderer{
		cdpURL:      cdpURL,
		urlFilter:   strings.ToLower(strings.TrimSpace(urlFilter)),
		evalTimeout: evalTimeout,
	}
}

// Connect attaches to the assistant tab.
func (r *Renderer) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Info("renderer connect start", "cdp_url", r.cdpURL)
	r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.cdpURL)

	tempCtx, tempCancel := chromedp.NewContext(r.allocCtx)
	defer tempCancel()
	if err := chromedp.Run(tempCtx); err != nil {
		r.closeLocked()
		return fmt.Errorf("connect to browser: %w", err)
	}

	targets, err := chromedp.Targets(tempCtx)
	if err != nil {
		r.closeLocked()
		return fmt.Errorf("enumerate targets: %w", err)
	}

	t, ok := r.matchTab(targets)
	if !ok {
		r.closeLocked()
		return fmt.Errorf("no page tab matching %q", r.urlFilter)
	}

	r.tabCtx, r.tabCancel = chromedp.NewContext(r.allocCtx, chromedp.WithTargetID(t.TargetID))
	if err := chromedp.Run(r.tabCtx); err != nil {
		r.closeLocked()
		return fmt.Errorf("attach to tab %s: %w", t.URL, err)
	}
	slog.Info("renderer attached", "url", t.URL)
	return nil
}

// matchTab returns the first page target whose URL contains the
// configured filter.
func (r *Renderer) matchTab(targets []*target.Info) (*target.Info, bool) {
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if r.urlFilter != "" && !strings.Contains(strings.ToLower(t.URL), r.urlFilter) {
			continue
		}
		return t, true
	}
	return nil, false
}

// Close detaches from the browser.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Renderer) closeLocked() {
	if r.tabCancel != nil {
		r.tabCancel()
		r.tabCtx, r.tabCancel = nil, nil
	}
	if r.allocCancel != nil {
		r.allocCancel()
		r.allocCtx, r.allocCancel = nil, nil
	}
}

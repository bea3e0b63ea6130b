// Package fetch - browser.go renders pages in headless Chrome for help centers that build their markup with JavaScript.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/faq-assistant/internal/logging"
)

// DefaultRenderWait is how long the page is given to finish rendering after the body is ready.
const DefaultRenderWait = 2 * time.Second

// BrowserFetcher renders pages with chromedp before parsing them.
// Requires Chrome/Chromium to be installed on the system.
type BrowserFetcher struct {
	timeout    time.Duration
	renderWait time.Duration
	userAgent  string
	logger     *zap.Logger
}

// NewBrowserFetcher creates a BrowserFetcher with the given per-page timeout.
func NewBrowserFetcher(timeout time.Duration, logger *zap.Logger) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger = logging.OrNop(logger)
	return &BrowserFetcher{
		timeout:    timeout,
		renderWait: DefaultRenderWait,
		userAgent:  BrowserUserAgent,
		logger:     logger,
	}
}

// Fetch renders urlStr and returns the parsed document.
func (b *BrowserFetcher) Fetch(ctx context.Context, urlStr string) (*goquery.Document, error) {
	html, err := b.render(ctx, urlStr)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "browser rendering failed",
			Cause:   err,
		}
	}

	doc, err := Document([]byte(html))
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "unparseable rendered page",
			Cause:   err,
		}
	}
	return doc, nil
}

func (b *BrowserFetcher) render(ctx context.Context, urlStr string) (string, error) {
	b.logger.Debug("starting headless browser", zap.String("url", urlStr))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(b.userAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.renderWait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}

	b.logger.Debug("rendered page", zap.String("url", urlStr), zap.Int("bytes", len(html)))
	return html, nil
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// RenderFetcher loads the page in headless Chrome so client-rendered
// content becomes visible. Opt-in through FETCH_RENDER_JS.
type RenderFetcher struct {
	opts Options
}

// NewRenderFetcher creates a headless-browser fetcher
func NewRenderFetcher(opts Options) *RenderFetcher {
	return &RenderFetcher{opts: opts.withDefaults()}
}

// Fetch implements Fetcher
func (f *RenderFetcher) Fetch(ctx context.Context, targetURL string) (*SourceContent, error) {
	targetURL, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancel := context.WithTimeout(browserCtx, f.opts.Timeout)
	defer cancel()

	var html string
	err = chromedp.Run(timeoutCtx,
		emulation.SetUserAgentOverride(f.opts.UserAgent),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		f.opts.Logger.Error("Failed to render page", "url", targetURL, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchNetwork, err)
	}

	text, err := ExtractText([]byte(html))
	if err != nil {
		return nil, err
	}

	f.opts.Logger.Debug("Rendered page", "url", targetURL, "chars", utf8.RuneCountInString(text))

	return &SourceContent{
		URL:       targetURL,
		Text:      text,
		FetchedAt: time.Now(),
	}, nil
}

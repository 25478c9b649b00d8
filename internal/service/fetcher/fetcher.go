package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
)

const (
	// MaxTextLength is the character budget for extracted page text
	MaxTextLength = 5000

	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Fetch failures. All of them mean "no content" to the caller.
var (
	ErrNoContent     = errors.New("no content")
	ErrInvalidURL    = fmt.Errorf("%w: invalid url", ErrNoContent)
	ErrFetchNetwork  = fmt.Errorf("%w: network failure", ErrNoContent)
	ErrFetchTimeout  = fmt.Errorf("%w: timeout", ErrNoContent)
	ErrFetchStatus   = fmt.Errorf("%w: unexpected status", ErrNoContent)
	ErrFetchNotText  = fmt.Errorf("%w: response is not text", ErrNoContent)
	ErrNothingToRead = fmt.Errorf("%w: no heading or paragraph text", ErrNoContent)
)

// SourceContent is the text extracted from one page
type SourceContent struct {
	URL        string    `json:"url"`
	Text       string    `json:"text"`
	FetchedAt  time.Time `json:"fetched_at"`
	StatusCode int       `json:"status_code"`
}

// Fetcher retrieves a page and extracts its visible text
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*SourceContent, error)
}

// Options allows customizing the fetch behavior
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Logger    logging.Logger
}

// DefaultOptions returns the default fetch options
func DefaultOptions() Options {
	return Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	o.Logger = logging.OrDefault(o.Logger)
	return o
}

// CollyFetcher performs a plain HTTP GET through a colly collector.
// No JavaScript is executed, so client-rendered content is invisible to it.
type CollyFetcher struct {
	opts Options
}

// NewCollyFetcher creates a fetcher with the given options
func NewCollyFetcher(opts Options) *CollyFetcher {
	return &CollyFetcher{opts: opts.withDefaults()}
}

// Fetch implements Fetcher
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*SourceContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	targetURL, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}

	// A fresh collector per fetch: colly refuses to revisit URLs it has seen
	c := colly.NewCollector(colly.MaxDepth(1))
	c.UserAgent = f.opts.UserAgent
	c.SetRequestTimeout(f.opts.Timeout)
	c.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})
	c.DisableCookies()

	var (
		body       []byte
		statusCode int
		fetchErr   error
	)

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		if !isTextContent(r.Headers.Get("Content-Type"), r.Body) {
			fetchErr = fmt.Errorf("%w: %s", ErrFetchNotText, r.Headers.Get("Content-Type"))
			return
		}
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = classifyFetchError(statusCode, err)
	})

	if err := c.Visit(targetURL); err != nil && fetchErr == nil {
		fetchErr = classifyFetchError(statusCode, err)
	}
	c.Wait()

	if fetchErr != nil {
		f.opts.Logger.Error("Failed to fetch page", "url", targetURL, "status", statusCode, "error", fetchErr)
		return nil, fetchErr
	}

	text, err := ExtractText(body)
	if err != nil {
		return nil, err
	}

	f.opts.Logger.Debug("Fetched page", "url", targetURL, "status", statusCode, "chars", utf8.RuneCountInString(text))

	return &SourceContent{
		URL:        targetURL,
		Text:       text,
		FetchedAt:  time.Now(),
		StatusCode: statusCode,
	}, nil
}

// NormalizeURL adds a scheme when missing and validates the result
func NormalizeURL(targetURL string) (string, error) {
	targetURL = strings.TrimSpace(targetURL)
	if targetURL == "" {
		return "", ErrInvalidURL
	}
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		targetURL = "https://" + targetURL
	}

	parsedURL, err := url.Parse(targetURL)
	if err != nil || parsedURL.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, targetURL)
	}
	return targetURL, nil
}

// ExtractText pulls heading and paragraph text out of an HTML document,
// joined with single spaces and truncated to MaxTextLength characters.
func ExtractText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNothingToRead, err)
	}

	// Drop non-content regions before selecting text
	doc.Find("script, style, noscript, template, nav, header, footer").Remove()

	var parts []string
	doc.Find("h1, h2, h3, p").Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpaces(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	text := strings.TrimSpace(truncateRunes(strings.Join(parts, " "), MaxTextLength))
	if text == "" {
		return "", ErrNothingToRead
	}
	return text, nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func isTextContent(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

func classifyFetchError(statusCode int, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrFetchNetwork, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	case statusCode >= 400:
		return fmt.Errorf("%w: %d", ErrFetchStatus, statusCode)
	default:
		return fmt.Errorf("%w: %v", ErrFetchNetwork, err)
	}
}

// contextTransport aborts collector requests when the fetch context ends.
// The request keeps its own context too, which carries the client timeout.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	stop := context.AfterFunc(t.ctx, cancel)
	context.AfterFunc(ctx, func() { stop() })
	return t.base.RoundTrip(req.WithContext(ctx))
}

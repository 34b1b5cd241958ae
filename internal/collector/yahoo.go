package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"TrendSentinel/internal/model"
)

// DefaultHistoryURL is the Yahoo! Finance Japan daily history page.
const DefaultHistoryURL = "https://info.finance.yahoo.co.jp/history/"

// YahooJPFetcher implements Fetcher by scraping Yahoo! Finance Japan
// history pages.
type YahooJPFetcher struct {
	BaseURL   string
	UserAgent string
	Markers   Markers
	Client    *http.Client
}

// NewYahooJPFetcher creates a fetcher with optional proxy support. An empty
// baseURL selects DefaultHistoryURL.
func NewYahooJPFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooJPFetcher {
	if baseURL == "" {
		baseURL = DefaultHistoryURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooJPFetcher{
		BaseURL:   baseURL,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		Markers:   DefaultMarkers,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *YahooJPFetcher) Name() string { return "yahoojp" }

// PageURL builds the history URL for one page of code over w.
func (f *YahooJPFetcher) PageURL(code string, w model.Window, page int) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("sy", strconv.Itoa(w.Start.Year))
	q.Set("sm", fmt.Sprintf("%02d", int(w.Start.Month)))
	q.Set("sd", fmt.Sprintf("%02d", w.Start.Day))
	q.Set("ey", strconv.Itoa(w.End.Year))
	q.Set("em", fmt.Sprintf("%02d", int(w.End.Month)))
	q.Set("ed", fmt.Sprintf("%02d", w.End.Day))
	q.Set("tm", "d")
	q.Set("p", strconv.Itoa(page))
	return f.BaseURL + "?" + q.Encode()
}

func (f *YahooJPFetcher) FetchPage(ctx context.Context, code string, w model.Window, page int) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.PageURL(code, w, page), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	p, err := ParsePage(resp.Body, f.Markers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return p, nil
}

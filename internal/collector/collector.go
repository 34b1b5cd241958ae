package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/model"
)

// MockFetcher serves scripted pages for development and testing.
type MockFetcher struct {
	Pages  map[string][]*Page // per code, page 1 first
	Errors map[string]error   // per code, returned on every fetch

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPage(_ context.Context, code string, _ model.Window, page int) (*Page, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[code]++
	m.mu.Unlock()

	if err := m.Errors[code]; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	pages := m.Pages[code]
	if page < 1 || page > len(pages) {
		return nil, fmt.Errorf("%w: %s has no page %d", ErrFetch, code, page)
	}
	return pages[page-1], nil
}

// Calls returns how many pages were requested for code.
func (m *MockFetcher) Calls(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[code]
}

// Paginator walks the history pages of one ticker until no next-page link
// remains.
type Paginator struct {
	Fetcher     Fetcher
	Delay       time.Duration // full pause after each page that has a successor
	Limiter     *rate.Limiter // optional cap on fetch starts, may be shared
	SplitMarker string
	MaxPages    int // 0 means no cap
	Metrics     *metrics.Metrics
}

// NewPaginator creates a Paginator that pauses delay after every page before
// requesting the next one. A zero delay disables the pause.
func NewPaginator(f Fetcher, delay time.Duration, m *metrics.Metrics) *Paginator {
	return &Paginator{
		Fetcher:     f,
		Delay:       delay,
		SplitMarker: DefaultSplitMarker,
		Metrics:     m,
	}
}

// pause blocks for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Collect fetches every page of code over w in order and returns the
// accumulated rows. Any page failure aborts the ticker.
func (p *Paginator) Collect(ctx context.Context, code string, w model.Window) (*model.Batch, error) {
	batch := &model.Batch{Code: code}
	var symbol string

	for page := 1; ; page++ {
		if p.MaxPages > 0 && page > p.MaxPages {
			return nil, fmt.Errorf("%s: more than %d pages: %w", code, p.MaxPages, ErrFetch)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s page %d: %w", code, page, err)
		}
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s page %d: %w", code, page, err)
			}
		}

		started := time.Now()
		pg, err := p.Fetcher.FetchPage(ctx, code, w, page)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", code, page, err)
		}
		p.Metrics.ObservePage(p.Fetcher.Name(), time.Since(started))

		recs, err := ExtractRows(pg.Rows, p.SplitMarker)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", code, page, err)
		}
		log.Debug().
			Str("code", code).
			Int("page", page).
			Int("rows", len(recs)).
			Msg("history page fetched")

		batch.Records = append(batch.Records, recs...)
		batch.Pages = page
		symbol = pg.Symbol
		if !pg.HasNext {
			break
		}
		if err := pause(ctx, p.Delay); err != nil {
			return nil, fmt.Errorf("%s page %d: %w", code, page+1, err)
		}
	}

	batch.Name = CleanName(symbol)
	return batch, nil
}

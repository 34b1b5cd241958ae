package collector

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/model"
)

// Scraper collects many tickers over a bounded worker pool.
type Scraper struct {
	Fetcher     Fetcher
	Delay       time.Duration
	RateLimit   float64 // fetch starts per second across all workers, 0 = no cap
	Workers     int
	MaxPages    int
	SplitMarker string // DefaultSplitMarker when empty
	Metrics     *metrics.Metrics
}

// Result is the outcome of one scrape run. Batches follow the order of the
// requested codes; failed tickers are left out of Batches.
type Result struct {
	Batches []*model.Batch
	Failed  map[string]error
}

// Rows counts the records across all batches.
func (r *Result) Rows() int {
	n := 0
	for _, b := range r.Batches {
		n += len(b.Records)
	}
	return n
}

// Run scrapes every code over w. A failing ticker is logged and recorded in
// Result.Failed; it never stops the others. Run only returns early when ctx
// is cancelled, with whatever finished before that.
func (s *Scraper) Run(ctx context.Context, codes []string, w model.Window) *Result {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(workers)

	var limiter *rate.Limiter
	if s.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.RateLimit), 1)
	}

	var mu sync.Mutex
	batches := make([]*model.Batch, len(codes))
	failed := map[string]error{}

	for i, code := range codes {
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				failed[code] = ctx.Err()
				mu.Unlock()
				return nil
			}
			p := NewPaginator(s.Fetcher, s.Delay, s.Metrics)
			p.MaxPages = s.MaxPages
			p.Limiter = limiter
			if s.SplitMarker != "" {
				p.SplitMarker = s.SplitMarker
			}

			b, err := p.Collect(ctx, code, w)
			if err != nil {
				log.Error().Err(err).Str("code", code).Msg("scrape ticker failed")
				s.Metrics.TickerDone(false, 0)
				mu.Lock()
				failed[code] = err
				mu.Unlock()
				return nil
			}
			log.Info().
				Str("code", code).
				Str("name", b.Name).
				Int("pages", b.Pages).
				Int("rows", len(b.Records)).
				Msg("ticker scraped")
			s.Metrics.TickerDone(true, len(b.Records))
			batches[i] = b
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{Failed: failed}
	for _, b := range batches {
		if b != nil {
			res.Batches = append(res.Batches, b)
		}
	}
	return res
}

package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func page(symbol string, next bool, dates ...string) *Page {
	rows := [][]string{jpHeader}
	for _, d := range dates {
		rows = append(rows, []string{d, "100", "110", "90", "105", "1,000", "105"})
	}
	return &Page{Rows: rows, HasNext: next, Symbol: symbol}
}

var june = model.Window{Start: model.NewDate(2023, time.June, 1), End: model.NewDate(2023, time.June, 30)}

func TestPaginator_StopsOnLastPage(t *testing.T) {
	mock := &MockFetcher{Pages: map[string][]*Page{
		"7203": {
			page("トヨタ自動車(株)", true, "2023年6月30日", "2023年6月29日"),
			page("トヨタ自動車(株)", true, "2023年6月28日"),
			page("トヨタ自動車(株)", false, "2023年6月27日"),
			page("unreachable", false, "2023年6月26日"),
		},
	}}

	b, err := NewPaginator(mock, 0, nil).Collect(context.Background(), "7203", june)
	require.NoError(t, err)

	assert.Equal(t, 3, mock.Calls("7203"))
	assert.Equal(t, 3, b.Pages)
	assert.Equal(t, "7203", b.Code)
	assert.Equal(t, "トヨタ自動車", b.Name)
	require.Len(t, b.Records, 4)
	assert.Equal(t, model.NewDate(2023, time.June, 30), b.Records[0].Date)
	assert.Equal(t, model.NewDate(2023, time.June, 27), b.Records[3].Date)
}

func TestPaginator_SinglePage(t *testing.T) {
	mock := &MockFetcher{Pages: map[string][]*Page{"9984": {page("SBG", false)}}}
	b, err := NewPaginator(mock, 0, nil).Collect(context.Background(), "9984", june)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls("9984"))
	assert.Empty(t, b.Records)
	assert.Equal(t, "SBG", b.Name)
}

func TestPaginator_MalformedPageAborts(t *testing.T) {
	bad := &Page{Rows: [][]string{jpHeader, {"2023年6月1日", "x"}}, HasNext: true}
	mock := &MockFetcher{Pages: map[string][]*Page{"7203": {page("T", true, "2023年6月2日"), bad, page("T", false)}}}

	_, err := NewPaginator(mock, 0, nil).Collect(context.Background(), "7203", june)
	assert.ErrorIs(t, err, ErrMalformedRow)
	assert.Contains(t, err.Error(), "7203 page 2")
	assert.Equal(t, 2, mock.Calls("7203"))
}

func TestPaginator_FetchErrorAborts(t *testing.T) {
	mock := &MockFetcher{Errors: map[string]error{"7203": errors.New("connection reset")}}
	_, err := NewPaginator(mock, 0, nil).Collect(context.Background(), "7203", june)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestPaginator_MaxPages(t *testing.T) {
	mock := &MockFetcher{Pages: map[string][]*Page{"7203": {page("T", true), page("T", true), page("T", true)}}}
	p := NewPaginator(mock, 0, nil)
	p.MaxPages = 2
	_, err := p.Collect(context.Background(), "7203", june)
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, 2, mock.Calls("7203"))
}

func TestPaginator_DelaySpacesFetches(t *testing.T) {
	mock := &MockFetcher{Pages: map[string][]*Page{"7203": {page("T", true), page("T", true), page("T", false)}}}
	started := time.Now()
	_, err := NewPaginator(mock, 20*time.Millisecond, nil).Collect(context.Background(), "7203", june)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 40*time.Millisecond)
}

// slowFetcher takes latency per page and logs when each fetch starts and ends.
type slowFetcher struct {
	*MockFetcher
	latency time.Duration

	mu     sync.Mutex
	starts []time.Time
	ends   []time.Time
}

func (f *slowFetcher) FetchPage(ctx context.Context, code string, w model.Window, n int) (*Page, error) {
	f.mu.Lock()
	f.starts = append(f.starts, time.Now())
	f.mu.Unlock()
	time.Sleep(f.latency)
	pg, err := f.MockFetcher.FetchPage(ctx, code, w, n)
	f.mu.Lock()
	f.ends = append(f.ends, time.Now())
	f.mu.Unlock()
	return pg, err
}

func TestPaginator_DelayFollowsSlowFetches(t *testing.T) {
	f := &slowFetcher{
		MockFetcher: &MockFetcher{Pages: map[string][]*Page{"7203": {page("T", true), page("T", true), page("T", false)}}},
		latency:     60 * time.Millisecond,
	}
	delay := 40 * time.Millisecond

	_, err := NewPaginator(f, delay, nil).Collect(context.Background(), "7203", june)
	require.NoError(t, err)

	require.Len(t, f.starts, 3)
	for i := 1; i < len(f.starts); i++ {
		gap := f.starts[i].Sub(f.ends[i-1])
		assert.GreaterOrEqual(t, gap, delay, "pause before page %d", i+1)
	}
}

func TestPaginator_NoPauseAfterLastPage(t *testing.T) {
	mock := &MockFetcher{Pages: map[string][]*Page{"7203": {page("T", false)}}}
	started := time.Now()
	_, err := NewPaginator(mock, time.Hour, nil).Collect(context.Background(), "7203", june)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)
}

func TestPaginator_CancelledContext(t *testing.T) {
	mock := &MockFetcher{Pages: map[string][]*Page{"7203": {page("T", true), page("T", false)}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPaginator(mock, time.Hour, nil).Collect(ctx, "7203", june)
	assert.Error(t, err)
}

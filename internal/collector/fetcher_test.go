package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func historyHTML(symbol string, next bool, rows ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table><tr><th class="symbol"><h1>` + symbol + `</h1></th></tr></table>`)
	b.WriteString(`<table class="boardFin"><tr><th>日付</th><th>始値</th><th>高値</th><th>安値</th><th>終値</th><th>出来高</th><th>調整後終値*</th></tr>`)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString(`</table><ul class="ymuiPagingBottom">`)
	b.WriteString(`<a href="?p=0">前へ</a>`)
	if next {
		b.WriteString(`<a href="?p=2">次へ</a>`)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func quoteRow(date string, close int) string {
	return fmt.Sprintf(`<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>1,000</td><td>%d</td></tr>`,
		date, close, close+10, close-10, close, close)
}

func TestParsePage(t *testing.T) {
	html := historyHTML("トヨタ自動車(株)", true,
		quoteRow("2023年6月2日", 2470),
		`<tr><td>2023年6月1日</td><td colspan="6">分割: 1株 -> 5株</td></tr>`,
	)
	p, err := ParsePage(strings.NewReader(html), DefaultMarkers)
	require.NoError(t, err)

	assert.True(t, p.HasNext)
	assert.Equal(t, "トヨタ自動車(株)", p.Symbol)
	require.Len(t, p.Rows, 3)
	assert.Equal(t, jpHeader, p.Rows[0])
	assert.Equal(t, []string{"2023年6月2日", "2470", "2480", "2460", "2470", "1,000", "2470"}, p.Rows[1])
	assert.Equal(t, []string{"2023年6月1日", "分割: 1株 -> 5株"}, p.Rows[2])

	recs, err := ExtractRows(p.Rows, DefaultSplitMarker)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestParsePage_LastPageAndMissingTable(t *testing.T) {
	p, err := ParsePage(strings.NewReader(historyHTML("X", false)), DefaultMarkers)
	require.NoError(t, err)
	assert.False(t, p.HasNext)
	assert.Len(t, p.Rows, 1)

	p, err = ParsePage(strings.NewReader(`<html><body>no data</body></html>`), DefaultMarkers)
	require.NoError(t, err)
	assert.Empty(t, p.Rows)
	assert.False(t, p.HasNext)
}

func TestYahooJPFetcher_FetchPage(t *testing.T) {
	var gotQuery map[string]string
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotQuery = map[string]string{}
		for k, v := range r.URL.Query() {
			gotQuery[k] = v[0]
		}
		fmt.Fprint(w, historyHTML("ソニーグループ(株)", false, quoteRow("2023年6月1日", 100)))
	}))
	defer srv.Close()

	f := NewYahooJPFetcher(srv.URL+"/history/", "", time.Second)
	w := model.Window{Start: model.NewDate(2023, time.May, 1), End: model.NewDate(2023, time.June, 9)}
	p, err := f.FetchPage(context.Background(), "6758", w, 2)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"code": "6758", "sy": "2023", "sm": "05", "sd": "01",
		"ey": "2023", "em": "06", "ed": "09", "tm": "d", "p": "2",
	}, gotQuery)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.False(t, p.HasNext)
	assert.Len(t, p.Rows, 2)
}

func TestYahooJPFetcher_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewYahooJPFetcher(srv.URL, "", time.Second)
	_, err := f.FetchPage(context.Background(), "7203", model.Window{}, 1)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestYahooJPFetcher_Defaults(t *testing.T) {
	f := NewYahooJPFetcher("", "http://127.0.0.1:8080", 0)
	assert.Equal(t, DefaultHistoryURL, f.BaseURL)
	assert.Equal(t, 30*time.Second, f.Client.Timeout)
	assert.Equal(t, "yahoojp", f.Name())
}

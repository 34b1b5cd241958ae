package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObservePage("yahoojp", 120*time.Millisecond)
	m.ObservePage("yahoojp", 80*time.Millisecond)
	m.TickerDone(true, 40)
	m.TickerDone(false, 0)
	m.Signal("BUY")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesTotal.WithLabelValues("yahoojp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues("failed")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.RowsScraped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("BUY")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePage("x", time.Second)
	m.TickerDone(true, 1)
	m.Signal("SELL")
	m.RunFinished("scrape", time.Now())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RunFinished("report", time.Unix(1700000000, 0))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sentinel_last_run_timestamp_seconds{job="report"} 1.7e+09`)
}

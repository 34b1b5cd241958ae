package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/config"
	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/pipeline"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/store"
)

func newTestRouter(t *testing.T, rec recorder.Recorder) (http.Handler, *config.Config) {
	cfg := &config.Config{Codes: []string{"7203"}}
	cfg.Store.Path = filepath.Join(t.TempDir(), "db.json")
	cfg.Report.Months = 6
	cfg.Indicators = calculator.DefaultParams()

	s := store.Store{}
	var recs []model.DatedRecord
	for i := 0; i < 40; i++ {
		c := decimal.NewFromInt(int64(100 + i%5))
		recs = append(recs, model.DatedRecord{
			Date:   model.NewDate(2023, time.May, 1).AddDays(i),
			Record: model.NewQuote(c, c, c, c, c, 1000),
		})
	}
	s.Merge(&model.Batch{Code: "7203", Name: "トヨタ自動車", Records: recs})
	require.NoError(t, s.Save(cfg.Store.Path))

	return NewRouter(pipeline.New(cfg, rec, metrics.New())), cfg
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rr := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestListTickers(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rr := get(t, h, "/tickers/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"code":"7203","name":"トヨタ自動車","days":40}]`, rr.Body.String())
}

func TestIndicators(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rr := get(t, h, "/tickers/7203/indicators?start=2023-05-01&end=2023-05-10")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Code  string
		Start string
		End   string
		Label string
		Rows  []map[string]any
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "7203", body.Code)
	assert.Equal(t, "2023-05-01", body.Start)
	assert.Equal(t, "2023-05-10", body.End)
	assert.Equal(t, "STAY", body.Label)
	require.Len(t, body.Rows, 10)
	assert.Equal(t, "2023-05-01", body.Rows[0]["date"])
	assert.Nil(t, body.Rows[0]["macd"])
	assert.Equal(t, 100.0, body.Rows[0]["adj_close"])
}

func TestIndicators_Errors(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/tickers/0000/indicators").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/tickers/7203/indicators?start=yesterday").Code)
}

func TestSignals(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.RecordSignal(&recorder.SignalEvent{
		RunID:  "r1",
		Code:   "7203",
		Row:    model.IndicatorRow{Date: model.NewDate(2023, time.June, 9), MACD: 5, Signal: 3, DSlow: 12},
		Close:  104,
		Signal: model.SignalBuy,
		At:     time.Now(),
	}))

	h, _ := newTestRouter(t, rec)
	rr := get(t, h, "/tickers/7203/signals?limit=5")
	require.Equal(t, http.StatusOK, rr.Code)

	var events []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "BUY", events[0]["label"])
	assert.Equal(t, "2023-06-09", events[0]["date"])

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/tickers/7203/signals?limit=x").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rr := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
}

// Package api serves the store and the indicator engine over HTTP.
package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"TrendSentinel/internal/model"
	"TrendSentinel/internal/pipeline"
	"TrendSentinel/internal/store"
)

// Server holds what the handlers read from.
type Server struct {
	Pipeline *pipeline.Pipeline
}

// NewRouter builds the HTTP routes. /metrics is mounted when the pipeline
// carries a metrics registry.
func NewRouter(p *pipeline.Pipeline) http.Handler {
	s := &Server{Pipeline: p}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	if p.Metrics != nil {
		r.Handle("/metrics", p.Metrics.Handler())
	}

	r.Route("/tickers", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/", s.listTickers)
		r.Get("/{code}/indicators", s.indicators)
		r.Get("/{code}/signals", s.signals)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

type tickerInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Days int    `json:"days"`
}

func (s *Server) listTickers(w http.ResponseWriter, r *http.Request) {
	st, err := store.Load(s.Pipeline.Cfg.Store.Path)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	out := make([]tickerInfo, 0, len(st))
	for _, code := range st.Codes() {
		out = append(out, tickerInfo{Code: code, Name: st.Name(code), Days: len(st[code].Data)})
	}
	render.JSON(w, r, out)
}

// indicatorRow mirrors one workbook table row. NaN values encode as null.
type indicatorRow struct {
	Date     string   `json:"date"`
	AdjClose float64  `json:"adj_close"`
	EMAShort *float64 `json:"ema_short"`
	EMALong  *float64 `json:"ema_long"`
	MACD     *float64 `json:"macd"`
	Signal   *float64 `json:"signal"`
	D        *float64 `json:"d"`
	DSlow    *float64 `json:"d_slow"`
}

type indicatorsResponse struct {
	Code   string         `json:"code"`
	Name   string         `json:"name"`
	Start  string         `json:"start"`
	End    string         `json:"end"`
	Signal model.Signal   `json:"label"`
	Rows   []indicatorRow `json:"rows"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func dateParam(r *http.Request, key string) (model.Date, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return model.Date{}, nil
	}
	return model.ParseDate(v)
}

func (s *Server) indicators(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	start, err := dateParam(r, "start")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	end, err := dateParam(r, "end")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	rep, err := s.Pipeline.Indicators(code, start, end)
	switch {
	case errors.Is(err, store.ErrTickerNotFound):
		writeError(w, r, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	out := indicatorsResponse{
		Code:   rep.Code,
		Name:   rep.Name,
		Start:  rep.Window.Start.String(),
		End:    rep.Window.End.String(),
		Signal: rep.Signal,
		Rows:   make([]indicatorRow, len(rep.Rows)),
	}
	for i, row := range rep.Rows {
		out.Rows[i] = indicatorRow{
			Date:     row.Date.String(),
			AdjClose: rep.Points[i].AdjClose,
			EMAShort: nullable(rep.EMAShort[i]),
			EMALong:  nullable(rep.EMALong[i]),
			MACD:     nullable(row.MACD),
			Signal:   nullable(row.Signal),
			D:        nullable(row.D),
			DSlow:    nullable(row.DSlow),
		}
	}
	render.JSON(w, r, out)
}

type signalEvent struct {
	RunID  string       `json:"run_id"`
	Date   string       `json:"date"`
	Close  float64      `json:"close"`
	MACD   *float64     `json:"macd"`
	Signal *float64     `json:"signal"`
	DSlow  *float64     `json:"d_slow"`
	Label  model.Signal `json:"label"`
	At     time.Time    `json:"recorded_at"`
}

func (s *Server) signals(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	events, err := s.Pipeline.Recorder.Signals(code, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	out := make([]signalEvent, 0, len(events))
	for _, e := range events {
		out = append(out, signalEvent{
			RunID:  e.RunID,
			Date:   e.Row.Date.String(),
			Close:  e.Close,
			MACD:   nullable(e.Row.MACD),
			Signal: nullable(e.Row.Signal),
			DSlow:  nullable(e.Row.DSlow),
			Label:  e.Signal,
			At:     e.At,
		})
	}
	render.JSON(w, r, out)
}

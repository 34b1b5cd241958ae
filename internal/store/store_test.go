package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func quote(close int64) model.PriceRecord {
	c := decimal.NewFromInt(close)
	return model.NewQuote(c, c, c, c, c, close*100)
}

func day(d int) model.Date { return model.NewDate(2023, time.June, d) }

func TestMerge_UpsertsAndRenames(t *testing.T) {
	s := Store{}
	s.Merge(&model.Batch{Code: "7203", Name: "Toyota", Records: []model.DatedRecord{
		{Date: day(1), Record: quote(100)},
	}})

	s.Merge(&model.Batch{Code: "7203", Name: "トヨタ自動車", Records: []model.DatedRecord{
		{Date: day(1), Record: quote(101)},
		{Date: day(2), Record: quote(102)},
	}})

	tk := s["7203"]
	require.NotNil(t, tk)
	assert.Equal(t, "トヨタ自動車", tk.Name)
	require.Len(t, tk.Data, 2)
	assert.True(t, tk.Data[day(1)].Equal(quote(101)))
	assert.True(t, tk.Data[day(2)].Equal(quote(102)))
}

func TestMerge_IncrementalScrape(t *testing.T) {
	jan := func(d int) model.Date { return model.NewDate(2023, time.January, d) }
	s := Store{}
	s.Merge(&model.Batch{Code: "7203", Name: "トヨタ自動車", Records: []model.DatedRecord{
		{Date: jan(1), Record: quote(100)},
		{Date: jan(2), Record: quote(101)},
		{Date: jan(3), Record: quote(102)},
	}})

	s.Merge(&model.Batch{Code: "7203", Name: "トヨタ自動車", Records: []model.DatedRecord{
		{Date: jan(3), Record: quote(150)},
		{Date: jan(4), Record: quote(103)},
	}})

	data := s["7203"].Data
	assert.Len(t, data, 4)
	assert.True(t, data[jan(1)].Equal(quote(100)))
	assert.True(t, data[jan(2)].Equal(quote(101)))
	assert.True(t, data[jan(3)].Equal(quote(150)))
	assert.True(t, data[jan(4)].Equal(quote(103)))
}

func TestMerge_LastRowForDateWins(t *testing.T) {
	s := Store{}
	s.Merge(&model.Batch{Code: "7203", Records: []model.DatedRecord{
		{Date: day(1), Record: quote(1)},
		{Date: day(1), Record: quote(2)},
	}})
	assert.True(t, s["7203"].Data[day(1)].Equal(quote(2)))
}

func TestMerge_Idempotent(t *testing.T) {
	b := &model.Batch{Code: "6758", Name: "ソニーグループ", Records: []model.DatedRecord{
		{Date: day(1), Record: quote(10)},
		{Date: day(2), Record: model.NewSplit("1株 -> 5株")},
		{Date: day(5), Record: quote(12)},
	}}
	s := Store{}
	s.Merge(b)
	once, err := json.Marshal(s)
	require.NoError(t, err)

	s.Merge(b)
	twice, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(once), string(twice))
}

func TestMerge_KeepsOtherTickers(t *testing.T) {
	s := Store{"9984": model.NewTicker("ソフトバンクグループ")}
	s["9984"].Data.Upsert(day(1), quote(5))

	s.Merge(&model.Batch{Code: "7203", Name: "トヨタ自動車"})
	assert.Len(t, s, 2)
	assert.Len(t, s["9984"].Data, 1)
	assert.Empty(t, s["7203"].Data)
}

func TestWindow(t *testing.T) {
	s := Store{}
	s.Merge(&model.Batch{Code: "7203", Records: []model.DatedRecord{
		{Date: day(1), Record: quote(1)},
		{Date: day(2), Record: quote(2)},
		{Date: day(5), Record: model.NewSplit("")},
		{Date: day(6), Record: quote(6)},
	}})

	w, err := s.Window("7203", day(2), day(5))
	require.NoError(t, err)
	assert.Len(t, w, 2)
	assert.Contains(t, w, day(2))
	assert.Contains(t, w, day(5))

	ord := w.Ordered()
	require.Len(t, ord, 1)
	assert.Equal(t, day(2), ord[0].Date)

	empty, err := s.Window("7203", day(20), day(30))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWindow_UnknownTicker(t *testing.T) {
	_, err := Store{}.Window("0000", day(1), day(2))
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")
	s := Store{}
	s.Merge(&model.Batch{Code: "7203", Name: "トヨタ自動車", Records: []model.DatedRecord{
		{Date: day(1), Record: quote(100)},
		{Date: day(2), Record: model.NewSplit("1株 -> 3株")},
	}})
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"7203"}, loaded.Codes())
	assert.Equal(t, "トヨタ自動車", loaded.Name("7203"))
	assert.True(t, loaded["7203"].Data[day(1)].Equal(quote(100)))
	assert.Equal(t, model.KindSplit, loaded["7203"].Data[day(2)].Kind)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.json")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = LoadExisting(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_LegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	legacy := `{"7203":{"name":"トヨタ","data":{
		"2023-06-01":{"start":1,"end":2,"low":1,"high":2,"end_adj":2,"volumn":100},
		"2023-06-02":{"start":"-","end":"-","low":"-","high":"-","end_adj":"-","volumn":"-"}}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	w, err := s.Window("7203", day(1), day(30))
	require.NoError(t, err)
	assert.Len(t, w, 2)
	assert.Len(t, w.Ordered(), 1)
}

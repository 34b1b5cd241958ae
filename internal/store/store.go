// Package store keeps the per-ticker price history in one JSON file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"TrendSentinel/internal/model"
)

// ErrTickerNotFound is returned when a code has never been scraped.
var ErrTickerNotFound = errors.New("ticker not found")

// Store maps stock codes to their history. It is loaded whole and saved
// whole; only one process may write it at a time.
type Store map[string]*model.Ticker

// Load reads the store file. A missing file is an empty store.
func Load(path string) (Store, error) {
	s, err := LoadExisting(path)
	if errors.Is(err, os.ErrNotExist) {
		return Store{}, nil
	}
	return s, err
}

// LoadExisting reads the store file and fails if it does not exist.
func LoadExisting(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	s := Store{}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", path, err)
	}
	for code, t := range s {
		if t == nil {
			s[code] = model.NewTicker("")
			continue
		}
		if t.Data == nil {
			t.Data = model.Series{}
		}
	}
	return s, nil
}

// Save writes the store to a temp file next to path and renames it into
// place, so a crash never leaves a half-written store.
func (s Store) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

// Merge folds a scrape batch into the store. Records are upserted by date in
// batch order, so a later row for the same date wins. The display name is
// always replaced with the batch's.
func (s Store) Merge(b *model.Batch) {
	t, ok := s[b.Code]
	if !ok {
		t = model.NewTicker(b.Name)
		s[b.Code] = t
	}
	t.Name = b.Name
	for _, dr := range b.Records {
		t.Data.Upsert(dr.Date, dr.Record)
	}
}

// Window returns the records of code dated within [start, end].
func (s Store) Window(code string, start, end model.Date) (model.Series, error) {
	t, ok := s[code]
	if !ok {
		return nil, fmt.Errorf("%s: %w", code, ErrTickerNotFound)
	}
	w := model.Window{Start: start, End: end}
	out := model.Series{}
	for d, rec := range t.Data {
		if w.Contains(d) {
			out[d] = rec
		}
	}
	return out, nil
}

// Name returns the display name of code, or "" if unknown.
func (s Store) Name(code string) string {
	if t, ok := s[code]; ok {
		return t.Name
	}
	return ""
}

// Codes lists the stored codes in ascending order.
func (s Store) Codes() []string {
	codes := make([]string, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

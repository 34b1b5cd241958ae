package model

import (
	"fmt"
	"time"
)

// DateLayout is the canonical text form of a trading date.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component. It is comparable and is
// used as the key of a Series.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalises y/m/d through time.Date, so NewDate(2023, 2, 30) is 2023-03-02.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf drops the clock part of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current local date.
func Today() Date { return DateOf(time.Now()) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

// AddDays shifts d by n calendar days.
func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

// AddMonths shifts d by n months, clamping the day to the last day of the
// target month (2023-03-31 minus one month is 2023-02-28).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day
	if day > last {
		day = last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Window is an inclusive date range.
type Window struct {
	Start Date
	End   Date
}

// Contains reports whether d lies in [Start, End].
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// ResolveWindow fills in a missing end (today) and a missing start
// (end minus months) the way the command-line tools default them.
func ResolveWindow(start, end Date, months int) Window {
	if end.IsZero() {
		end = Today()
	}
	if start.IsZero() {
		start = end.AddMonths(-months)
	}
	return Window{Start: start, End: end}
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}

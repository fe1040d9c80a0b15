// Package schedule computes due dates for recurring transactions.
//
// All dates are civil dates represented as time.Time at midnight UTC. Month and
// year increments clamp to the last day of the target month, so a schedule
// anchored on the 31st lands on the 30th (or the 28th/29th in February) and
// returns to the 31st in longer months.
package schedule

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for civil dates.
const DateLayout = "2006-01-02"

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

var ErrUnknownFrequency = errors.New("unknown frequency")

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// ParseFrequency normalizes user input into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", ErrUnknownFrequency
	}
	return f, nil
}

// NextDueDate returns the occurrence that follows current.
func NextDueDate(freq Frequency, current time.Time) (time.Time, error) {
	return NextAfter(freq, current, current)
}

// NextAfter returns the occurrence that follows current for a schedule whose
// day-of-month is taken from anchor. The result is always strictly after current.
func NextAfter(freq Frequency, anchor, current time.Time) (time.Time, error) {
	d := Truncate(current)
	switch freq {
	case Daily:
		return d.AddDate(0, 0, 1), nil
	case Weekly:
		return d.AddDate(0, 0, 7), nil
	case Monthly:
		return clampDate(d.Year(), d.Month()+1, anchor.Day()), nil
	case Yearly:
		return clampDate(d.Year()+1, d.Month(), anchor.Day()), nil
	default:
		return time.Time{}, ErrUnknownFrequency
	}
}

// Upcoming lists up to count occurrences starting at first (inclusive). Dates
// after until are dropped when until is non-nil.
func Upcoming(freq Frequency, anchor, first time.Time, count int, until *time.Time) ([]time.Time, error) {
	if !freq.Valid() {
		return nil, ErrUnknownFrequency
	}
	out := make([]time.Time, 0, count)
	d := Truncate(first)
	for len(out) < count {
		if until != nil && d.After(Truncate(*until)) {
			break
		}
		out = append(out, d)
		next, err := NextAfter(freq, anchor, d)
		if err != nil {
			return nil, err
		}
		d = next
	}
	return out, nil
}

// Truncate drops the clock part of t, keeping its calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current civil date in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Truncate(now.In(loc))
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// clampDate builds year/month/day, pulling day back to the month's last day
// when the month is shorter. month may overflow 12.
func clampDate(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

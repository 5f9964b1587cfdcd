package entity

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

var ErrInvalidDateRange = errors.New("check-out must be after check-in")

// DateRange is a stay of whole nights. CheckOut is exclusive: a unit vacated
// on day D can be taken by a new guest arriving on day D.
type DateRange struct {
	CheckIn  time.Time `db:"check_in"`
	CheckOut time.Time `db:"check_out"`
}

// Date truncates t to its calendar date, expressed as UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: Date(checkIn), CheckOut: Date(checkOut)}
	if !r.CheckOut.After(r.CheckIn) {
		return DateRange{}, fmt.Errorf("%w: %s", ErrInvalidDateRange, r)
	}
	return r, nil
}

// ParseDateRange builds a DateRange from two YYYY-MM-DD strings.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}
	return NewDateRange(in, out)
}

// Nights counts calendar days between check-in and check-out. Both ends are
// UTC midnights so the difference is always a whole number of days.
func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn) / day)
}

// Overlaps reports whether two half-open ranges share at least one night.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// Nightly returns the date of every night in the range, check-out excluded.
func (r DateRange) Nightly() []time.Time {
	days := make([]time.Time, 0, r.Nights())
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.Add(day) {
		days = append(days, d)
	}
	return days
}

// Intersect returns the nights shared by both ranges.
func (r DateRange) Intersect(other DateRange) (DateRange, bool) {
	if !r.Overlaps(other) {
		return DateRange{}, false
	}
	out := DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
	if other.CheckIn.After(out.CheckIn) {
		out.CheckIn = other.CheckIn
	}
	if other.CheckOut.Before(out.CheckOut) {
		out.CheckOut = other.CheckOut
	}
	return out, true
}

func (r DateRange) String() string {
	return r.CheckIn.Format(DateLayout) + ".." + r.CheckOut.Format(DateLayout)
}

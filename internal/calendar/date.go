// Package calendar turns a flat reservation list into the day buckets, week
// window, date marks and filtered lists that a calendar screen renders.
//
// Everything here is a pure function of its inputs. Nothing is cached and
// nothing is shared between calls, so callers may invoke it on every refresh.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Date is a civil calendar date with no time-of-day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today is the calendar date of now in loc (UTC when loc is nil).
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// noon anchors arithmetic away from midnight so DST never shifts the day.
func (d Date) noon() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date { return DateOf(d.noon().AddDate(0, 0, n)) }

func (d Date) Weekday() time.Weekday { return d.noon().Weekday() }

// DaysUntil is the signed number of days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.noon().Sub(d.noon()) / (24 * time.Hour))
}

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// timestampLayouts are tried in order. Fractional seconds are accepted by
// time.Parse even when a layout omits them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dayLayout,
}

// ParseTimestamp returns the calendar date written in an ISO-8601 timestamp.
// The offset is honoured as written and time-of-day is dropped, so
// "2024-06-10T23:30:00-03:00" is 2024-06-10 regardless of the server zone.
func ParseTimestamp(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty timestamp")
	}
	var first error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return DateOf(t), nil
		}
		if first == nil {
			first = err
		}
	}
	return Date{}, first
}

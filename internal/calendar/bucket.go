package calendar

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"condo_calendar/internal/domain"
)

// Skip reasons.
const (
	ReasonInvalidCheckIn  = "invalid_checkin"
	ReasonInvalidCheckOut = "invalid_checkout"
	ReasonCheckOutBefore  = "checkout_before_checkin"
)

// Entry is one reservation inside a day bucket, with its parsed stay dates.
type Entry struct {
	Reservation *domain.Reservation `json:"reservation"`
	CheckIn     Date                `json:"check_in_date"`
	CheckOut    Date                `json:"check_out_date"`
}

// Skip records a reservation left out of the index.
type Skip struct {
	ReservationID string
	Reason        string
	Err           error
}

// DayIndex maps each calendar date to the reservations touching it.
// Within a date, entries keep the order of the input slice.
type DayIndex struct {
	Days    map[Date][]Entry
	Skipped []Skip
}

// BuildDayIndex buckets every reservation under each date from its check-in
// date to its check-out date, inclusive, however long the stay. Records whose
// dates cannot be used are skipped and reported in Skipped; they never abort
// the build.
//
// Entries point into rs; the caller must not reorder rs while the index is in use.
func BuildDayIndex(rs []domain.Reservation) DayIndex {
	idx := DayIndex{Days: make(map[Date][]Entry)}
	for i := range rs {
		r := &rs[i]
		in, out, skip := stay(r)
		if skip != nil {
			log.Warn().
				Str("reservation_id", skip.ReservationID).
				Str("reason", skip.Reason).
				Err(skip.Err).
				Msg("reservation left off calendar")
			idx.Skipped = append(idx.Skipped, *skip)
			continue
		}
		e := Entry{Reservation: r, CheckIn: in, CheckOut: out}
		for d := in; !d.After(out); d = d.AddDays(1) {
			idx.Days[d] = append(idx.Days[d], e)
		}
	}
	return idx
}

func stay(r *domain.Reservation) (Date, Date, *Skip) {
	in, err := ParseTimestamp(r.CheckIn)
	if err != nil {
		return Date{}, Date{}, &Skip{ReservationID: r.ID, Reason: ReasonInvalidCheckIn, Err: err}
	}
	out, err := ParseTimestamp(r.CheckOut)
	if err != nil {
		return Date{}, Date{}, &Skip{ReservationID: r.ID, Reason: ReasonInvalidCheckOut, Err: err}
	}
	if in.DaysUntil(out) < 0 {
		return Date{}, Date{}, &Skip{ReservationID: r.ID, Reason: ReasonCheckOutBefore,
			Err: fmt.Errorf("check-out %s is before check-in %s", out, in)}
	}
	return in, out, nil
}

// On returns the bucket for d, nil when empty.
func (x DayIndex) On(d Date) []Entry { return x.Days[d] }

// SortedDates returns the keys of a date-keyed map in ascending order.
func SortedDates[V any](m map[Date]V) []Date {
	out := make([]Date, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

package calendar

// ReservationView is a bucket entry annotated with the day it is listed under.
type ReservationView struct {
	Entry
	Date Date `json:"date"`
}

// SelectReservations lists the selected day's reservations, or the whole week
// when nothing is selected. A stay crossing several days of the week is listed
// once per day. Days ascend; within a day the input order is kept.
func SelectReservations(idx DayIndex, week WeekWindow, selected *Date) []ReservationView {
	if selected != nil {
		return annotate(nil, idx.On(*selected), *selected)
	}
	var out []ReservationView
	for _, d := range week.Days {
		out = annotate(out, idx.On(d), d)
	}
	return out
}

func annotate(out []ReservationView, entries []Entry, d Date) []ReservationView {
	if out == nil {
		out = make([]ReservationView, 0, len(entries))
	}
	for _, e := range entries {
		out = append(out, ReservationView{Entry: e, Date: d})
	}
	return out
}

// Toggle applies a tap on a calendar day: tapping the selected day clears the
// selection and brings the week view back.
func Toggle(current *Date, tapped Date) *Date {
	if current != nil && *current == tapped {
		return nil
	}
	return &tapped
}

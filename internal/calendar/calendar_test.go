package calendar_test

import (
	"reflect"
	"testing"
	"time"

	"condo_calendar/internal/calendar"
	"condo_calendar/internal/domain"
)

func day(s string) calendar.Date {
	d, err := calendar.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func inWeek(w calendar.WeekWindow, d calendar.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func ids(entries []calendar.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Reservation.ID)
	}
	return out
}

func TestBuildDayIndex_MultiNightInclusive(t *testing.T) {
	rs := []domain.Reservation{{ID: "1", CheckIn: "2024-06-10", CheckOut: "2024-06-12"}}
	idx := calendar.BuildDayIndex(rs)

	want := map[string][]string{
		"2024-06-10": {"1"},
		"2024-06-11": {"1"},
		"2024-06-12": {"1"},
	}
	if len(idx.Days) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(idx.Days))
	}
	for k, v := range want {
		if got := ids(idx.On(day(k))); !reflect.DeepEqual(got, v) {
			t.Fatalf("bucket %s: got %v want %v", k, got, v)
		}
	}
}

func TestBuildDayIndex_SingleDay(t *testing.T) {
	rs := []domain.Reservation{{ID: "a", CheckIn: "2024-06-10T14:00:00Z", CheckOut: "2024-06-10T18:00:00Z"}}
	idx := calendar.BuildDayIndex(rs)
	if len(idx.Days) != 1 || len(idx.On(day("2024-06-10"))) != 1 {
		t.Fatalf("expected exactly one bucket on 2024-06-10, got %v", calendar.SortedDates(idx.Days))
	}
}

func TestBuildDayIndex_ContiguousNights(t *testing.T) {
	rs := []domain.Reservation{{ID: "x", CheckIn: "2024-02-27T15:00:00-03:00", CheckOut: "2024-03-02T11:00:00-03:00"}}
	idx := calendar.BuildDayIndex(rs)
	dates := calendar.SortedDates(idx.Days)
	if len(dates) != 5 { // 4 nights, leap day included
		t.Fatalf("expected 5 buckets, got %d: %v", len(dates), dates)
	}
	for i := 1; i < len(dates); i++ {
		if dates[i-1].AddDays(1) != dates[i] {
			t.Fatalf("buckets not contiguous: %v", dates)
		}
	}
	if dates[0] != day("2024-02-27") || dates[4] != day("2024-03-02") {
		t.Fatalf("unexpected range %v..%v", dates[0], dates[4])
	}
}

func TestBuildDayIndex_DateAsWritten(t *testing.T) {
	// late evening with a negative offset is still that day, not the UTC day after
	rs := []domain.Reservation{{ID: "n", CheckIn: "2024-06-10T23:30:00-03:00", CheckOut: "2024-06-10T23:45:00-03:00"}}
	idx := calendar.BuildDayIndex(rs)
	if len(idx.On(day("2024-06-10"))) != 1 {
		t.Fatalf("expected bucket on 2024-06-10, got %v", calendar.SortedDates(idx.Days))
	}
}

func TestBuildDayIndex_InputOrderWithinDay(t *testing.T) {
	rs := []domain.Reservation{
		{ID: "c", CheckIn: "2024-06-11", CheckOut: "2024-06-11"},
		{ID: "a", CheckIn: "2024-06-10", CheckOut: "2024-06-12"},
		{ID: "b", CheckIn: "2024-06-11T09:00:00", CheckOut: "2024-06-13T10:00"},
	}
	idx := calendar.BuildDayIndex(rs)
	if got := ids(idx.On(day("2024-06-11"))); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestBuildDayIndex_MalformedSkipped(t *testing.T) {
	rs := []domain.Reservation{
		{ID: "bad-in", CheckIn: "not-a-date", CheckOut: "2024-06-12"},
		{ID: "bad-out", CheckIn: "2024-06-10", CheckOut: ""},
		{ID: "reversed", CheckIn: "2024-06-12", CheckOut: "2024-06-10"},
		{ID: "ok", CheckIn: "2024-06-10", CheckOut: "2024-06-10"},
	}
	idx := calendar.BuildDayIndex(rs)

	for _, d := range calendar.SortedDates(idx.Days) {
		for _, id := range ids(idx.On(d)) {
			if id != "ok" {
				t.Fatalf("malformed reservation %s indexed on %s", id, d)
			}
		}
	}
	reasons := map[string]string{}
	for _, s := range idx.Skipped {
		reasons[s.ReservationID] = s.Reason
		if s.Err == nil {
			t.Fatalf("skip %s has no error", s.ReservationID)
		}
	}
	want := map[string]string{
		"bad-in":   calendar.ReasonInvalidCheckIn,
		"bad-out":  calendar.ReasonInvalidCheckOut,
		"reversed": calendar.ReasonCheckOutBefore,
	}
	if !reflect.DeepEqual(reasons, want) {
		t.Fatalf("skips: got %v want %v", reasons, want)
	}
}

func TestBuildDayIndex_LongStayFullyIndexed(t *testing.T) {
	// residential stays run past a year and must not be dropped
	rs := []domain.Reservation{{ID: "long", CheckIn: "2024-01-01", CheckOut: "2025-02-04"}}
	idx := calendar.BuildDayIndex(rs)
	if len(idx.Skipped) != 0 {
		t.Fatalf("long stay skipped: %+v", idx.Skipped)
	}
	dates := calendar.SortedDates(idx.Days)
	if len(dates) != 401 {
		t.Fatalf("expected 401 buckets, got %d", len(dates))
	}
	for i, d := range dates {
		if d != day("2024-01-01").AddDays(i) {
			t.Fatalf("bucket %d = %s, not contiguous", i, d)
		}
		if got := ids(idx.On(d)); !reflect.DeepEqual(got, []string{"long"}) {
			t.Fatalf("bucket %s: %v", d, got)
		}
	}
	if dates[400] != day("2025-02-04") {
		t.Fatalf("last bucket %s", dates[400])
	}
}

func TestWeekOf(t *testing.T) {
	cases := []struct {
		today, start, end string
	}{
		{"2024-06-12", "2024-06-09", "2024-06-15"}, // wednesday
		{"2024-06-09", "2024-06-09", "2024-06-15"}, // sunday is its own start
		{"2024-06-15", "2024-06-09", "2024-06-15"}, // saturday
		{"2024-01-02", "2023-12-31", "2024-01-06"}, // across the year
	}
	for _, tc := range cases {
		w := calendar.WeekOf(day(tc.today))
		if w.Start != day(tc.start) || w.End != day(tc.end) {
			t.Fatalf("%s: got %s..%s want %s..%s", tc.today, w.Start, w.End, tc.start, tc.end)
		}
		if w.Start.Weekday() != time.Sunday {
			t.Fatalf("%s: start %s is a %s", tc.today, w.Start, w.Start.Weekday())
		}
		seen := map[calendar.Date]bool{}
		for i, d := range w.Days {
			if seen[d] {
				t.Fatalf("duplicate day %s", d)
			}
			seen[d] = true
			if d != w.Start.AddDays(i) {
				t.Fatalf("day %d = %s, want %s", i, d, w.Start.AddDays(i))
			}
		}
		if w.Days[6] != w.End || !inWeek(w, day(tc.today)) {
			t.Fatalf("%s: window %+v does not end at End or miss today", tc.today, w)
		}
	}
}

func TestSelectReservations_Week(t *testing.T) {
	rs := []domain.Reservation{
		{ID: "1", CheckIn: "2024-06-08", CheckOut: "2024-06-10"}, // starts the week before
		{ID: "2", CheckIn: "2024-06-12", CheckOut: "2024-06-12"},
		{ID: "3", CheckIn: "2024-06-20", CheckOut: "2024-06-21"}, // next week
	}
	idx := calendar.BuildDayIndex(rs)
	week := calendar.WeekOf(day("2024-06-12"))

	got := calendar.SelectReservations(idx, week, nil)
	type row struct{ id, date string }
	var rows []row
	for _, v := range got {
		if !inWeek(week, v.Date) {
			t.Fatalf("view date %s outside week", v.Date)
		}
		rows = append(rows, row{v.Reservation.ID, v.Date.String()})
	}
	want := []row{{"1", "2024-06-09"}, {"1", "2024-06-10"}, {"2", "2024-06-12"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v want %v", rows, want)
	}
}

func TestSelectReservations_Day(t *testing.T) {
	rs := []domain.Reservation{
		{ID: "1", CheckIn: "2024-06-10", CheckOut: "2024-06-12"},
		{ID: "2", CheckIn: "2024-06-11", CheckOut: "2024-06-11"},
	}
	idx := calendar.BuildDayIndex(rs)
	week := calendar.WeekOf(day("2024-06-12"))

	sel := day("2024-06-11")
	got := calendar.SelectReservations(idx, week, &sel)
	if len(got) != 2 {
		t.Fatalf("expected 2 views, got %d", len(got))
	}
	for _, v := range got {
		if v.Date != sel {
			t.Fatalf("view date %s, want %s", v.Date, sel)
		}
	}

	empty := day("2025-01-01")
	if got := calendar.SelectReservations(idx, week, &empty); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestProjectMarks_CategoriesAndSelection(t *testing.T) {
	rs := []domain.Reservation{
		{ID: "past", CheckIn: "2024-06-01", CheckOut: "2024-06-03"},
		{ID: "now", CheckIn: "2024-06-03", CheckOut: "2024-06-06"},
		{ID: "later", CheckIn: "2024-06-06", CheckOut: "2024-06-07"},
	}
	idx := calendar.BuildDayIndex(rs)
	today := day("2024-06-04")

	marks := calendar.ProjectMarks(idx, nil, today)
	want := map[string]calendar.Category{
		"2024-06-01": calendar.CategoryPast,
		"2024-06-03": calendar.CategoryCurrent, // past + current
		"2024-06-06": calendar.CategoryCurrent, // current + future
		"2024-06-07": calendar.CategoryFuture,
	}
	for k, c := range want {
		m, ok := marks[day(k)]
		if !ok || !m.HasReservation {
			t.Fatalf("%s not marked", k)
		}
		if m.Category != c {
			t.Fatalf("%s: got %s want %s", k, m.Category, c)
		}
		if m.DotColor != calendar.DefaultPalette[c] {
			t.Fatalf("%s: dot color %q", k, m.DotColor)
		}
		if m.Selected {
			t.Fatalf("%s selected without a selection", k)
		}
	}

	sel := day("2024-06-06")
	marks = calendar.ProjectMarks(idx, &sel, today)
	if m := marks[sel]; !m.Selected || !m.HasReservation || m.SelectedColor != calendar.DefaultSelectedColor {
		t.Fatalf("selected overlay lost: %+v", m)
	}

	blank := day("2024-07-01")
	marks = calendar.ProjectMarks(idx, &blank, today)
	if m, ok := marks[blank]; !ok || !m.Selected || m.HasReservation {
		t.Fatalf("selected empty day: %+v ok=%v", m, ok)
	}
}

func TestProjector_CustomPolicy(t *testing.T) {
	rs := []domain.Reservation{
		{ID: "past", CheckIn: "2024-06-01", CheckOut: "2024-06-03"},
		{ID: "now", CheckIn: "2024-06-03", CheckOut: "2024-06-06"},
	}
	idx := calendar.BuildDayIndex(rs)
	p := calendar.Projector{
		Policy:  calendar.Policy{calendar.CategoryPast},
		Palette: calendar.Palette{calendar.CategoryPast: "red"},
	}
	marks := p.Project(idx, nil, day("2024-06-04"))
	if m := marks[day("2024-06-03")]; m.Category != calendar.CategoryPast || m.DotColor != "red" {
		t.Fatalf("policy not applied: %+v", m)
	}
	// categories missing from a partial policy fall back to the default order
	if m := marks[day("2024-06-05")]; m.Category != calendar.CategoryCurrent {
		t.Fatalf("fallback not applied: %+v", m)
	}
}

func TestIdempotent(t *testing.T) {
	rs := []domain.Reservation{
		{ID: "1", CheckIn: "2024-06-10", CheckOut: "2024-06-12"},
		{ID: "2", CheckIn: "bogus", CheckOut: "2024-06-12"},
		{ID: "3", CheckIn: "2024-06-11T08:00:00Z", CheckOut: "2024-06-14T08:00:00Z"},
	}
	today := day("2024-06-12")
	sel := day("2024-06-11")

	a, b := calendar.BuildDayIndex(rs), calendar.BuildDayIndex(rs)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("BuildDayIndex not idempotent")
	}
	if !reflect.DeepEqual(calendar.WeekOf(today), calendar.WeekOf(today)) {
		t.Fatalf("WeekOf not idempotent")
	}
	w := calendar.WeekOf(today)
	if !reflect.DeepEqual(calendar.SelectReservations(a, w, nil), calendar.SelectReservations(b, w, nil)) {
		t.Fatalf("SelectReservations not idempotent")
	}
	if !reflect.DeepEqual(calendar.ProjectMarks(a, &sel, today), calendar.ProjectMarks(b, &sel, today)) {
		t.Fatalf("ProjectMarks not idempotent")
	}
}

func TestToggle(t *testing.T) {
	d := day("2024-06-11")
	sel := calendar.Toggle(nil, d)
	if sel == nil || *sel != d {
		t.Fatalf("expected selection of %s", d)
	}
	if calendar.Toggle(sel, d) != nil {
		t.Fatalf("tapping the selected day must clear it")
	}
	other := day("2024-06-12")
	if got := calendar.Toggle(sel, other); got == nil || *got != other {
		t.Fatalf("expected selection to move to %s", other)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := map[string]string{
		"2024-06-10":                    "2024-06-10",
		"2024-06-10T14:00:00Z":          "2024-06-10",
		"2024-06-10T14:00:00.123456Z":   "2024-06-10",
		"2024-06-10T01:00:00+09:00":     "2024-06-10",
		"2024-06-10T14:00:00+0300":      "2024-06-10",
		"2024-06-10T23:30:00-0300":      "2024-06-10",
		"2024-06-10T14:00:00":           "2024-06-10",
		"2024-06-10T14:00":              "2024-06-10",
		" 2024-06-10 14:00:00 ":         "2024-06-10",
		"2024-12-31T23:59:59.999-03:00": "2024-12-31",
	}
	for in, want := range cases {
		got, err := calendar.ParseTimestamp(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got.String() != want {
			t.Fatalf("%q: got %s want %s", in, got, want)
		}
	}
	for _, bad := range []string{"", "not-a-date", "10/06/2024", "2024-13-01"} {
		if _, err := calendar.ParseTimestamp(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := calendar.ParsePolicy(" future, past ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(p, calendar.Policy{calendar.CategoryFuture, calendar.CategoryPast}) {
		t.Fatalf("policy %v", p)
	}
	if p, err := calendar.ParsePolicy(""); err != nil || p != nil {
		t.Fatalf("empty policy: %v %v", p, err)
	}
	for _, bad := range []string{"soon", "past,past"} {
		if _, err := calendar.ParsePolicy(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

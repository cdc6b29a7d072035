package calendar

// WeekWindow is the Sunday-to-Saturday week containing a given day.
type WeekWindow struct {
	Start Date    `json:"start"`
	End   Date    `json:"end"`
	Days  [7]Date `json:"days"`
}

func WeekOf(today Date) WeekWindow {
	start := today.AddDays(-int(today.Weekday()))
	w := WeekWindow{Start: start, End: start.AddDays(6)}
	for i := range w.Days {
		w.Days[i] = start.AddDays(i)
	}
	return w
}

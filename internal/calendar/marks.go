package calendar

import (
	"fmt"
	"strings"
)

// Category says where a stay sits relative to today.
type Category int

const (
	CategoryNone Category = iota
	CategoryPast
	CategoryCurrent
	CategoryFuture
)

func (c Category) String() string {
	switch c {
	case CategoryPast:
		return "past"
	case CategoryCurrent:
		return "current"
	case CategoryFuture:
		return "future"
	}
	return ""
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	switch string(b) {
	case "":
		*c = CategoryNone
	case "past":
		*c = CategoryPast
	case "current":
		*c = CategoryCurrent
	case "future":
		*c = CategoryFuture
	default:
		return fmt.Errorf("unknown category %q", b)
	}
	return nil
}

// Classify compares a stay against today at day granularity.
func Classify(e Entry, today Date) Category {
	switch {
	case e.CheckOut.Before(today):
		return CategoryPast
	case !today.Before(e.CheckIn):
		return CategoryCurrent
	default:
		return CategoryFuture
	}
}

// Policy lists categories in order of preference. When a day holds stays of
// several categories the first one listed wins.
type Policy []Category

var DefaultPolicy = Policy{CategoryCurrent, CategoryFuture, CategoryPast}

// ParsePolicy reads a comma separated category list such as
// "future,current,past". An empty string yields a nil Policy, which projects
// with DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	var p Policy
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var c Category
		if err := c.UnmarshalText([]byte(part)); err != nil {
			return nil, err
		}
		for _, seen := range p {
			if seen == c {
				return nil, fmt.Errorf("category %q listed twice", part)
			}
		}
		p = append(p, c)
	}
	return p, nil
}

// Palette maps a category to the dot color shown under the day.
type Palette map[Category]string

var DefaultPalette = Palette{
	CategoryPast:    "#b2bec3",
	CategoryCurrent: "green",
	CategoryFuture:  "#DE7066",
}

const DefaultSelectedColor = "#00adf5"

// MarkedDate is the per-day marking consumed by a date-picker widget.
type MarkedDate struct {
	HasReservation bool     `json:"marked"`
	Category       Category `json:"category,omitempty"`
	DotColor       string   `json:"dotColor,omitempty"`
	Selected       bool     `json:"selected,omitempty"`
	SelectedColor  string   `json:"selectedColor,omitempty"`
}

// Projector turns a DayIndex into date marks. The zero value uses the
// default policy, palette and selection color.
type Projector struct {
	Policy        Policy
	Palette       Palette
	SelectedColor string
}

// ProjectMarks projects with the default Projector.
func ProjectMarks(idx DayIndex, selected *Date, today Date) map[Date]MarkedDate {
	return Projector{}.Project(idx, selected, today)
}

func (p Projector) Project(idx DayIndex, selected *Date, today Date) map[Date]MarkedDate {
	palette := p.Palette
	if palette == nil {
		palette = DefaultPalette
	}
	out := make(map[Date]MarkedDate, len(idx.Days)+1)
	for d, entries := range idx.Days {
		if len(entries) == 0 {
			continue
		}
		cat := p.resolve(entries, today)
		out[d] = MarkedDate{HasReservation: true, Category: cat, DotColor: palette[cat]}
	}
	if selected != nil {
		m := out[*selected]
		m.Selected = true
		m.SelectedColor = p.SelectedColor
		if m.SelectedColor == "" {
			m.SelectedColor = DefaultSelectedColor
		}
		out[*selected] = m
	}
	return out
}

func (p Projector) resolve(entries []Entry, today Date) Category {
	var seen [CategoryFuture + 1]bool
	for _, e := range entries {
		seen[Classify(e, today)] = true
	}
	for _, policy := range []Policy{p.Policy, DefaultPolicy} {
		for _, c := range policy {
			if c > CategoryNone && c <= CategoryFuture && seen[c] {
				return c
			}
		}
	}
	return CategoryNone
}

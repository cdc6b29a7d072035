package app

import (
	"context"
	"fmt"
	"time"

	"condo_calendar/internal/calendar"
	"condo_calendar/internal/domain"
)

// ReservationLister is any source of a condominium's reservation list.
type ReservationLister interface {
	ListReservations(ctx context.Context, condominiumID string) ([]domain.Reservation, error)
}

// BackendReservations reads reservations straight from the backend.
type BackendReservations struct{ Backend domain.Backend }

func (b BackendReservations) ListReservations(ctx context.Context, condominiumID string) ([]domain.Reservation, error) {
	raw, err := b.Backend.ListReservations(ctx, condominiumID)
	if err != nil {
		return nil, err
	}
	return mapReservations(condominiumID, raw), nil
}

type WeekView struct {
	Week         calendar.WeekWindow        `json:"week"`
	Reservations []calendar.ReservationView `json:"reservations"`
}

type DayView struct {
	Date         calendar.Date              `json:"date"`
	Reservations []calendar.ReservationView `json:"reservations"`
}

// Overview is everything the calendar screen renders in one go.
type Overview struct {
	Title        string                                `json:"title"`
	Weekly       bool                                  `json:"weekly"`
	Today        calendar.Date                         `json:"today"`
	Selected     *calendar.Date                        `json:"selected,omitempty"`
	Week         calendar.WeekWindow                   `json:"week"`
	Reservations []calendar.ReservationView            `json:"reservations"`
	Marks        map[calendar.Date]calendar.MarkedDate `json:"marks"`
	Skipped      int                                   `json:"skipped"`
}

type CalendarService struct {
	src       ReservationLister
	cache     domain.Cache
	cacheTTL  time.Duration
	projector calendar.Projector
}

func NewCalendarService(src ReservationLister, c domain.Cache, ttl time.Duration) *CalendarService {
	return &CalendarService{src: src, cache: c, cacheTTL: ttl}
}

// WithProjector swaps the mark policy/palette.
func (s *CalendarService) WithProjector(p calendar.Projector) *CalendarService {
	s.projector = p
	return s
}

func reservationsKey(condominiumID string) string {
	return fmt.Sprintf("reservations:%s", condominiumID)
}

func (s *CalendarService) Reservations(ctx context.Context, condominiumID string) ([]domain.Reservation, error) {
	key := reservationsKey(condominiumID)
	var rs []domain.Reservation
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &rs); ok {
			return rs, nil
		}
	}
	rs, err := s.src.ListReservations(ctx, condominiumID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, rs, int(s.cacheTTL.Seconds()))
	}
	return rs, nil
}

func (s *CalendarService) index(ctx context.Context, condominiumID string) (calendar.DayIndex, error) {
	rs, err := s.Reservations(ctx, condominiumID)
	if err != nil {
		return calendar.DayIndex{}, err
	}
	return calendar.BuildDayIndex(rs), nil
}

func (s *CalendarService) Week(ctx context.Context, condominiumID string, today calendar.Date) (WeekView, error) {
	idx, err := s.index(ctx, condominiumID)
	if err != nil {
		return WeekView{}, err
	}
	w := calendar.WeekOf(today)
	return WeekView{Week: w, Reservations: calendar.SelectReservations(idx, w, nil)}, nil
}

func (s *CalendarService) Day(ctx context.Context, condominiumID string, d calendar.Date) (DayView, error) {
	idx, err := s.index(ctx, condominiumID)
	if err != nil {
		return DayView{}, err
	}
	return DayView{Date: d, Reservations: calendar.SelectReservations(idx, calendar.WeekOf(d), &d)}, nil
}

func (s *CalendarService) Marks(ctx context.Context, condominiumID string, selected *calendar.Date, today calendar.Date) (map[calendar.Date]calendar.MarkedDate, error) {
	idx, err := s.index(ctx, condominiumID)
	if err != nil {
		return nil, err
	}
	return s.projector.Project(idx, selected, today), nil
}

func (s *CalendarService) Overview(ctx context.Context, condominiumID string, selected *calendar.Date, today calendar.Date) (Overview, error) {
	idx, err := s.index(ctx, condominiumID)
	if err != nil {
		return Overview{}, err
	}
	w := calendar.WeekOf(today)
	ov := Overview{
		Title:        "Reservas da Semana",
		Weekly:       selected == nil,
		Today:        today,
		Selected:     selected,
		Week:         w,
		Reservations: calendar.SelectReservations(idx, w, selected),
		Marks:        s.projector.Project(idx, selected, today),
		Skipped:      len(idx.Skipped),
	}
	if selected != nil {
		ov.Title = "Reservas em " + selected.String()
	}
	return ov, nil
}

// Invalidate drops the cached reservation list of a condominium.
func (s *CalendarService) Invalidate(ctx context.Context, condominiumID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, reservationsKey(condominiumID))
	}
}

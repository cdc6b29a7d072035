package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"condo_calendar/internal/adapters/observability"
	"condo_calendar/internal/calendar"
	"condo_calendar/internal/domain"
)

type SyncResult struct {
	CondominiumID string
	Reservations  int
	Skipped       int
	Missed        bool
}

// SyncService mirrors a condominium's reservations from the backend.
type SyncService struct {
	backend domain.Backend
	repo    domain.ReservationRepository
	cache   domain.Cache
}

func NewSyncService(b domain.Backend, r domain.ReservationRepository, cache domain.Cache) *SyncService {
	return &SyncService{backend: b, repo: r, cache: cache}
}

func (s *SyncService) SyncCondominium(ctx context.Context, condominiumID string) (SyncResult, error) {
	res := SyncResult{CondominiumID: condominiumID}

	raw, err := s.backend.ListReservations(ctx, condominiumID)
	if err != nil {
		// 404/401/403: record a miss, drop whatever we were serving, stop gracefully.
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, condominiumID, 404, "not found")
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrTokenExpired):
			_ = s.repo.LogMiss(ctx, condominiumID, 401, "unauthorized")
		case errors.Is(err, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, condominiumID, 403, "forbidden")
		default:
			return res, fmt.Errorf("list reservations for %s: %w", condominiumID, err)
		}
		s.invalidate(ctx, condominiumID)
		res.Missed = true
		return res, nil
	}

	rs := mapReservations(condominiumID, raw)
	if err := s.repo.UpsertReservations(ctx, condominiumID, rs); err != nil {
		return res, fmt.Errorf("upsert reservations for %s: %w", condominiumID, err)
	}
	res.Reservations = len(rs)

	// Records the calendar cannot place are kept in the mirror but reported.
	// Issues fixed upstream since the last run drop out with the replace.
	idx := calendar.BuildDayIndex(rs)
	issues := make([]domain.Issue, 0, len(idx.Skipped))
	for _, sk := range idx.Skipped {
		observability.ObserveSkip(sk.Reason)
		issue := domain.Issue{ReservationID: sk.ReservationID, CondominiumID: condominiumID, Reason: sk.Reason}
		if sk.Err != nil {
			issue.Detail = sk.Err.Error()
		}
		issues = append(issues, issue)
	}
	if err := s.repo.ReplaceIssues(ctx, condominiumID, issues); err != nil {
		// issues are diagnostics; the mirror itself is already up to date
		log.Warn().Err(err).Str("condominium", condominiumID).Msg("replace reservation issues failed")
	}
	res.Skipped = len(issues)

	s.invalidate(ctx, condominiumID)
	return res, nil
}

func (s *SyncService) invalidate(ctx context.Context, condominiumID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, reservationsKey(condominiumID))
	}
}

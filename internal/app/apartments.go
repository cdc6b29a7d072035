package app

import (
	"context"
	"fmt"
	"time"

	"condo_calendar/internal/domain"
)

// ApartmentService lists a condominium's apartments for the booking form.
type ApartmentService struct {
	backend  domain.Backend
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewApartmentService(b domain.Backend, c domain.Cache, ttl time.Duration) *ApartmentService {
	return &ApartmentService{backend: b, cache: c, cacheTTL: ttl}
}

func apartmentsKey(condominiumID string) string {
	return fmt.Sprintf("apartments:%s", condominiumID)
}

// Apartments returns the condominium's apartments in backend order. With
// onlyAvailable set, occupied and in-maintenance units are left out.
func (s *ApartmentService) Apartments(ctx context.Context, condominiumID string, onlyAvailable bool) ([]domain.Apartment, error) {
	key := apartmentsKey(condominiumID)
	var all []domain.Apartment
	hit := false
	if s.cache != nil {
		hit, _ = s.cache.Get(ctx, key, &all)
	}
	if !hit {
		var err error
		all, err = s.backend.ListApartments(ctx, condominiumID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			_ = s.cache.Set(ctx, key, all, int(s.cacheTTL.Seconds()))
		}
	}
	out := make([]domain.Apartment, 0, len(all))
	for _, a := range all {
		if onlyAvailable && a.Status != domain.ApartmentAvailable {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

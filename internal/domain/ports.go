package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidDraft = errors.New("invalid reservation draft")
)

type ReservationRepository interface {
	// Write paths
	UpsertReservations(ctx context.Context, condominiumID string, rs []Reservation) error
	// ReplaceIssues swaps a condominium's open issues for the given set;
	// an empty set clears them.
	ReplaceIssues(ctx context.Context, condominiumID string, issues []Issue) error
	LogMiss(ctx context.Context, condominiumID string, status int, reason string) error

	// Read paths
	ListReservations(ctx context.Context, condominiumID string) ([]Reservation, error)
}

// Backend is the condominium REST API as seen by this service.
type Backend interface {
	ListReservations(ctx context.Context, condominiumID string) ([]map[string]any, error)
	ListApartments(ctx context.Context, condominiumID string) ([]Apartment, error)
	CreateReservation(ctx context.Context, d ReservationDraft) error
}

type Extractor interface {
	ExtractDates(ctx context.Context, pdfBase64 string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"condo_calendar/internal/adapters/observability"
	"condo_calendar/internal/calendar"
	"condo_calendar/internal/domain"
)

const pdfMime = "application/pdf"

// ShareService turns shared reservation vouchers into reservation drafts.
type ShareService struct {
	extractor domain.Extractor
	backend   domain.Backend
	cache     domain.Cache
	workers   int
	maxBytes  int64
	newID     func() string
}

func NewShareService(x domain.Extractor, b domain.Backend, cache domain.Cache, workers int, maxBytes int64) *ShareService {
	if workers <= 0 {
		workers = 1
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &ShareService{extractor: x, backend: b, cache: cache, workers: workers, maxBytes: maxBytes, newID: uuid.NewString}
}

// Process reads every shared PDF, sends it for extraction and attaches the
// result. A file that cannot be read or extracted keeps empty Content or
// Extracted; it never fails the batch. Output order matches input order.
func (s *ShareService) Process(ctx context.Context, files []domain.SharedFile) ([]domain.SharedFile, error) {
	out := make([]domain.SharedFile, len(files))
	copy(out, files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range out {
		i := i
		if !isPDF(out[i]) {
			observability.ObserveShare("passthrough")
			continue
		}
		g.Go(func() error {
			s.processOne(gctx, &out[i])
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ShareService) processOne(ctx context.Context, f *domain.SharedFile) {
	b, err := s.read(*f)
	if err != nil {
		log.Error().Err(err).Str("file", f.FileName).Msg("failed to read shared PDF")
		observability.ObserveShare("read_failed")
		return
	}
	f.Content = base64.StdEncoding.EncodeToString(b)

	payload, err := s.extractor.ExtractDates(ctx, f.Content)
	if err != nil {
		log.Error().Err(err).Str("file", f.FileName).Msg("failed to process PDF content")
		observability.ObserveShare("extract_failed")
		return
	}
	f.Extracted = mapExtraction(payload)
	observability.ObserveShare("extracted")
}

func (s *ShareService) read(f domain.SharedFile) ([]byte, error) {
	if len(f.Data) > 0 {
		if int64(len(f.Data)) > s.maxBytes {
			return nil, fmt.Errorf("%s: %d bytes exceeds limit of %d", f.FileName, len(f.Data), s.maxBytes)
		}
		return f.Data, nil
	}
	if f.FilePath == "" {
		return nil, fmt.Errorf("%s: no data and no file path", f.FileName)
	}
	fh, err := os.Open(f.FilePath)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	b, err := io.ReadAll(io.LimitReader(fh, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > s.maxBytes {
		return nil, fmt.Errorf("%s: exceeds limit of %d bytes", f.FilePath, s.maxBytes)
	}
	return b, nil
}

func isPDF(f domain.SharedFile) bool {
	if strings.EqualFold(f.MimeType, pdfMime) {
		return true
	}
	if strings.EqualFold(strings.TrimPrefix(f.Extension, "."), "pdf") {
		return true
	}
	name := f.FileName
	if name == "" {
		name = f.FilePath
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Draft pre-fills a reservation form from the first shared file. The apartment
// is left for the user to pick.
func (s *ShareService) Draft(condominiumID string, files []domain.SharedFile) (domain.ReservationDraft, bool) {
	if len(files) == 0 || files[0].Extracted == nil {
		return domain.ReservationDraft{}, false
	}
	x := files[0].Extracted
	d := domain.ReservationDraft{
		ID:            s.newID(),
		CondominiumID: condominiumID,
		CheckIn:       x.CheckIn,
		CheckOut:      x.CheckOut,
		GuestName:     x.GuestName,
		GuestDocument: x.GuestDocument,
		Guests:        x.Guests,
	}
	if d.Guests < 1 {
		d.Guests = 1
	}
	return d, true
}

func ValidateDraft(d domain.ReservationDraft) error {
	if strings.TrimSpace(d.Apartment) == "" {
		return fmt.Errorf("%w: apartment is required", domain.ErrInvalidDraft)
	}
	if strings.TrimSpace(d.GuestName) == "" {
		return fmt.Errorf("%w: guest name is required", domain.ErrInvalidDraft)
	}
	if d.Guests < 1 {
		return fmt.Errorf("%w: guests must be at least 1", domain.ErrInvalidDraft)
	}
	in, err := calendar.ParseTimestamp(d.CheckIn)
	if err != nil {
		return fmt.Errorf("%w: check-in: %v", domain.ErrInvalidDraft, err)
	}
	out, err := calendar.ParseTimestamp(d.CheckOut)
	if err != nil {
		return fmt.Errorf("%w: check-out: %v", domain.ErrInvalidDraft, err)
	}
	if out.Before(in) {
		return fmt.Errorf("%w: check-out before check-in", domain.ErrInvalidDraft)
	}
	return nil
}

// Submit validates the draft and creates the reservation on the backend.
func (s *ShareService) Submit(ctx context.Context, d domain.ReservationDraft) error {
	if err := ValidateDraft(d); err != nil {
		return err
	}
	if err := s.backend.CreateReservation(ctx, d); err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	log.Info().Str("draft", d.ID).Str("apartment", d.Apartment).Msg("reservation created")
	if s.cache != nil && d.CondominiumID != "" {
		_ = s.cache.Del(ctx, reservationsKey(d.CondominiumID))
	}
	return nil
}

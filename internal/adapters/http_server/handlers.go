// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"condo_calendar/internal/app"
	"condo_calendar/internal/calendar"
	"condo_calendar/internal/domain"
)

type Handlers struct {
	Calendar   *app.CalendarService
	Shares     *app.ShareService
	Apartments *app.ApartmentService
	Location   *time.Location   // zone used to compute "today"
	Now        func() time.Time // nil means time.Now
	MaxBytes   int64            // per uploaded file
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type shareResponse struct {
	Files   []domain.SharedFile      `json:"files"`
	DraftID string                   `json:"draft_id,omitempty"`
	Draft   *domain.ReservationDraft `json:"draft,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/condominiums/{condo}", func(r chi.Router) {
		r.Get("/calendar", h.getOverview)
		r.Get("/calendar/week", h.getWeek)
		r.Get("/calendar/days/{date}", h.getDay)
		r.Get("/calendar/marks", h.getMarks)
		r.Post("/calendar/refresh", h.postRefresh)
		r.Get("/apartments", h.getApartments)
		r.Post("/shares", h.postShares)
		r.Post("/reservations", h.postReservation)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "condominium not found")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "access to this condominium is not allowed")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrTokenExpired):
		writeProblem(w, http.StatusBadGateway, "Upstream Unauthorized", "backend rejected our credentials")
	case errors.Is(err, domain.ErrInvalidDraft):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Reservation", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "could not load reservations")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

func (h *Handlers) today() calendar.Date {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	return calendar.Today(now(), loc)
}

// parseDateParam reads an optional YYYY-MM-DD query value.
func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (*calendar.Date, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	d, err := calendar.ParseDate(v)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", name+" must be YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}

// dateParams reads ?today=, ?selected= and ?tap=; all are optional. A tap
// toggles the selection: tapping the selected day clears it.
func (h *Handlers) dateParams(w http.ResponseWriter, r *http.Request) (today calendar.Date, selected *calendar.Date, ok bool) {
	today = h.today()
	t, ok := parseDateParam(w, r, "today")
	if !ok {
		return today, nil, false
	}
	if t != nil {
		today = *t
	}
	if selected, ok = parseDateParam(w, r, "selected"); !ok {
		return today, nil, false
	}
	tap, ok := parseDateParam(w, r, "tap")
	if !ok {
		return today, nil, false
	}
	if tap != nil {
		selected = calendar.Toggle(selected, *tap)
	}
	return today, selected, true
}

func (h *Handlers) getOverview(w http.ResponseWriter, r *http.Request) {
	today, selected, ok := h.dateParams(w, r)
	if !ok {
		return
	}
	ov, err := h.Calendar.Overview(r.Context(), chi.URLParam(r, "condo"), selected, today)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, ov)
}

func (h *Handlers) getWeek(w http.ResponseWriter, r *http.Request) {
	today, _, ok := h.dateParams(w, r)
	if !ok {
		return
	}
	wv, err := h.Calendar.Week(r.Context(), chi.URLParam(r, "condo"), today)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, wv)
}

func (h *Handlers) getDay(w http.ResponseWriter, r *http.Request) {
	d, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", "date must be YYYY-MM-DD")
		return
	}
	dv, err := h.Calendar.Day(r.Context(), chi.URLParam(r, "condo"), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, dv)
}

func (h *Handlers) getMarks(w http.ResponseWriter, r *http.Request) {
	today, selected, ok := h.dateParams(w, r)
	if !ok {
		return
	}
	marks, err := h.Calendar.Marks(r.Context(), chi.URLParam(r, "condo"), selected, today)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, marks)
}

// postRefresh drops the cached reservation list so the next read goes to
// the source.
func (h *Handlers) postRefresh(w http.ResponseWriter, r *http.Request) {
	h.Calendar.Invalidate(r.Context(), chi.URLParam(r, "condo"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) getApartments(w http.ResponseWriter, r *http.Request) {
	available := false
	if v := r.URL.Query().Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid parameter", "available must be a boolean")
			return
		}
		available = b
	}
	apts, err := h.Apartments.Apartments(r.Context(), chi.URLParam(r, "condo"), available)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, apts)
}

func (h *Handlers) postShares(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "expected multipart/form-data")
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "no file field")
		return
	}

	files := make([]domain.SharedFile, 0, len(headers))
	for _, fh := range headers {
		sf := domain.SharedFile{
			FileName:  fh.Filename,
			MimeType:  fh.Header.Get("Content-Type"),
			Extension: filepath.Ext(fh.Filename),
		}
		if fh.Size > maxBytes {
			writeProblem(w, http.StatusRequestEntityTooLarge, "File too large",
				fmt.Sprintf("%s exceeds %d bytes", fh.Filename, maxBytes))
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid upload", err.Error())
			return
		}
		sf.Data, err = io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid upload", err.Error())
			return
		}
		files = append(files, sf)
	}

	out, err := h.Shares.Process(r.Context(), files)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := shareResponse{Files: out}
	if d, ok := h.Shares.Draft(chi.URLParam(r, "condo"), out); ok {
		resp.DraftID = d.ID
		resp.Draft = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) postReservation(w http.ResponseWriter, r *http.Request) {
	var d domain.ReservationDraft
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	d.CondominiumID = chi.URLParam(r, "condo")
	if err := h.Shares.Submit(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

package app

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"condo_calendar/internal/domain"
)

/********** alias registries (single source of truth) **********/

var reservationAliases = map[string][]string{
	"id":             {"id", "reservation_id", "pk"},
	"guest_name":     {"guest_name", "guestName", "guest.name", "name"},
	"guest_document": {"guest_document", "guestDocument", "guest.document", "document"},
	"room":           {"apt_number", "apartment_number", "room", "room_number", "apartment.number"},
	"apartment":      {"apartment", "apartment_id", "apartment.id"},
	"condominium":    {"condominium", "condominium_id", "apartment.condominium"},
	"checkin":        {"checkin", "check_in", "checkIn", "start_date"},
	"checkout":       {"checkout", "check_out", "checkOut", "end_date"},
	"guests":         {"guests", "guest_count", "num_guests"},
	"has_children":   {"has_children", "hasChildren", "children"},
}

var extractionAliases = map[string][]string{
	"checkin":        {"check_in", "checkin", "checkIn"},
	"checkout":       {"check_out", "checkout", "checkOut"},
	"guest_name":     {"guest_name", "guestName", "name"},
	"guest_document": {"guest_document", "guestDocument", "document"},
	"guests":         {"guests", "guest_count"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// scalarString renders strings and JSON numbers; anything else is "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	}
	return ""
}

// firstAlias: first non-empty scalar for a named alias set.
func firstAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := scalarString(lookupAny(m, p)); s != "" {
			return s
		}
	}
	return ""
}

func firstIntAlias(m map[string]any, aliases map[string][]string, key string) int {
	for _, p := range aliases[key] {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

func firstBoolAlias(m map[string]any, aliases map[string][]string, key string) bool {
	for _, p := range aliases[key] {
		switch v := lookupAny(m, p).(type) {
		case bool:
			return v
		case float64:
			return v != 0
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "sim", "yes":
				return true
			}
			return false
		}
	}
	return false
}

/********** reservation mapper **********/

func mapReservation(condominiumID string, m map[string]any) domain.Reservation {
	r := domain.Reservation{
		ID:            firstAlias(m, reservationAliases, "id"),
		CondominiumID: firstAlias(m, reservationAliases, "condominium"),
		ApartmentID:   firstAlias(m, reservationAliases, "apartment"),
		GuestName:     firstAlias(m, reservationAliases, "guest_name"),
		GuestDocument: firstAlias(m, reservationAliases, "guest_document"),
		RoomNumber:    firstAlias(m, reservationAliases, "room"),
		Guests:        firstIntAlias(m, reservationAliases, "guests"),
		HasChildren:   firstBoolAlias(m, reservationAliases, "has_children"),
		CheckIn:       firstAlias(m, reservationAliases, "checkin"),
		CheckOut:      firstAlias(m, reservationAliases, "checkout"),
	}
	if r.CondominiumID == "" {
		r.CondominiumID = condominiumID
	}
	if r.RoomNumber == "" {
		r.RoomNumber = r.ApartmentID
	}

	raw, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Str("context", "mapReservation").Msg("marshal reservation failed")
	}
	r.RawJSON = raw

	// no id from the backend: synthesize a stable one so upserts stay idempotent
	if r.ID == "" {
		sig := strings.Join([]string{r.CondominiumID, r.RoomNumber, r.GuestName, r.CheckIn, r.CheckOut}, "|")
		sum := sha1.Sum([]byte(sig))
		r.ID = "h-" + hex.EncodeToString(sum[:8])
	}
	return r
}

func mapReservations(condominiumID string, in []map[string]any) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(in))
	for _, m := range in {
		out = append(out, mapReservation(condominiumID, m))
	}
	return out
}

/********** extraction mapper **********/

func mapExtraction(m map[string]any) *domain.Extraction {
	if m == nil {
		return nil
	}
	return &domain.Extraction{
		CheckIn:       firstAlias(m, extractionAliases, "checkin"),
		CheckOut:      firstAlias(m, extractionAliases, "checkout"),
		GuestName:     firstAlias(m, extractionAliases, "guest_name"),
		GuestDocument: firstAlias(m, extractionAliases, "guest_document"),
		Guests:        firstIntAlias(m, extractionAliases, "guests"),
	}
}

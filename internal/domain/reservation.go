package domain

// Reservation is owned by the condominium backend; this service only reads it.
// CheckIn and CheckOut are kept exactly as received (ISO-8601 strings).
type Reservation struct {
	ID            string `json:"id"`
	CondominiumID string `json:"condominium_id,omitempty"`
	ApartmentID   string `json:"apartment,omitempty"`
	GuestName     string `json:"guest_name"`
	GuestDocument string `json:"guest_document,omitempty"`
	RoomNumber    string `json:"apt_number"`
	Guests        int    `json:"guests,omitempty"`
	HasChildren   bool   `json:"has_children,omitempty"`
	CheckIn       string `json:"checkin"`
	CheckOut      string `json:"checkout"`
	RawJSON       []byte `json:"-"` // full backend payload
}

type ApartmentType int

const (
	ApartmentSeasonal    ApartmentType = 0 // temporada
	ApartmentResidential ApartmentType = 1 // moradia
)

type ApartmentStatus int

const (
	ApartmentAvailable   ApartmentStatus = 0
	ApartmentOccupied    ApartmentStatus = 1
	ApartmentMaintenance ApartmentStatus = 2
)

type Apartment struct {
	ID            string          `json:"id"`
	CondominiumID string          `json:"condominium,omitempty"`
	Type          ApartmentType   `json:"type"`
	MaxOccupation int             `json:"max_occupation"`
	Status        ApartmentStatus `json:"status"`
}

// Issue is a data-quality problem found on a mirrored reservation.
type Issue struct {
	ReservationID string
	CondominiumID string
	Reason        string
	Detail        string
}

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

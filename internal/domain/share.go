package domain

// SharedFile is a file handed to the service by a share intent or an upload.
// Data takes precedence over FilePath when both are set.
type SharedFile struct {
	FileName  string      `json:"file_name,omitempty"`
	MimeType  string      `json:"mime_type,omitempty"`
	Extension string      `json:"extension,omitempty"`
	FilePath  string      `json:"file_path,omitempty"`
	Data      []byte      `json:"-"`
	Content   string      `json:"content,omitempty"` // base64 of the PDF bytes
	Extracted *Extraction `json:"extracted,omitempty"`
}

// Extraction is what the backend could read out of a reservation voucher.
type Extraction struct {
	CheckIn       string `json:"check_in,omitempty"`
	CheckOut      string `json:"check_out,omitempty"`
	GuestName     string `json:"guest_name,omitempty"`
	GuestDocument string `json:"guest_document,omitempty"`
	Guests        int    `json:"guests,omitempty"`
}

// ReservationDraft is the create-reservation form pre-filled from a voucher.
type ReservationDraft struct {
	ID            string `json:"-"`
	CondominiumID string `json:"-"`
	CheckIn       string `json:"checkin"`
	CheckOut      string `json:"checkout"`
	GuestName     string `json:"guest_name"`
	GuestDocument string `json:"guest_document"`
	Apartment     string `json:"apartment"`
	Guests        int    `json:"guests"`
	HasChildren   bool   `json:"has_children"`
}

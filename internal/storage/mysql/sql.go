package mysql

// Reservations are mirrored per condominium: a sync replaces the whole set so
// rows the backend dropped disappear too. position keeps the backend order.
const deleteReservationsSQL = `
DELETE FROM reservations
WHERE condominium_id = ?
`

const insertReservationsPrefix = "INSERT INTO reservations\n" +
	"  (condominium_id, id, position, apartment_id, apt_number, guest_name, guest_document, guests, has_children, checkin, checkout, raw)\n" +
	"VALUES "

// Duplicate ids inside one payload: last one wins.
const insertReservationsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  position       = VALUES(position),\n" +
	"  apartment_id   = VALUES(apartment_id),\n" +
	"  apt_number     = VALUES(apt_number),\n" +
	"  guest_name     = VALUES(guest_name),\n" +
	"  guest_document = VALUES(guest_document),\n" +
	"  guests         = VALUES(guests),\n" +
	"  has_children   = VALUES(has_children),\n" +
	"  checkin        = VALUES(checkin),\n" +
	"  checkout       = VALUES(checkout),\n" +
	"  raw            = VALUES(raw),\n" +
	"  synced_at      = CURRENT_TIMESTAMP\n"

// Issues follow the same replace-per-condominium rule, so a record fixed
// upstream stops being reported after the next sync.
const deleteIssuesSQL = `
DELETE FROM reservation_issues
WHERE condominium_id = ?
`

const insertIssuesPrefix = "INSERT INTO reservation_issues\n" +
	"  (condominium_id, reservation_id, reason, detail)\n" +
	"VALUES "

const insertIssuesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  detail  = VALUES(detail),\n" +
	"  seen_at = CURRENT_TIMESTAMP\n"

const insertMissSQL = `
INSERT INTO sync_misses (condominium_id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listReservationsSQL = `
SELECT
  id,
  condominium_id,
  apartment_id,
  apt_number,
  guest_name,
  guest_document,
  guests,
  has_children,
  checkin,
  checkout,
  raw
FROM reservations
WHERE condominium_id = ?
ORDER BY position, id
`

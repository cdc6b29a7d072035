package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"condo_calendar/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertReservations replaces the mirrored reservations of one condominium.
func (r *Repo) UpsertReservations(ctx context.Context, condominiumID string, rs []domain.Reservation) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteReservationsSQL, condominiumID); err != nil {
		return fmt.Errorf("clear reservations: %w", err)
	}
	if len(rs) > 0 {
		values := make([]string, 0, len(rs))
		args := make([]any, 0, len(rs)*12) // 12 params per row
		for i, rv := range rs {
			values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?)")
			args = append(args,
				condominiumID,
				rv.ID,
				i, // position: backend order
				valStr(rv.ApartmentID),
				valStr(rv.RoomNumber),
				valStr(rv.GuestName),
				valStr(rv.GuestDocument),
				rv.Guests,
				rv.HasChildren,
				rv.CheckIn,
				rv.CheckOut,
				valJSON(rv.RawJSON),
			)
		}
		sqlStr := insertReservationsPrefix + strings.Join(values, ",") + insertReservationsOnDup
		if _, err = tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("insert reservations: %w", err)
		}
	}
	return tx.Commit()
}

// ReplaceIssues swaps the recorded issues of one condominium for issues.
func (r *Repo) ReplaceIssues(ctx context.Context, condominiumID string, issues []domain.Issue) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteIssuesSQL, condominiumID); err != nil {
		return fmt.Errorf("clear issues: %w", err)
	}
	if len(issues) > 0 {
		values := make([]string, 0, len(issues))
		args := make([]any, 0, len(issues)*4)
		for _, is := range issues {
			values = append(values, "(?,?,?,?)")
			args = append(args, condominiumID, is.ReservationID, is.Reason, valStr(is.Detail))
		}
		if _, err = tx.ExecContext(ctx, insertIssuesPrefix+strings.Join(values, ",")+insertIssuesOnDup, args...); err != nil {
			return fmt.Errorf("insert issues: %w", err)
		}
	}
	return tx.Commit()
}

func (r *Repo) LogMiss(ctx context.Context, condominiumID string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, condominiumID, status, reason)
	return err
}

func (r *Repo) ListReservations(ctx context.Context, condominiumID string) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, listReservationsSQL, condominiumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		var rv domain.Reservation
		var (
			apartmentID, aptNumber sql.NullString
			guestName, guestDoc    sql.NullString
			raw                    sql.RawBytes
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.CondominiumID,
			&apartmentID,
			&aptNumber,
			&guestName,
			&guestDoc,
			&rv.Guests,
			&rv.HasChildren,
			&rv.CheckIn,
			&rv.CheckOut,
			&raw,
		); err != nil {
			return nil, err
		}
		rv.ApartmentID = apartmentID.String
		rv.RoomNumber = aptNumber.String
		rv.GuestName = guestName.String
		rv.GuestDocument = guestDoc.String
		if len(raw) > 0 {
			rv.RawJSON = append([]byte(nil), raw...)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

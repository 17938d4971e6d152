package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/slot-booking-api/internal/database"
	"github.com/iliyamo/slot-booking-api/internal/model"
)

// AppointmentRepo provides the appointment operations.  Appointments are
// never deleted; cancellation is a status change.
type AppointmentRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewAppointmentRepo returns a new AppointmentRepo bound to the given database.
func NewAppointmentRepo(db *sql.DB, dialect database.Dialect) *AppointmentRepo {
	return &AppointmentRepo{db: db, dialect: dialect}
}

const appointmentColumns = `id, user_id, slot_id, contact, name, status, cancelled_at, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }, a *model.Appointment, extra ...any) error {
	var cancelled sql.NullTime
	dest := append([]any{
		&a.ID, &a.UserID, &a.SlotID, &a.Contact, &a.Name, &a.Status,
		&cancelled, &a.CreatedAt, &a.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return fmt.Errorf("appointment %d: unknown status %q", a.ID, a.Status)
	}
	if cancelled.Valid {
		t := cancelled.Time.UTC()
		a.CancelledAt = &t
	}
	return nil
}

// Create inserts a new appointment and fills in its id and timestamps.  A
// second booked appointment for the same slot violates the active-slot
// guard and yields ErrDuplicate; a user or slot that does not exist yields
// ErrForeignKey.
func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	now := time.Now().UTC()
	if a.Status == "" {
		a.Status = model.StatusBooked
	}
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO appointments (user_id, slot_id, contact, name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.SlotID, a.Contact, a.Name, string(a.Status), now, now)
	if err != nil {
		switch {
		case isDuplicate(err):
			return ErrDuplicate
		case isForeignKey(err):
			return ErrForeignKey
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetForUser loads an appointment owned by userID.  Inside a MySQL
// transaction the row is locked until commit.
func (r *AppointmentRepo) GetForUser(ctx context.Context, userID, id uint64) (model.Appointment, error) {
	var a model.Appointment
	err := scanAppointment(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ? AND user_id = ?`+r.dialect.ForUpdate(),
		id, userID), &a)
	return a, notFound(err)
}

// Cancel moves a booked appointment to cancelled.  It reports false when
// the row was not in the booked state.
func (r *AppointmentRepo) Cancel(ctx context.Context, userID, id uint64, at time.Time) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE appointments SET status = ?, cancelled_at = ?, updated_at = ? WHERE id = ? AND user_id = ? AND status = ?`,
		string(model.StatusCancelled), at, at, id, userID, string(model.StatusBooked))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListByUser returns every appointment of a user with its slot, ordered by
// slot date and start time.
func (r *AppointmentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Appointment, error) {
	const q = `SELECT a.id, a.user_id, a.slot_id, a.contact, a.name, a.status, a.cancelled_at, a.created_at, a.updated_at,
	                  s.id, s.slot_date, s.start_time, s.end_time, s.is_available
	           FROM appointments a
	           JOIN slots s ON s.id = a.slot_id
	           WHERE a.user_id = ?
	           ORDER BY s.slot_date, s.start_time, a.id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Appointment{}
	for rows.Next() {
		var (
			a model.Appointment
			s model.Slot
		)
		if err := scanAppointment(rows, &a, &s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.IsAvailable); err != nil {
			return nil, err
		}
		a.Slot = &s
		out = append(out, a)
	}
	return out, rows.Err()
}

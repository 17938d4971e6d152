package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/slot-booking-api/internal/booking"
	"github.com/iliyamo/slot-booking-api/internal/database"
	"github.com/iliyamo/slot-booking-api/internal/model"
)

// BookingStore implements booking.Repository on top of the slot and
// appointment repositories.  It is where driver errors turn into the
// coordinator's error kinds.
type BookingStore struct {
	db           *sql.DB
	slots        *SlotRepo
	appointments *AppointmentRepo
}

var _ booking.Repository = (*BookingStore)(nil)

func NewBookingStore(db *sql.DB, dialect database.Dialect) *BookingStore {
	return &BookingStore{
		db:           db,
		slots:        NewSlotRepo(db, dialect),
		appointments: NewAppointmentRepo(db, dialect),
	}
}

func storeErr(op string, err error) error {
	return &booking.StoreError{Op: op, Err: err}
}

// WithTx wraps begin and commit failures as store errors and returns errors
// from fn unchanged.
func (s *BookingStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var fnErr error
	err := WithTx(ctx, s.db, func(ctx context.Context) error {
		fnErr = fn(ctx)
		return fnErr
	})
	if err != nil && fnErr == nil {
		return storeErr("transaction", err)
	}
	return err
}

func (s *BookingStore) ReserveSlot(ctx context.Context, slotID uint64) error {
	ok, err := s.slots.Reserve(ctx, slotID)
	if err != nil {
		return storeErr("reserve slot", err)
	}
	if !ok {
		return booking.ErrSlotUnavailable
	}
	return nil
}

func (s *BookingStore) ReleaseSlot(ctx context.Context, slotID uint64) error {
	if err := s.slots.Release(ctx, slotID); err != nil {
		return storeErr("release slot", err)
	}
	return nil
}

func (s *BookingStore) GetSlot(ctx context.Context, slotID uint64) (model.Slot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return model.Slot{}, storeErr("get slot", err)
	}
	return slot, nil
}

func (s *BookingStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.appointments.Create(ctx, a)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicate):
		return booking.ErrSlotUnavailable
	case errors.Is(err, ErrForeignKey):
		// the slot row was just reserved, so the missing row is the user
		return booking.ErrUnknownUser
	default:
		return storeErr("create appointment", err)
	}
}

func (s *BookingStore) GetAppointmentForUser(ctx context.Context, userID, appointmentID uint64) (model.Appointment, error) {
	a, err := s.appointments.GetForUser(ctx, userID, appointmentID)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, ErrNotFound):
		return model.Appointment{}, booking.ErrNotFound
	default:
		return model.Appointment{}, storeErr("get appointment", err)
	}
}

func (s *BookingStore) MarkCancelled(ctx context.Context, userID, appointmentID uint64, at time.Time) error {
	ok, err := s.appointments.Cancel(ctx, userID, appointmentID, at)
	if err != nil {
		return storeErr("cancel appointment", err)
	}
	if !ok {
		return booking.ErrAlreadyCancelled
	}
	return nil
}

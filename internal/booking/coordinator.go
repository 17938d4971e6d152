// Package booking holds the slot-booking transaction: reserving a slot
// together with creating its appointment, and cancelling an appointment
// together with releasing its slot.  The coordinator keeps no state between
// calls; the store is the only shared resource.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/slot-booking-api/internal/metrics"
	"github.com/iliyamo/slot-booking-api/internal/model"
)

// Repository is the transactional store the coordinator runs against.
// Methods called with the context handed to WithTx's fn take part in that
// transaction.
//
// Implementations report conflicts with the kinds in errors.go:
// ReserveSlot returns ErrSlotUnavailable when the slot is missing or taken,
// CreateAppointment returns ErrSlotUnavailable when another booked
// appointment already holds the slot and ErrUnknownUser when the user row
// is gone, GetAppointmentForUser returns
// ErrNotFound and MarkCancelled returns ErrAlreadyCancelled when the row is
// no longer booked.  Anything else is treated as a store failure.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ReserveSlot(ctx context.Context, slotID uint64) error
	ReleaseSlot(ctx context.Context, slotID uint64) error
	GetSlot(ctx context.Context, slotID uint64) (model.Slot, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointmentForUser(ctx context.Context, userID, appointmentID uint64) (model.Appointment, error)
	MarkCancelled(ctx context.Context, userID, appointmentID uint64, at time.Time) error
}

// Listener is told about committed changes.  It runs after the
// transaction, so a failing listener cannot undo a booking.
type Listener interface {
	AppointmentBooked(ctx context.Context, a model.Appointment)
	AppointmentCancelled(ctx context.Context, a model.Appointment)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds each operation, transaction included.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithListener adds a post-commit listener.
func WithListener(l Listener) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

type Coordinator struct {
	repo      Repository
	timeout   time.Duration
	now       func() time.Time
	listeners []Listener
}

const defaultTimeout = 5 * time.Second

func NewCoordinator(repo Repository, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:    repo,
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BookSlot reserves the slot and creates a booked appointment for it in one
// transaction.  Concurrent calls for the same slot serialize on the slot
// row: exactly one succeeds and the others get ErrSlotUnavailable.
func (c *Coordinator) BookSlot(ctx context.Context, req BookRequest) (model.Appointment, error) {
	start := time.Now()
	appt, err := c.bookSlot(ctx, req)
	observe("book", start, err)
	if err != nil {
		return model.Appointment{}, err
	}
	c.notify(ctx, func(ctx context.Context, l Listener) { l.AppointmentBooked(ctx, appt) })
	return appt, nil
}

func (c *Coordinator) bookSlot(ctx context.Context, req BookRequest) (model.Appointment, error) {
	if err := req.normalize(); err != nil {
		return model.Appointment{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var appt model.Appointment
	err := c.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := c.repo.ReserveSlot(ctx, req.SlotID); err != nil {
			return err
		}
		a := model.Appointment{
			UserID:  req.UserID,
			SlotID:  req.SlotID,
			Contact: req.Contact,
			Name:    req.Name,
			Status:  model.StatusBooked,
		}
		if err := c.repo.CreateAppointment(ctx, &a); err != nil {
			return err
		}
		slot, err := c.repo.GetSlot(ctx, req.SlotID)
		if err != nil {
			return err
		}
		a.Slot = &slot
		appt = a
		return nil
	})
	if err != nil {
		return model.Appointment{}, kindOf("book slot", err)
	}
	return appt, nil
}

// CancelAppointment cancels an appointment owned by userID and releases its
// slot in one transaction.  Re-cancelling is rejected with
// ErrAlreadyCancelled; a completed appointment yields ErrAppointmentClosed.
func (c *Coordinator) CancelAppointment(ctx context.Context, userID, appointmentID uint64) (model.Appointment, error) {
	start := time.Now()
	appt, err := c.cancelAppointment(ctx, userID, appointmentID)
	observe("cancel", start, err)
	if err != nil {
		return model.Appointment{}, err
	}
	c.notify(ctx, func(ctx context.Context, l Listener) { l.AppointmentCancelled(ctx, appt) })
	return appt, nil
}

func (c *Coordinator) cancelAppointment(ctx context.Context, userID, appointmentID uint64) (model.Appointment, error) {
	if userID == 0 || appointmentID == 0 {
		return model.Appointment{}, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var appt model.Appointment
	err := c.repo.WithTx(ctx, func(ctx context.Context) error {
		a, err := c.repo.GetAppointmentForUser(ctx, userID, appointmentID)
		if err != nil {
			return err
		}
		if a.Status.Terminal() {
			if a.Status == model.StatusCompleted {
				return ErrAppointmentClosed
			}
			return ErrAlreadyCancelled
		}

		at := c.now().UTC()
		if err := c.repo.MarkCancelled(ctx, userID, appointmentID, at); err != nil {
			return err
		}
		if err := c.repo.ReleaseSlot(ctx, a.SlotID); err != nil {
			return err
		}
		a.Status = model.StatusCancelled
		a.CancelledAt = &at
		a.UpdatedAt = at
		appt = a
		return nil
	})
	if err != nil {
		return model.Appointment{}, kindOf("cancel appointment", err)
	}
	return appt, nil
}

// notify runs listeners detached from the request's cancellation so a
// client hanging up does not drop events for a committed change.
func (c *Coordinator) notify(ctx context.Context, fn func(context.Context, Listener)) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range c.listeners {
		fn(ctx, l)
	}
}

func observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		outcome = "invalid"
	case errors.Is(err, ErrSlotUnavailable):
		outcome = "unavailable"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrAlreadyCancelled), errors.Is(err, ErrAppointmentClosed):
		outcome = "conflict"
	default:
		outcome = "store_error"
	}
	metrics.ObserveBooking(op, outcome, time.Since(start))
}

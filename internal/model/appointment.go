package model

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "booked"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Terminal reports whether no further transition is possible from s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusBooked, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Appointment links a user to a slot.  Rows are never deleted; a
// cancellation flips Status and stamps CancelledAt.  Slot is populated
// only by queries that join the slots table.
type Appointment struct {
	ID          uint64            `json:"id"`
	UserID      uint64            `json:"user_id"`
	SlotID      uint64            `json:"slot_id"`
	Contact     string            `json:"contact"`
	Name        string            `json:"name"`
	Status      AppointmentStatus `json:"status"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Slot        *Slot             `json:"slot,omitempty"`
}

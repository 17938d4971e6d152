// Package queue carries appointment events over RabbitMQ: the payloads,
// the publisher hooked into the booking coordinator, and the consumer that
// writes the appointment log.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/slot-booking-api/internal/model"
)

// Queue names double as event types.
const (
	QueueBooked    = "appointment.booked"
	QueueCancelled = "appointment.cancelled"
)

// AppointmentEvent is published after a booking or cancellation commits.
// It carries enough information for consumers to log or notify without
// querying the primary database.
type AppointmentEvent struct {
	EventID       string `json:"event_id"`
	Type          string `json:"type"`
	AppointmentID uint64 `json:"appointment_id"`
	UserID        uint64 `json:"user_id"`
	SlotID        uint64 `json:"slot_id"`
	Date          string `json:"date,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}

// NewAppointmentEvent builds the event of the given type for a.
func NewAppointmentEvent(eventType string, a model.Appointment, at time.Time) AppointmentEvent {
	ev := AppointmentEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		AppointmentID: a.ID,
		UserID:        a.UserID,
		SlotID:        a.SlotID,
		Name:          a.Name,
		Status:        string(a.Status),
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
	if a.Slot != nil {
		ev.Date = a.Slot.Date
		ev.StartTime = a.Slot.StartTime
		ev.EndTime = a.Slot.EndTime
	}
	return ev
}

package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/slot-booking-api/internal/model"
)

const publishTimeout = 5 * time.Second

// Publisher sends appointment events to RabbitMQ.  It implements
// booking.Listener; publishing happens in the background and failures are
// only logged so the request flow is never interrupted.  A Publisher with
// an empty URL does nothing.
type Publisher struct {
	url    string
	logger zerolog.Logger
	now    func() time.Time
}

func NewPublisher(url string, logger zerolog.Logger) *Publisher {
	return &Publisher{url: url, logger: logger.With().Str("component", "publisher").Logger(), now: time.Now}
}

func (p *Publisher) AppointmentBooked(ctx context.Context, a model.Appointment) {
	p.publishAsync(ctx, NewAppointmentEvent(QueueBooked, a, p.now()))
}

func (p *Publisher) AppointmentCancelled(ctx context.Context, a model.Appointment) {
	p.publishAsync(ctx, NewAppointmentEvent(QueueCancelled, a, p.now()))
}

func (p *Publisher) publishAsync(ctx context.Context, ev AppointmentEvent) {
	if p.url == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, ev); err != nil {
			p.logger.Warn().Err(err).Str("event", ev.Type).Uint64("appointment_id", ev.AppointmentID).Msg("publish failed")
		}
	}()
}

// Publish sends ev to the durable queue named after its type.  Messages are
// marked as persistent.
func (p *Publisher) Publish(ctx context.Context, ev AppointmentEvent) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent.  Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(ev.Type, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		ev.Type, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.EventID,
			Timestamp:    p.now().UTC(),
			Body:         body,
		})
}

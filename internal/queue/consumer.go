package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// LogFileName is the file under the consumer's directory that receives one
// line per event.
const LogFileName = "appointments.log"

// Consumer appends appointment events to a log file.
type Consumer struct {
	url    string
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
}

func NewConsumer(url, dir string, logger zerolog.Logger) *Consumer {
	return &Consumer{url: url, dir: dir, logger: logger.With().Str("component", "consumer").Logger()}
}

// Run connects to RabbitMQ, declares both appointment queues and consumes
// them until ctx is cancelled.  Lost connections are re-dialled with
// exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.DialConfig(c.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
		if err != nil {
			c.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn().Err(err).Msg("set QoS failed")
	}

	// done releases the forwarders when consume returns early, for example
	// when the second queue cannot be declared.
	done := make(chan struct{})
	defer close(done)

	deliveries := make(chan amqp.Delivery)
	var wg sync.WaitGroup
	for _, q := range []string{QueueBooked, QueueCancelled} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			forward(ctx, done, msgs, deliveries)
		}()
	}
	closed := make(chan struct{})
	go func() {
		wg.Wait()
		close(closed)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return errors.New("deliveries channel closed")
		case d := <-deliveries:
			if err := c.HandleMessage(d.Body); err != nil {
				c.logger.Error().Err(err).Msg("handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// forward copies in to out until in is closed, done is closed or ctx ends.
func forward(ctx context.Context, done <-chan struct{}, in <-chan amqp.Delivery, out chan<- amqp.Delivery) {
	for d := range in {
		select {
		case out <- d:
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// HandleMessage decodes one event and appends its log line.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev AppointmentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.AppointmentID == 0 {
		return errors.New("event without appointment_id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev AppointmentEvent) string {
	action := "Appointment booked"
	if ev.Type == QueueCancelled {
		action = "Appointment cancelled"
	}
	return fmt.Sprintf("[%s] %s | appointment_id=%d | user_id=%d | slot_id=%d | date=%s | time=%s-%s | name=%q\n",
		ev.OccurredAt, action, ev.AppointmentID, ev.UserID, ev.SlotID, ev.Date, ev.StartTime, ev.EndTime, ev.Name)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package booking_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/slot-booking-api/internal/booking"
	"github.com/iliyamo/slot-booking-api/internal/database"
	"github.com/iliyamo/slot-booking-api/internal/model"
	"github.com/iliyamo/slot-booking-api/internal/repository"
	"github.com/iliyamo/slot-booking-api/internal/testutil"
)

type recordingListener struct {
	mu        sync.Mutex
	booked    []model.Appointment
	cancelled []model.Appointment
}

func (l *recordingListener) AppointmentBooked(_ context.Context, a model.Appointment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.booked = append(l.booked, a)
}

func (l *recordingListener) AppointmentCancelled(_ context.Context, a model.Appointment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelled = append(l.cancelled, a)
}

type fixture struct {
	path     string
	db       *sql.DB
	coord    *booking.Coordinator
	listener *recordingListener
	slotID   uint64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "booking.db")
	db := testutil.OpenSQLiteFile(t, path)
	testutil.SeedUser(t, db, 1, "one@example.com")
	testutil.SeedUser(t, db, 2, "two@example.com")
	slotID := testutil.SeedSlot(t, db, 42, testutil.FutureDate(1), "09:00", "09:30")

	l := &recordingListener{}
	coord := booking.NewCoordinator(
		repository.NewBookingStore(db, database.SQLite),
		booking.WithTimeout(5*time.Second),
		booking.WithListener(l),
	)
	return fixture{path: path, db: db, coord: coord, listener: l, slotID: slotID}
}

func TestBookThenCancelScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.coord.BookSlot(ctx, booking.BookRequest{UserID: 1, SlotID: 42, Contact: "+1234567", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, appt.Status)
	assert.Equal(t, uint64(42), appt.SlotID)
	require.NotNil(t, appt.Slot)
	assert.False(t, appt.Slot.IsAvailable)
	assert.False(t, testutil.SlotAvailable(t, f.db, 42))
	assert.Equal(t, 1, testutil.CountAppointments(t, f.db, 42, model.StatusBooked))

	_, err = f.coord.BookSlot(ctx, booking.BookRequest{UserID: 2, SlotID: 42, Contact: "+7654321", Name: "B"})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	assert.Equal(t, 1, testutil.CountAppointments(t, f.db, 42, model.StatusBooked))

	cancelled, err := f.coord.CancelAppointment(ctx, 1, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.True(t, testutil.SlotAvailable(t, f.db, 42))
	assert.Equal(t, 0, testutil.CountAppointments(t, f.db, 42, model.StatusBooked))
	assert.Equal(t, 1, testutil.CountAppointments(t, f.db, 42, model.StatusCancelled))

	assert.Len(t, f.listener.booked, 1)
	assert.Len(t, f.listener.cancelled, 1)

	// the released slot can be booked again
	_, err = f.coord.BookSlot(ctx, booking.BookRequest{UserID: 2, SlotID: 42, Contact: "+7654321", Name: "B"})
	require.NoError(t, err)
}

func TestBookSlotUnknownSlot(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.BookSlot(context.Background(), booking.BookRequest{UserID: 1, SlotID: 999, Contact: "+1234567", Name: "A"})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	assert.Empty(t, f.listener.booked)
}

func TestBookSlotValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]booking.BookRequest{
		"missing contact": {UserID: 1, SlotID: 42, Name: "A"},
		"bad contact":     {UserID: 1, SlotID: 42, Contact: "call me", Name: "A"},
		"short contact":   {UserID: 1, SlotID: 42, Contact: "12345", Name: "A"},
		"missing name":    {UserID: 1, SlotID: 42, Contact: "+1234567", Name: "   "},
		"long name":       {UserID: 1, SlotID: 42, Contact: "+1234567", Name: strings.Repeat("a", 51)},
		"missing slot":    {UserID: 1, Contact: "+1234567", Name: "A"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.coord.BookSlot(context.Background(), req)
			assert.ErrorIs(t, err, booking.ErrValidation)
			var ve *booking.ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
	assert.True(t, testutil.SlotAvailable(t, f.db, 42))
}

func TestBookSlotRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)

	// user 77 does not exist: the appointment insert fails after the slot
	// was reserved, so the reservation must be rolled back
	_, err := f.coord.BookSlot(context.Background(), booking.BookRequest{UserID: 77, SlotID: 42, Contact: "+1234567", Name: "A"})
	assert.ErrorIs(t, err, booking.ErrUnknownUser)
	assert.NotErrorIs(t, err, booking.ErrStoreUnavailable, "a missing user is not worth retrying")

	assert.True(t, testutil.SlotAvailable(t, f.db, 42))
	assert.Equal(t, 0, testutil.CountAppointments(t, f.db, 42, model.StatusBooked))
}

func TestConcurrentBookingSameSlot(t *testing.T) {
	f := newFixture(t)
	for i := uint64(3); i <= 10; i++ {
		testutil.SeedUser(t, f.db, i, fmt.Sprintf("user%d@example.com", i))
	}

	// one handle per worker, so the transactions race on the database file
	// rather than queueing for a single pooled connection
	const workers = 10
	coords := make([]*booking.Coordinator, workers)
	for i := range coords {
		coords[i] = booking.NewCoordinator(
			repository.NewBookingStore(testutil.OpenSQLiteFile(t, f.path), database.SQLite),
			booking.WithTimeout(10*time.Second),
		)
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(coord *booking.Coordinator, uid uint64) {
			defer wg.Done()
			<-start
			_, err := coord.BookSlot(context.Background(), booking.BookRequest{
				UserID: uid, SlotID: 42, Contact: "+1234567", Name: "Racer",
			})
			results <- err
		}(coords[i], uint64(i+1))
	}
	close(start)
	wg.Wait()
	close(results)

	ok, unavailable := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, booking.ErrSlotUnavailable):
			unavailable++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, unavailable)
	assert.Equal(t, 1, testutil.CountAppointments(t, f.db, 42, model.StatusBooked))
	assert.False(t, testutil.SlotAvailable(t, f.db, 42))
}

func TestCancelAppointmentNotOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, err := f.coord.BookSlot(ctx, booking.BookRequest{UserID: 1, SlotID: 42, Contact: "+1234567", Name: "A"})
	require.NoError(t, err)

	_, err = f.coord.CancelAppointment(ctx, 2, appt.ID)
	assert.ErrorIs(t, err, booking.ErrNotFound)
	_, err = f.coord.CancelAppointment(ctx, 1, appt.ID+100)
	assert.ErrorIs(t, err, booking.ErrNotFound)

	assert.False(t, testutil.SlotAvailable(t, f.db, 42))
	assert.Equal(t, 1, testutil.CountAppointments(t, f.db, 42, model.StatusBooked))
	assert.Empty(t, f.listener.cancelled)
}

func TestCancelAppointmentTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, err := f.coord.BookSlot(ctx, booking.BookRequest{UserID: 1, SlotID: 42, Contact: "+1234567", Name: "A"})
	require.NoError(t, err)
	_, err = f.coord.CancelAppointment(ctx, 1, appt.ID)
	require.NoError(t, err)

	// someone else books the freed slot; a second cancel must not release it
	_, err = f.coord.BookSlot(ctx, booking.BookRequest{UserID: 2, SlotID: 42, Contact: "+7654321", Name: "B"})
	require.NoError(t, err)

	_, err = f.coord.CancelAppointment(ctx, 1, appt.ID)
	assert.ErrorIs(t, err, booking.ErrAlreadyCancelled)
	assert.False(t, testutil.SlotAvailable(t, f.db, 42))
}

func TestCancelCompletedAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, err := f.coord.BookSlot(ctx, booking.BookRequest{UserID: 1, SlotID: 42, Contact: "+1234567", Name: "A"})
	require.NoError(t, err)
	_, err = f.db.Exec(`UPDATE appointments SET status = 'completed' WHERE id = ?`, appt.ID)
	require.NoError(t, err)

	_, err = f.coord.CancelAppointment(ctx, 1, appt.ID)
	assert.ErrorIs(t, err, booking.ErrAppointmentClosed)
}

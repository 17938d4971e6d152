package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/slot-booking-api/internal/booking"
	"github.com/iliyamo/slot-booking-api/internal/database"
	"github.com/iliyamo/slot-booking-api/internal/model"
	"github.com/iliyamo/slot-booking-api/internal/testutil"
	"github.com/iliyamo/slot-booking-api/internal/utils"
)

func TestSlotRepoReserveRelease(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := NewSlotRepo(db, database.SQLite)
	ctx := context.Background()
	id := testutil.SeedSlot(t, db, 0, "2030-01-01", "09:00", "09:30")

	ok, err := repo.Reserve(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "second reserve must lose the compare-and-swap")

	ok, err = repo.Reserve(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Release(ctx, id))
	assert.True(t, testutil.SlotAvailable(t, db, id))
	assert.ErrorIs(t, repo.Release(ctx, 999), ErrNotFound)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlotRepoCreateBatchAndList(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := NewSlotRepo(db, database.SQLite)
	ctx := context.Background()

	windows := utils.GenerateTimeWindows()
	n, err := repo.CreateBatch(ctx, "2030-01-01", windows)
	require.NoError(t, err)
	assert.Equal(t, len(windows), n)

	n, err = repo.CreateBatch(ctx, "2030-01-01", windows)
	require.NoError(t, err)
	assert.Zero(t, n, "existing windows are skipped")

	slots, err := repo.ListAvailableByDate(ctx, "2030-01-01")
	require.NoError(t, err)
	require.Len(t, slots, len(windows))
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "16:30", slots[len(slots)-1].StartTime)

	ok, err := repo.Reserve(ctx, slots[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	slots, err = repo.ListAvailableByDate(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.Len(t, slots, len(windows)-1)
	assert.Equal(t, "09:30", slots[0].StartTime)

	slots, err = repo.ListAvailableByDate(ctx, "2030-01-02")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAppointmentRepo(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := NewAppointmentRepo(db, database.SQLite)
	ctx := context.Background()
	uid := testutil.SeedUser(t, db, 0, "a@example.com")
	late := testutil.SeedSlot(t, db, 0, "2030-01-02", "10:00", "10:30")
	early := testutil.SeedSlot(t, db, 0, "2030-01-01", "15:00", "15:30")

	first := &model.Appointment{UserID: uid, SlotID: late, Contact: "+1234567", Name: "A"}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, model.StatusBooked, first.Status)

	dup := &model.Appointment{UserID: uid, SlotID: late, Contact: "+1234567", Name: "A"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)

	second := &model.Appointment{UserID: uid, SlotID: early, Contact: "+1234567", Name: "A"}
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetForUser(ctx, uid, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "+1234567", got.Contact)
	assert.Nil(t, got.CancelledAt)

	_, err = repo.GetForUser(ctx, uid+1, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	ok, err := repo.Cancel(ctx, uid, first.ID, at)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Cancel(ctx, uid, first.ID, at)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = repo.GetForUser(ctx, uid, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, at.Equal(*got.CancelledAt))

	list, err := repo.ListByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "ordered by slot date")
	require.NotNil(t, list[0].Slot)
	assert.Equal(t, "2030-01-01", list[0].Slot.Date)

	list, err = repo.ListByUser(ctx, uid+1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWithTxRollsBack(t *testing.T) {
	db := testutil.NewSQLite(t)
	slots := NewSlotRepo(db, database.SQLite)
	id := testutil.SeedSlot(t, db, 0, "2030-01-01", "09:00", "09:30")
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, func(ctx context.Context) error {
		ok, err := slots.Reserve(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		// nested scope joins the outer transaction
		return WithTx(ctx, db, func(ctx context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, testutil.SlotAvailable(t, db, id))

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, func(ctx context.Context) error {
			_, _ = slots.Reserve(ctx, id)
			panic("kaboom")
		})
	})
	assert.True(t, testutil.SlotAvailable(t, db, id))
}

func TestBookingStoreErrorMapping(t *testing.T) {
	db := testutil.NewSQLite(t)
	store := NewBookingStore(db, database.SQLite)
	ctx := context.Background()

	assert.ErrorIs(t, store.ReserveSlot(ctx, 5), booking.ErrSlotUnavailable)
	_, err := store.GetAppointmentForUser(ctx, 1, 1)
	assert.ErrorIs(t, err, booking.ErrNotFound)
	assert.ErrorIs(t, store.MarkCancelled(ctx, 1, 1, time.Now()), booking.ErrAlreadyCancelled)
	assert.ErrorIs(t, store.ReleaseSlot(ctx, 5), booking.ErrStoreUnavailable)

	slotID := testutil.SeedSlot(t, db, 0, "2030-01-01", "09:00", "09:30")
	err = store.CreateAppointment(ctx, &model.Appointment{UserID: 99, SlotID: slotID, Contact: "+1234567", Name: "A", Status: model.StatusBooked})
	assert.ErrorIs(t, err, booking.ErrUnknownUser)
	assert.NotErrorIs(t, err, booking.ErrStoreUnavailable)

	require.NoError(t, db.Close())
	assert.ErrorIs(t, store.ReserveSlot(ctx, 5), booking.ErrStoreUnavailable)
	assert.ErrorIs(t, store.WithTx(ctx, func(context.Context) error { return nil }), booking.ErrStoreUnavailable)
}

func TestUserAndTokenRepos(t *testing.T) {
	db := testutil.NewSQLite(t)
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	u, err := users.Create(ctx, NewUser{Name: " Ann ", Email: "Ann@Example.com ", Password: "Passw0rd"}, 4)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, model.RoleCustomer, u.Role)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "Passw0rd"))

	_, err = users.Create(ctx, NewUser{Name: "Ann", Email: "ann@example.com", Password: "Passw0rd"}, 4)
	assert.ErrorIs(t, err, ErrEmailExists)

	byEmail, err := users.GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	hash := utils.HashRefreshRaw("raw")
	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, hash, time.Now().Add(time.Hour)))
	got, err := tokens.ValidateRefresh(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got)

	revoked, err := tokens.RevokeByHash(ctx, hash)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = tokens.RevokeByHash(ctx, hash)
	require.NoError(t, err)
	assert.False(t, revoked)
	_, err = tokens.ValidateRefresh(ctx, hash)
	assert.ErrorIs(t, err, ErrNotFound)

	expired := utils.HashRefreshRaw("old")
	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, expired, time.Now().Add(-time.Hour)))
	_, err = tokens.ValidateRefresh(ctx, expired)
	assert.ErrorIs(t, err, ErrNotFound)

	live := utils.HashRefreshRaw("live")
	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, live, time.Now().Add(time.Hour)))
	require.NoError(t, tokens.RevokeAllForUser(ctx, u.ID))
	_, err = tokens.ValidateRefresh(ctx, live)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicate(errors.New("plain")))
}

func TestIsForeignKey(t *testing.T) {
	assert.True(t, isForeignKey(&mysql.MySQLError{Number: 1452}))
	assert.True(t, isForeignKey(&mysql.MySQLError{Number: 1216}))
	assert.False(t, isForeignKey(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isForeignKey(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}))
	assert.False(t, isForeignKey(errors.New("plain")))
}

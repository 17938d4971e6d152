package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/slot-booking-api/internal/database"
	"github.com/iliyamo/slot-booking-api/internal/model"
)

// SlotRepo reads and mutates rows of the slots table.  Methods join the
// transaction carried by ctx, if any (see WithTx).
type SlotRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB, dialect database.Dialect) *SlotRepo {
	return &SlotRepo{db: db, dialect: dialect}
}

const slotColumns = `id, slot_date, start_time, end_time, is_available, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }, s *model.Slot) error {
	return row.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
}

// Reserve flips is_available from 1 to 0 for the slot.  It reports false
// when no row changed, which means the slot is missing or already taken.
// The conditional UPDATE is the compare-and-swap that serializes concurrent
// bookings of one slot.
func (r *SlotRepo) Reserve(ctx context.Context, slotID uint64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE slots SET is_available = 0, updated_at = ? WHERE id = ? AND is_available = 1`,
		time.Now().UTC(), slotID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release marks the slot available again.
func (r *SlotRepo) Release(ctx context.Context, slotID uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE slots SET is_available = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), slotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID loads a single slot.
func (r *SlotRepo) GetByID(ctx context.Context, slotID uint64) (model.Slot, error) {
	var s model.Slot
	err := scanSlot(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = ?`, slotID), &s)
	return s, notFound(err)
}

// ListAvailableByDate returns the free slots of a day ordered by start time.
func (r *SlotRepo) ListAvailableByDate(ctx context.Context, date string) ([]model.Slot, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE slot_date = ? AND is_available = 1 ORDER BY start_time`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Slot
	for rows.Next() {
		var s model.Slot
		if err := scanSlot(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateBatch inserts one available slot per window for date, skipping
// windows that already exist.  It returns the number of rows created.
func (r *SlotRepo) CreateBatch(ctx context.Context, date string, windows []model.TimeWindow) (int, error) {
	q := r.dialect.InsertIgnore() +
		` INTO slots (slot_date, start_time, end_time, is_available, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?)`
	created := 0
	err := WithTx(ctx, r.db, func(ctx context.Context) error {
		now := time.Now().UTC()
		c := conn(ctx, r.db)
		for _, w := range windows {
			res, err := c.ExecContext(ctx, q, date, w.StartTime, w.EndTime, now, now)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

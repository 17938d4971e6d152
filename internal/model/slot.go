package model

import "time"

// Slot is a bookable time window on a given day, stored in the `slots`
// table.  Date and times are kept as plain strings ("2006-01-02" and
// "15:04") so they compare lexically in SQL on every supported driver.
//
// Fields:
//
//	ID          – primary key identifier.
//	Date        – calendar day of the slot.
//	StartTime   – start of the window.
//	EndTime     – end of the window.
//	IsAvailable – false while a booked appointment references the slot.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Slot struct {
	ID          uint64    `json:"id"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TimeWindow is a start/end pair used when generating slots for a day.
type TimeWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

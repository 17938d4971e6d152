package utils

import (
	"errors"
	"time"

	"github.com/iliyamo/slot-booking-api/internal/model"
)

// DateLayout is the wire and storage format of slot dates.
const DateLayout = "2006-01-02"

// Business hours covered by generated slots.
const (
	dayStart     = 9 * 60  // 09:00 in minutes
	dayEnd       = 17 * 60 // 17:00
	slotDuration = 30
)

var ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")

// ParseISODate parses s as a calendar date in UTC.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// IsPastDate reports whether day lies before the calendar day of now.
// Today is not in the past.
func IsPastDate(day, now time.Time) bool {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.Before(today)
}

// GenerateTimeWindows returns the 30-minute windows between 09:00 and 17:00.
func GenerateTimeWindows() []model.TimeWindow {
	out := make([]model.TimeWindow, 0, (dayEnd-dayStart)/slotDuration)
	for m := dayStart; m+slotDuration <= dayEnd; m += slotDuration {
		out = append(out, model.TimeWindow{
			StartTime: clock(m),
			EndTime:   clock(m + slotDuration),
		})
	}
	return out
}

func clock(minutes int) string {
	return time.Date(0, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC).Format("15:04")
}

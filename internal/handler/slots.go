package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking-api/internal/repository"
	"github.com/iliyamo/slot-booking-api/internal/utils"
)

// SlotHandler serves slot listing and the admin slot generator.
type SlotHandler struct {
	Slots *repository.SlotRepo
	Dev   bool
	Now   func() time.Time
}

func NewSlotHandler(slots *repository.SlotRepo, dev bool) *SlotHandler {
	return &SlotHandler{Slots: slots, Dev: dev, Now: time.Now}
}

type slotView struct {
	ID        uint64 `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// parseDay validates a YYYY-MM-DD date that is today or later.  It writes
// the 400 response itself and reports ok=false when the date is unusable.
func (h *SlotHandler) parseDay(c echo.Context, raw string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, c.JSON(http.StatusBadRequest, errorBody{Error: "Date parameter is required in YYYY-MM-DD format"})
	}
	day, err := utils.ParseISODate(raw)
	if err != nil {
		return "", false, c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid date format. Use YYYY-MM-DD"})
	}
	if utils.IsPastDate(day, h.Now()) {
		return "", false, c.JSON(http.StatusBadRequest, errorBody{Error: "Cannot select past dates"})
	}
	return day.Format(utils.DateLayout), true, nil
}

// ListAvailable handles GET /v1/slots?date=YYYY-MM-DD.
func (h *SlotHandler) ListAvailable(c echo.Context) error {
	date, ok, err := h.parseDay(c, c.QueryParam("date"))
	if !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	slots, err := h.Slots.ListAvailableByDate(ctx, date)
	if err != nil {
		return internalError(c, h.Dev, "Failed to retrieve slots", err)
	}
	if len(slots) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No available slots for this date"})
	}

	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotView{ID: s.ID, StartTime: s.StartTime, EndTime: s.EndTime})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":            date,
		"available_slots": out,
		"count":           len(out),
	})
}

type generateReq struct {
	Date string `json:"date"`
}

// Generate handles POST /v1/admin/slots: it creates the day's 30-minute
// slots between 09:00 and 17:00, skipping ones that already exist.
func (h *SlotHandler) Generate(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}
	date, ok, err := h.parseDay(c, req.Date)
	if !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	windows := utils.GenerateTimeWindows()
	created, err := h.Slots.CreateBatch(ctx, date, windows)
	if err != nil {
		return internalError(c, h.Dev, "Failed to generate slots", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"date":    date,
		"created": created,
		"skipped": len(windows) - created,
	})
}

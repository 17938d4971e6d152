package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking-api/internal/booking"
	"github.com/iliyamo/slot-booking-api/internal/middleware"
	"github.com/iliyamo/slot-booking-api/internal/model"
	"github.com/iliyamo/slot-booking-api/internal/repository"
)

// AppointmentHandler translates the appointment routes into coordinator
// calls.  All routes run behind JWTAuth.
type AppointmentHandler struct {
	Coord        *booking.Coordinator
	Appointments *repository.AppointmentRepo
	Dev          bool
}

func NewAppointmentHandler(coord *booking.Coordinator, appts *repository.AppointmentRepo, dev bool) *AppointmentHandler {
	return &AppointmentHandler{Coord: coord, Appointments: appts, Dev: dev}
}

type bookReq struct {
	SlotID  uint64 `json:"slot_id"`
	Contact string `json:"contact"`
	Name    string `json:"name"`
}

// List handles GET /v1/appointments.
func (h *AppointmentHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Appointments.ListByUser(ctx, uid)
	if err != nil {
		return internalError(c, h.Dev, "Failed to retrieve appointments", err)
	}
	return c.JSON(http.StatusOK, list)
}

// Book handles POST /v1/appointments.
func (h *AppointmentHandler) Book(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}

	appt, err := h.Coord.BookSlot(c.Request().Context(), booking.BookRequest{
		UserID:  uid,
		SlotID:  req.SlotID,
		Contact: req.Contact,
		Name:    req.Name,
	})
	if err != nil {
		return respondError(c, h.Dev, err)
	}
	return c.JSON(http.StatusCreated, appt)
}

type cancelResp struct {
	Message     string            `json:"message"`
	Appointment model.Appointment `json:"appointment"`
}

// Cancel handles DELETE /v1/appointments/:id.
func (h *AppointmentHandler) Cancel(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid appointment id"})
	}

	appt, err := h.Coord.CancelAppointment(c.Request().Context(), uid, id)
	if err != nil {
		return respondError(c, h.Dev, err)
	}
	return c.JSON(http.StatusOK, cancelResp{Message: "Appointment cancelled successfully", Appointment: appt})
}

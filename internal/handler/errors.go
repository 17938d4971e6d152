package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking-api/internal/booking"
	"github.com/iliyamo/slot-booking-api/internal/logging"
)

// errorBody is the JSON shape of every error response.  Details carries the
// internal cause and is filled only in development.
type errorBody struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details string            `json:"details,omitempty"`
}

// statusOf maps the coordinator's error kinds to HTTP status codes and
// client-facing messages.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return http.StatusBadRequest, "validation failed"
	case errors.Is(err, booking.ErrSlotUnavailable):
		return http.StatusBadRequest, "Slot not available"
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound, "Appointment not found"
	case errors.Is(err, booking.ErrAlreadyCancelled):
		return http.StatusConflict, "Appointment already cancelled"
	case errors.Is(err, booking.ErrAppointmentClosed):
		return http.StatusConflict, "Appointment already completed"
	case errors.Is(err, booking.ErrUnknownUser):
		return http.StatusUnauthorized, "User no longer exists"
	case errors.Is(err, booking.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable, please retry"
	default:
		return http.StatusInternalServerError, "Something went wrong!"
	}
}

// respondError writes err as JSON.  Server-side failures are logged with the
// request-scoped logger.
func respondError(c echo.Context, dev bool, err error) error {
	status, msg := statusOf(err)
	body := errorBody{Error: msg}

	var ve *booking.ValidationError
	if errors.As(err, &ve) {
		body.Fields = ve.Fields
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error().Err(err).Msg("request failed")
		if dev {
			body.Details = err.Error()
		}
	}
	return c.JSON(status, body)
}

// internalError reports an unexpected failure with a fixed message.
func internalError(c echo.Context, dev bool, msg string, err error) error {
	logging.FromContext(c.Request().Context()).Error().Err(err).Msg(msg)
	body := errorBody{Error: msg}
	if dev {
		body.Details = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, body)
}

// HTTPErrorHandler renders errors that reach echo: unknown routes, bind
// failures, body-limit rejections and panics recovered by middleware.
func HTTPErrorHandler(dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			body := errorBody{Error: http.StatusText(he.Code)}
			switch {
			case he.Code == http.StatusNotFound:
				body.Error = "Endpoint not found"
			case he.Code == http.StatusMethodNotAllowed:
				body.Error = "Method not allowed"
			default:
				if m, ok := he.Message.(string); ok && m != "" {
					body.Error = m
				}
			}
			if c.Request().Method == http.MethodHead {
				_ = c.NoContent(he.Code)
				return
			}
			_ = c.JSON(he.Code, body)
			return
		}
		_ = respondError(c, dev, err)
	}
}

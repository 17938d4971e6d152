package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBooking(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(bookingOps.WithLabelValues("book", "ok"))
	ObserveBooking("book", "ok", 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(bookingOps.WithLabelValues("book", "ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	Register()
	IncHTTP("GET", "/v1/slots", 200)
	IncRateLimited("memory")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "slot_booking_http_requests_total")
	assert.Contains(t, rec.Body.String(), "slot_booking_rate_limited_total")
}

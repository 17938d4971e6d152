package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentStatus(t *testing.T) {
	assert.False(t, StatusBooked.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())

	assert.True(t, StatusBooked.Valid())
	assert.False(t, AppointmentStatus("pending").Valid())
}

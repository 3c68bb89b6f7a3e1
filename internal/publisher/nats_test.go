package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"shuttle/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "shuttle.vehicles.7", Subject("", 7))
	assert.Equal(t, "fleet.gps.12", Subject(" fleet.gps. ", 12))
	assert.Equal(t, "a_b.3", Subject("a b", 3))
}

func TestPositionMessageJSON(t *testing.T) {
	at := time.Date(2025, 1, 6, 7, 30, 0, 0, time.FixedZone("PHT", 8*3600))
	msg := NewPositionMessage(models.VehicleLocation{
		VehicleID: 4, Latitude: 14.65, Longitude: 121.07, Speed: 32.5, Heading: 90, RecordedAt: at,
	})

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vehicleId":4,"timestamp":"2025-01-05T23:30:00Z","lat":14.65,"lon":121.07,"speed":32.5,"heading":90}`, string(b))
}

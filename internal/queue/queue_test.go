package queue

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

func sampleReservation() *model.Reservation {
	return &model.Reservation{
		ID:       42,
		UserID:   7,
		RoomID:   3,
		CheckIn:  time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		Guests:   2,
		Status:   model.StatusConfirmed,
	}
}

func TestNewReservationEvent(t *testing.T) {
	room := &model.Room{ID: 3, Name: "Chambre 103", NightlyRateCents: 8000, IsActive: true}
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	ev := NewReservationEvent(EventReservationConfirmed, sampleReservation(), room, 2, at)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, EventReservationConfirmed, ev.Type)
	assert.Equal(t, "2024-06-10", ev.CheckIn)
	assert.Equal(t, "2024-06-12", ev.CheckOut)
	assert.Equal(t, "Chambre 103", ev.RoomName)
	assert.EqualValues(t, 16000, ev.TotalAmountCents)
	assert.Equal(t, "2024-06-01T09:30:00Z", ev.OccurredAt)

	noRoom := NewReservationEvent(EventReservationCancelled, sampleReservation(), nil, 2, at)
	assert.Empty(t, noRoom.RoomName)
	assert.Zero(t, noRoom.TotalAmountCents)
	assert.NotEqual(t, ev.EventID, noRoom.EventID)
}

func TestAuditLogAppend(t *testing.T) {
	audit := NewAuditLog(t.TempDir())
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	for _, typ := range []EventType{EventReservationConfirmed, EventReservationCancelled} {
		body, err := json.Marshal(NewReservationEvent(typ, sampleReservation(), nil, 2, at))
		require.NoError(t, err)
		require.NoError(t, audit.Append(body))
	}

	data, err := os.ReadFile(audit.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Reservation confirmed | reservation_id=42")
	assert.Contains(t, lines[1], "Reservation cancelled | reservation_id=42")
	assert.Contains(t, lines[1], "check_in=2024-06-10 | check_out=2024-06-12")

	assert.Error(t, audit.Append([]byte("not json")))
}

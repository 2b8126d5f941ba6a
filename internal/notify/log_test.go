package notify

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/maintenance-tracker/internal/reminder"
)

func TestLogPublisher(t *testing.T) {
	log, hook := test.NewNullLogger()
	pub := NewLogPublisher(log)

	err := pub.Publish(context.Background(), Trigger{
		ID:      "r1:day",
		FiresAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Payload: reminder.Payload{
			Title:     reminder.Title,
			Body:      "Maintenance tomorrow for Toyota Corolla: Oil change",
			VehicleID: "v1",
			RecordID:  "r1",
		},
	})

	require.NoError(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Maintenance tomorrow for Toyota Corolla: Oil change", entry.Message)
	assert.Equal(t, "v1", entry.Data["vehicle_id"])
	assert.Equal(t, "r1:day", entry.Data["trigger_id"])
}

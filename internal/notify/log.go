package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogPublisher writes reminders to the log. It stands in for a broker when
// none is configured.
type LogPublisher struct {
	log logrus.FieldLogger
}

// NewLogPublisher returns a publisher logging to log.
func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish never fails.
func (p *LogPublisher) Publish(_ context.Context, t Trigger) error {
	p.log.WithFields(logrus.Fields{
		"trigger_id": t.ID,
		"vehicle_id": t.Payload.VehicleID,
		"record_id":  t.Payload.RecordID,
		"fires_at":   t.FiresAt,
	}).Info(t.Payload.Body)
	return nil
}

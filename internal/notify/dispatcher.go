package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zoobzio/clockz"
)

const defaultBatchSize = 100

// Dispatcher periodically drains due triggers from a Queue and hands them to a
// Publisher. A trigger that fails to publish is logged and dropped.
type Dispatcher struct {
	queue     Queue
	publisher Publisher
	clock     clockz.Clock
	interval  time.Duration
	batch     int
	log       logrus.FieldLogger
}

// NewDispatcher returns a Dispatcher polling every interval.
func NewDispatcher(queue Queue, publisher Publisher, interval time.Duration, log logrus.FieldLogger) *Dispatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		queue:     queue,
		publisher: publisher,
		clock:     clockz.RealClock,
		interval:  interval,
		batch:     defaultBatchSize,
		log:       log,
	}
}

// WithClock sets the time source and returns the dispatcher.
func (d *Dispatcher) WithClock(c clockz.Clock) *Dispatcher {
	d.clock = c
	return d
}

// Run dispatches until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.WithField("interval", d.interval.String()).Info("reminder dispatcher started")
	for {
		if _, err := d.DispatchDue(ctx); err != nil && ctx.Err() == nil {
			d.log.WithError(err).Error("failed to read due reminders")
		}
		select {
		case <-ctx.Done():
			d.log.Info("reminder dispatcher stopped")
			return ctx.Err()
		case <-d.clock.After(d.interval):
		}
	}
}

// DispatchDue publishes every trigger due now and returns how many were delivered.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	sent := 0
	for {
		triggers, err := d.queue.PopDue(ctx, d.clock.Now(), d.batch)
		if err != nil {
			return sent, err
		}
		for _, t := range triggers {
			fields := logrus.Fields{
				"trigger_id": t.ID,
				"vehicle_id": t.Payload.VehicleID,
				"record_id":  t.Payload.RecordID,
			}
			if err := d.publisher.Publish(ctx, t); err != nil {
				d.log.WithFields(fields).WithError(err).Warn("failed to publish reminder")
				continue
			}
			d.log.WithFields(fields).Debug("reminder published")
			sent++
		}
		if len(triggers) < d.batch {
			return sent, nil
		}
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// MQTTPublisher publishes fired reminders to {prefix}/{vehicleID}/reminders.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
	qos    byte
}

// NewMQTTPublisher connects to broker and returns a publisher using QoS 1.
func NewMQTTPublisher(broker, clientID, prefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, err)
	}
	return NewMQTTPublisherWithClient(client, prefix), nil
}

// NewMQTTPublisherWithClient wraps an already configured client.
func NewMQTTPublisherWithClient(client mqtt.Client, prefix string) *MQTTPublisher {
	if prefix == "" {
		prefix = "maintenance"
	}
	return &MQTTPublisher{client: client, prefix: prefix, qos: 1}
}

// Topic returns the topic reminders for vehicleID are published on.
func (p *MQTTPublisher) Topic(vehicleID string) string {
	return fmt.Sprintf("%s/%s/reminders", p.prefix, vehicleID)
}

// Publish sends t as JSON and waits for the broker to accept it.
func (p *MQTTPublisher) Publish(ctx context.Context, t Trigger) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode trigger %s: %w", t.ID, err)
	}

	token := p.client.Publish(p.Topic(t.Payload.VehicleID), p.qos, false, body)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("timed out publishing trigger %s", t.ID)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish trigger %s: %w", t.ID, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ukydev/maintenance-tracker/internal/reminder"
)

// RedisConfig holds the single-node connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("no Redis address provided")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisNotifier keeps triggers in a sorted set scored by fire time (unix ms)
// with the trigger bodies in a hash, both keyed by trigger id.
type RedisNotifier struct {
	client     *redis.Client
	dueKey     string
	payloadKey string
	log        logrus.FieldLogger
}

// NewRedisNotifier stores triggers under keys prefixed with prefix.
func NewRedisNotifier(client *redis.Client, prefix string) *RedisNotifier {
	if prefix == "" {
		prefix = "maintenance"
	}
	return &RedisNotifier{
		client:     client,
		dueKey:     prefix + ":reminders:due",
		payloadKey: prefix + ":reminders:payload",
		log:        logrus.StandardLogger(),
	}
}

// WithLogger sets the logger used for triggers that cannot be decoded.
func (n *RedisNotifier) WithLogger(log logrus.FieldLogger) *RedisNotifier {
	if log != nil {
		n.log = log
	}
	return n
}

// Register stores or replaces the trigger with the given id.
func (n *RedisNotifier) Register(ctx context.Context, id string, firesAt time.Time, payload reminder.Payload) error {
	body, err := json.Marshal(Trigger{ID: id, FiresAt: firesAt.UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode trigger %s: %w", id, err)
	}
	_, err = n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, n.dueKey, redis.Z{Score: float64(firesAt.UnixMilli()), Member: id})
		pipe.HSet(ctx, n.payloadKey, id, body)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register trigger %s: %w", id, err)
	}
	return nil
}

// Cancel removes the trigger with the given id, if any.
func (n *RedisNotifier) Cancel(ctx context.Context, id string) error {
	_, err := n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, n.dueKey, id)
		pipe.HDel(ctx, n.payloadKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cancel trigger %s: %w", id, err)
	}
	return nil
}

// popDue removes due ids and their bodies in one step so a trigger re-registered
// concurrently is never lost.
var popDue = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
local out = {}
for _, id in ipairs(ids) do
  local body = redis.call('HGET', KEYS[2], id)
  redis.call('ZREM', KEYS[1], id)
  redis.call('HDEL', KEYS[2], id)
  if body then
    table.insert(out, body)
  end
end
return out
`)

// PopDue removes and returns up to limit triggers due at or before now, earliest first.
func (n *RedisNotifier) PopDue(ctx context.Context, now time.Time, limit int) ([]Trigger, error) {
	if limit <= 0 {
		limit = 100
	}
	bodies, err := popDue.Run(ctx, n.client, []string{n.dueKey, n.payloadKey}, now.UnixMilli(), limit).StringSlice()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to pop due triggers: %w", err)
	}

	return decodeTriggers(bodies, n.log), nil
}

// decodeTriggers skips bodies that do not decode. They are already removed from
// Redis, so failing the batch would drop the valid triggers with them.
func decodeTriggers(bodies []string, log logrus.FieldLogger) []Trigger {
	triggers := make([]Trigger, 0, len(bodies))
	for _, body := range bodies {
		var t Trigger
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			log.WithError(err).WithField("body", body).Warn("Dropping undecodable reminder trigger")
			continue
		}
		triggers = append(triggers, t)
	}
	return triggers
}

// Pending returns the number of registered triggers.
func (n *RedisNotifier) Pending(ctx context.Context) (int64, error) {
	return n.client.ZCard(ctx, n.dueKey).Result()
}

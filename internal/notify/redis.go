package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel a principal's sessions subscribe to.
func Channel(principalID string) string {
	return "principal:" + principalID
}

// RedisNotifier publishes events as JSON on per-principal channels.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	if client == nil {
		return nil
	}
	return &RedisNotifier{client: client}
}

func (r *RedisNotifier) Publish(ctx context.Context, principalID string, evt Event) error {
	if r == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	if err := r.client.Publish(ctx, Channel(principalID), payload).Err(); err != nil {
		return fmt.Errorf("notify: redis publish: %w", err)
	}
	return nil
}

var _ Notifier = (*RedisNotifier)(nil)

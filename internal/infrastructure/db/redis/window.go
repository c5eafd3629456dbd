package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrExpireScript increments the counter and starts its window on first hit.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// WindowCounter is a fixed-window request counter shared by every API
// instance pointing at the same Redis.
type WindowCounter struct {
	client *redis.Client
	window time.Duration
}

func NewWindowCounter(client *redis.Client, window time.Duration) *WindowCounter {
	return &WindowCounter{client: client, window: window}
}

// Hit records one request for key and returns the count inside the current
// window and the time left until it resets.
func (w *WindowCounter) Hit(ctx context.Context, key string) (int, time.Duration, error) {
	k := "rl:" + key
	res, err := incrExpireScript.Run(ctx, w.client, []string{k}, w.window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("rate window: %w", err)
	}

	ttl, err := w.client.PTTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		ttl = w.window
	}
	return toInt(res), ttl, nil
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}

package lock

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const acquirePollInterval = 20 * time.Millisecond

// Redis is a Locker backed by SET NX PX with a random per-acquisition token.
// The TTL bounds how long a crashed holder can block a slot.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Acquire(ctx context.Context, key string, timeout time.Duration) (Handle, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(timeout)

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &redisHandle{client: r.client, key: key, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquirePollInterval):
		}
	}
}

type redisHandle struct {
	client *redis.Client
	key    string
	token  string
	once   sync.Once
}

func (h *redisHandle) Release(ctx context.Context) error {
	var err error
	h.once.Do(func() {
		err = releaseScript.Run(ctx, h.client, []string{h.key}, h.token).Err()
		if err == redis.Nil {
			err = nil
		}
	})
	return err
}

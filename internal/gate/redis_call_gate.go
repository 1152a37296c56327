package gate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
)

const acquirePollInterval = 25 * time.Millisecond

// releaseScript deletes the lease key only while it still carries the
// caller's owner token. Compare and delete must be one atomic step: with a
// separate GET and DEL, the lease could expire and be re-acquired in between,
// and the DEL would destroy the new holder's lease.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// RedisCallGate is a lease on a Redis key, so that at most one gateway
// instance mutates the ledger snapshot at a time. The lease value is a
// per-acquire owner token; release only deletes the key while the token still
// matches, and the TTL bounds how long a crashed holder can block others.
type RedisCallGate struct {
	client rueidis.Client
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	owner string
}

func NewRedisCallGate(client rueidis.Client, key string, ttl time.Duration) *RedisCallGate {
	return &RedisCallGate{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (g *RedisCallGate) Acquire(ctx context.Context) error {
	owner := uuid.NewString()

	for {
		cmd := g.client.B().Set().Key(g.key).Value(owner).
			Nx().Px(g.ttl).Build()

		err := g.client.Do(ctx, cmd).Error()
		if err == nil {
			g.mu.Lock()
			g.owner = owner
			g.mu.Unlock()
			return nil
		}
		if !rueidis.IsRedisNil(err) {
			return err
		}

		select {
		case <-time.After(acquirePollInterval):
		case <-ctx.Done():
			return apperrors.ErrGateBusy
		}
	}
}

func (g *RedisCallGate) Release(ctx context.Context) error {
	g.mu.Lock()
	owner := g.owner
	g.owner = ""
	g.mu.Unlock()

	if owner == "" {
		return nil
	}

	cmd := g.client.B().Eval().Script(releaseScript).
		Numkeys(1).Key(g.key).Arg(owner).Build()
	return g.client.Do(ctx, cmd).Error()
}

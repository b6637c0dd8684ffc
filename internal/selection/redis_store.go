package selection

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"showtime/internal/shared/apperrors"
	"showtime/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps session metadata in a hash and the picked seats in a sorted set
// scored by pick order. Both keys share one TTL.
type redisStore struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) Store {
	return &redisStore{redis: client, ttl: ttl}
}

func (r *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	meta, err := r.redis.HGetAll(ctx, constants.SelectionSessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read selection session: %w", err)
	}
	if len(meta) == 0 {
		return nil, apperrors.NotFound("selection session", id)
	}

	seatIDs, err := r.redis.ZRange(ctx, constants.SelectionSeatsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read selected seats: %w", err)
	}

	eventID, err := strconv.Atoi(meta["event_id"])
	if err != nil {
		return nil, fmt.Errorf("corrupt selection session %s: %w", id, err)
	}

	session := &Session{ID: id, EventID: eventID, Seats: seatIDs}
	session.CreatedAt, _ = time.Parse(time.RFC3339Nano, meta["created_at"])
	session.UpdatedAt, _ = time.Parse(time.RFC3339Nano, meta["updated_at"])
	return session, nil
}

func (r *redisStore) Save(ctx context.Context, session *Session) error {
	metaKey := constants.SelectionSessionKey(session.ID)
	seatsKey := constants.SelectionSeatsKey(session.ID)

	pipe := r.redis.TxPipeline()
	pipe.HSet(ctx, metaKey,
		"event_id", strconv.Itoa(session.EventID),
		"created_at", session.CreatedAt.Format(time.RFC3339Nano),
		"updated_at", session.UpdatedAt.Format(time.RFC3339Nano),
	)
	pipe.Del(ctx, seatsKey)
	if len(session.Seats) > 0 {
		members := make([]redis.Z, len(session.Seats))
		for i, id := range session.Seats {
			members[i] = redis.Z{Score: float64(i), Member: id}
		}
		pipe.ZAdd(ctx, seatsKey, members...)
		pipe.Expire(ctx, seatsKey, r.ttl)
	}
	pipe.Expire(ctx, metaKey, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save selection session: %w", err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	if err := r.redis.Del(ctx, constants.SelectionSessionKey(id), constants.SelectionSeatsKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete selection session: %w", err)
	}
	return nil
}

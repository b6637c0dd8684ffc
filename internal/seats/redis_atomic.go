package seats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"showtime/internal/shared/apperrors"
	"showtime/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

// Lua script for an atomic overlay commit - check every seat, then write every seat
const luaAtomicSeatCommit = `
-- KEYS[1] = overlay hash (seat id -> status)
-- KEYS[2] = overlay updated_at
-- ARGV[1] = new status
-- ARGV[2] = event id
-- ARGV[3] = updated_at
-- ARGV[4] = seat count n
-- ARGV[5 .. 4+n] = seat ids
-- ARGV[5+n .. 4+2n] = baseline status of each seat

local status = ARGV[1]
local n = tonumber(ARGV[4])

if status == "booked" then
    local conflicts = {}
    for i = 1, n do
        local seat_id = ARGV[4 + i]
        local current = redis.call("HGET", KEYS[1], seat_id)
        if not current then
            current = ARGV[4 + n + i]
        end
        if current ~= "available" then
            table.insert(conflicts, seat_id)
        end
    end
    if #conflicts > 0 then
        return {0, conflicts}
    end
end

for i = 1, n do
    redis.call("HSET", KEYS[1], ARGV[4 + i], status)
end
redis.call("SET", KEYS[2], ARGV[3])

return {1, {}}
`

var seatCommitScript = redis.NewScript(luaAtomicSeatCommit)

// redisStore keeps overlays as Redis hashes and commits through a single Lua script.
type redisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{redis: client}
}

// PreloadScripts loads the commit script so the first commit can use EVALSHA
func PreloadScripts(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return fmt.Errorf("redis client not available")
	}
	if err := seatCommitScript.Load(ctx, client).Err(); err != nil {
		return fmt.Errorf("failed to load seat commit script: %w", err)
	}
	return nil
}

func (a *redisStore) GetOverlay(ctx context.Context, eventID int) (*AvailabilityOverlay, error) {
	raw, err := a.redis.HGetAll(ctx, constants.AvailabilityOverlayKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay for event %d: %w", eventID, err)
	}

	overlay := &AvailabilityOverlay{EventID: eventID, SeatOverlay: make(SeatOverlay, len(raw))}
	for seatID, status := range raw {
		overlay.SeatOverlay[seatID] = SeatStatus(status)
	}

	updatedAt, err := a.updatedAt(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if updatedAt != nil {
		overlay.UpdatedAt = *updatedAt
	}
	return overlay, nil
}

func (a *redisStore) Commit(ctx context.Context, req CommitRequest) error {
	// Both keys carry the event's hash tag; the global index is updated outside the script
	keys := []string{
		constants.AvailabilityOverlayKey(req.EventID),
		constants.AvailabilityUpdatedAtKey(req.EventID),
	}

	args := make([]interface{}, 0, 4+2*len(req.SeatIDs))
	args = append(args,
		string(req.Status),
		strconv.Itoa(req.EventID),
		time.Now().UTC().Format(time.RFC3339Nano),
		strconv.Itoa(len(req.SeatIDs)),
	)
	for _, id := range req.SeatIDs {
		args = append(args, id)
	}
	for _, id := range req.SeatIDs {
		baseline, ok := req.Baseline[id]
		if !ok {
			baseline = StatusAvailable
		}
		args = append(args, string(baseline))
	}

	// Run tries EVALSHA first and falls back to EVAL when the script is not cached
	result, err := seatCommitScript.Run(ctx, a.redis, keys, args...).Result()
	if err != nil {
		return fmt.Errorf("failed to execute atomic seat commit: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return fmt.Errorf("unexpected result format from Lua script")
	}

	success, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("invalid success flag in Lua script result")
	}
	if success == 1 {
		if err := a.redis.SAdd(ctx, constants.KEY_AVAILABILITY_INDEX, strconv.Itoa(req.EventID)).Err(); err != nil {
			return fmt.Errorf("failed to index overlay for event %d: %w", req.EventID, err)
		}
		return nil
	}

	rawConflicts, _ := resultArray[1].([]interface{})
	conflicts := make([]string, 0, len(rawConflicts))
	for _, c := range rawConflicts {
		if id, ok := c.(string); ok {
			conflicts = append(conflicts, id)
		}
	}
	return &apperrors.SeatConflictError{EventID: req.EventID, SeatIDs: conflicts}
}

func (a *redisStore) Reset(ctx context.Context, eventID int) error {
	if err := a.redis.Del(ctx, constants.AvailabilityOverlayKey(eventID), constants.AvailabilityUpdatedAtKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to reset overlay for event %d: %w", eventID, err)
	}
	if err := a.redis.SRem(ctx, constants.KEY_AVAILABILITY_INDEX, strconv.Itoa(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to unindex overlay for event %d: %w", eventID, err)
	}
	return nil
}

func (a *redisStore) Stats(ctx context.Context) (*OverlayStats, error) {
	members, err := a.redis.SMembers(ctx, constants.KEY_AVAILABILITY_INDEX).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list overlays: %w", err)
	}

	overlays := make([]*AvailabilityOverlay, 0, len(members))
	for _, m := range members {
		eventID, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		overlay, err := a.GetOverlay(ctx, eventID)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, overlay)
	}
	return summarise(overlays), nil
}

func (a *redisStore) updatedAt(ctx context.Context, eventID int) (*time.Time, error) {
	raw, err := a.redis.Get(ctx, constants.AvailabilityUpdatedAtKey(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay timestamp: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid overlay timestamp %q: %w", raw, err)
	}
	return &ts, nil
}

package constants

import (
	"fmt"
	"time"
)

// Redis key registry.
// Pattern: showtime:{module}:{operation}:{identifier}, or
// showtime:{<module>:<id>}:{name} for keys that must share a cluster slot

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_REALTIME_SHORT = 30 * time.Second // effective seat availability
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "showtime"
)

// ================== AVAILABILITY MODULE ==================

// Per-event keys share the {availability:<id>} hash tag so a commit script touching
// several of them stays in one Redis Cluster slot.
const (
	// Durable overlay hash: seat id -> status
	KEY_AVAILABILITY_OVERLAY = "overlay"
	// Last write timestamp of an overlay (RFC3339Nano)
	KEY_AVAILABILITY_UPDATED_AT = "updated_at"
	// Set of event ids that own an overlay
	KEY_AVAILABILITY_INDEX = CACHE_PREFIX + ":availability:events"

	// Bumped on every write; the cached merged view is keyed by it
	KEY_AVAILABILITY_GENERATION = "generation"
	// Cached merged view
	CACHE_KEY_AVAILABILITY_EFFECTIVE = "effective"
)

// ================== SELECTION MODULE ==================

const (
	KEY_SELECTION_SESSION = "session"
	KEY_SELECTION_SEATS   = "seats"
)

// ================== RATE LIMIT MODULE ==================

const (
	KEY_RATE_LIMIT = CACHE_PREFIX + ":ratelimit:" // + ip:type
)

// ================== KEY BUILDERS ==================

func availabilityKey(eventID int, name string) string {
	return fmt.Sprintf("%s:{availability:%d}:%s", CACHE_PREFIX, eventID, name)
}

func AvailabilityOverlayKey(eventID int) string {
	return availabilityKey(eventID, KEY_AVAILABILITY_OVERLAY)
}

func AvailabilityUpdatedAtKey(eventID int) string {
	return availabilityKey(eventID, KEY_AVAILABILITY_UPDATED_AT)
}

func AvailabilityGenerationKey(eventID int) string {
	return availabilityKey(eventID, KEY_AVAILABILITY_GENERATION)
}

// EffectiveAvailabilityCacheKey names the merged view built at a given generation.
func EffectiveAvailabilityCacheKey(eventID int, generation int64) string {
	return fmt.Sprintf("%s:%d", availabilityKey(eventID, CACHE_KEY_AVAILABILITY_EFFECTIVE), generation)
}

func selectionKey(sessionID, name string) string {
	return fmt.Sprintf("%s:{selection:%s}:%s", CACHE_PREFIX, sessionID, name)
}

func SelectionSessionKey(sessionID string) string {
	return selectionKey(sessionID, KEY_SELECTION_SESSION)
}

func SelectionSeatsKey(sessionID string) string {
	return selectionKey(sessionID, KEY_SELECTION_SEATS)
}

func RateLimitKey(clientIP, limitType string) string {
	return fmt.Sprintf("%s%s:%s", KEY_RATE_LIMIT, clientIP, limitType)
}

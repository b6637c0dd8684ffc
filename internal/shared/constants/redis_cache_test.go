package constants

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashTag returns the part of key Redis Cluster hashes to pick a slot.
func hashTag(t *testing.T, key string) string {
	t.Helper()
	open := strings.Index(key, "{")
	require.GreaterOrEqual(t, open, 0, "key %s has no hash tag", key)
	end := strings.Index(key[open:], "}")
	require.Greater(t, end, 1, "key %s has an empty hash tag", key)
	return key[open+1 : open+end]
}

func TestAvailabilityKeysShareOneSlot(t *testing.T) {
	keys := []string{
		AvailabilityOverlayKey(42),
		AvailabilityUpdatedAtKey(42),
		AvailabilityGenerationKey(42),
		EffectiveAvailabilityCacheKey(42, 7),
	}
	for _, key := range keys {
		assert.Equal(t, "availability:42", hashTag(t, key), key)
	}

	assert.NotEqual(t, AvailabilityOverlayKey(42), AvailabilityOverlayKey(43))
	assert.NotEqual(t, EffectiveAvailabilityCacheKey(42, 1), EffectiveAvailabilityCacheKey(42, 2))
	assert.True(t, strings.HasPrefix(AvailabilityOverlayKey(42), CACHE_PREFIX+":"))
}

func TestSelectionKeysShareOneSlot(t *testing.T) {
	session := SelectionSessionKey("abc")
	seats := SelectionSeatsKey("abc")

	assert.Equal(t, "selection:abc", hashTag(t, session))
	assert.Equal(t, hashTag(t, session), hashTag(t, seats))
	assert.NotEqual(t, session, seats)
}

//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"showtime/internal/shared/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSlidingWindowAgainstRedis(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: "localhost:" + port.Port()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, config.RateLimitConfig{
		Enabled:                 true,
		WindowDuration:          time.Minute,
		BookingCriticalRequests: 2,
	})

	for i := 0; i < 2; i++ {
		result, err := limiter.IsAllowed(ctx, "10.1.1.1", RateLimitTypeBookingCritical)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 1-i, result.Remaining)
	}

	result, err := limiter.IsAllowed(ctx, "10.1.1.1", RateLimitTypeBookingCritical)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)

	// Other clients keep their own window
	result, err = limiter.IsAllowed(ctx, "10.1.1.2", RateLimitTypeBookingCritical)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

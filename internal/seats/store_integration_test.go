//go:build integration

package seats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"showtime/internal/shared/apperrors"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type StoreIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	redisC      testcontainers.Container
	postgresC   testcontainers.Container
	redisClient *redis.Client
	db          *gorm.DB
}

func TestStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(StoreIntegrationSuite))
}

func (s *StoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.redisC, err = testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(s.T(), err, "Failed to start Redis container")

	redisPort, err := s.redisC.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: "localhost:" + redisPort.Port()})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())
	require.NoError(s.T(), PreloadScripts(s.ctx, s.redisClient))

	s.postgresC, err = testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "showtime",
				"POSTGRES_PASSWORD": "showtime",
				"POSTGRES_DB":       "showtime",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(s.T(), err, "Failed to start Postgres container")

	pgPort, err := s.postgresC.MappedPort(s.ctx, "5432/tcp")
	require.NoError(s.T(), err)
	dsn := fmt.Sprintf("host=localhost user=showtime password=showtime dbname=showtime port=%s sslmode=disable", pgPort.Port())
	s.db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.db.AutoMigrate(&AvailabilityOverlay{}))
}

func (s *StoreIntegrationSuite) TearDownSuite() {
	if s.redisC != nil {
		require.NoError(s.T(), s.redisC.Terminate(s.ctx))
	}
	if s.postgresC != nil {
		require.NoError(s.T(), s.postgresC.Terminate(s.ctx))
	}
}

func (s *StoreIntegrationSuite) stores() map[string]Store {
	return map[string]Store{
		"redis":    NewRedisStore(s.redisClient),
		"postgres": NewPostgresStore(s.db),
	}
}

func (s *StoreIntegrationSuite) TestCommitConflictAndReset() {
	for name, store := range s.stores() {
		s.Run(name, func() {
			const eventID = 501
			defer store.Reset(s.ctx, eventID)

			baseline := map[string]SeatStatus{"A1": StatusBooked, "A2": StatusAvailable, "A3": StatusAvailable}

			err := store.Commit(s.ctx, CommitRequest{EventID: eventID, SeatIDs: []string{"A2", "A3"}, Status: StatusBooked, Baseline: baseline})
			s.Require().NoError(err)

			err = store.Commit(s.ctx, CommitRequest{EventID: eventID, SeatIDs: []string{"A3", "A1"}, Status: StatusBooked, Baseline: baseline})
			var conflict *apperrors.SeatConflictError
			s.Require().True(errors.As(err, &conflict))
			s.Equal([]string{"A3", "A1"}, conflict.SeatIDs)

			overlay, err := store.GetOverlay(s.ctx, eventID)
			s.Require().NoError(err)
			s.Equal(SeatOverlay{"A2": StatusBooked, "A3": StatusBooked}, overlay.SeatOverlay)
			s.False(overlay.UpdatedAt.IsZero())

			stats, err := store.Stats(s.ctx)
			s.Require().NoError(err)
			s.Equal(1, stats.EventsWithUpdates)
			s.Equal(2, stats.TotalSeatUpdates)

			s.Require().NoError(store.Reset(s.ctx, eventID))
			overlay, err = store.GetOverlay(s.ctx, eventID)
			s.Require().NoError(err)
			s.Empty(overlay.SeatOverlay)
		})
	}
}

func (s *StoreIntegrationSuite) TestConcurrentCommitHasOneWinner() {
	for name, store := range s.stores() {
		s.Run(name, func() {
			const (
				eventID    = 502
				contenders = 20
			)
			defer store.Reset(s.ctx, eventID)

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)
			for i := 0; i < contenders; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := store.Commit(s.ctx, CommitRequest{
						EventID:  eventID,
						SeatIDs:  []string{"B4", "B5"},
						Status:   StatusBooked,
						Baseline: map[string]SeatStatus{},
					})
					if err == nil {
						mu.Lock()
						wins++
						mu.Unlock()
						return
					}
					var conflict *apperrors.SeatConflictError
					s.True(errors.As(err, &conflict), "unexpected error: %v", err)
				}()
			}
			wg.Wait()

			s.Equal(1, wins)
		})
	}
}

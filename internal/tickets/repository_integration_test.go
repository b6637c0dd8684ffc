//go:build integration

package tickets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"showtime/internal/shared/apperrors"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	postgresC testcontainers.Container
	db        *gorm.DB
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
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

	port, err := s.postgresC.MappedPort(s.ctx, "5432/tcp")
	require.NoError(s.T(), err)
	dsn := fmt.Sprintf("host=localhost user=showtime password=showtime dbname=showtime port=%s sslmode=disable", port.Port())
	s.db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.db.AutoMigrate(&Ticket{}))
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.postgresC != nil {
		require.NoError(s.T(), s.postgresC.Terminate(s.ctx))
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.db.Exec("TRUNCATE TABLE tickets").Error)
}

func (s *RepositoryIntegrationSuite) ticket(id, bookingID string) *Ticket {
	return &Ticket{
		ID:            id,
		UserID:        "u1",
		EventID:       1,
		BookingID:     bookingID,
		EventTitle:    "Hamlet",
		SeatIDs:       []string{"A1"},
		TotalAmount:   85,
		PaymentMethod: "creditcard",
		BookingDate:   time.Now().UTC(),
		Status:        StatusActive,
	}
}

func (s *RepositoryIntegrationSuite) TestUniqueViolationsAreToldApart() {
	repo := NewRepository(s.db)
	s.Require().NoError(repo.Create(s.ctx, s.ticket("TKT-1-AAAAAAAA", "BC1")))

	err := repo.Create(s.ctx, s.ticket("TKT-1-BBBBBBBB", "BC1"))
	var dup *apperrors.DuplicateBookingError
	s.True(errors.As(err, &dup), "same booking id: %v", err)

	err = repo.Create(s.ctx, s.ticket("TKT-1-AAAAAAAA", "BC2"))
	s.ErrorIs(err, ErrTicketIDTaken)
	s.False(errors.As(err, &dup))
}

func (s *RepositoryIntegrationSuite) TestServiceRetriesCollidingID() {
	svc := NewService(NewRepository(s.db)).(*service)
	s.Require().NoError(NewRepository(s.db).Create(s.ctx, s.ticket("TKT-1-AAAAAAAA", "BC1")))

	ids := []string{"TKT-1-AAAAAAAA", "TKT-1-CCCCCCCC"}
	svc.newID = func(time.Time) string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	saved, err := svc.Save(s.ctx, input("BC9", "u1", time.Now()))
	s.Require().NoError(err)
	s.Equal("TKT-1-CCCCCCCC", saved.ID)
}

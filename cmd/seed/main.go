package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"showtime/internal/events"
	"showtime/internal/shared/config"
	"showtime/internal/shared/constants"
	"showtime/internal/shared/database"
	"showtime/internal/shared/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

type Seeder struct {
	db  *database.DB
	cfg *config.Config
}

type devUser struct {
	id    string
	email string
	role  string
}

// Users the printed development tokens are issued for
var devUsers = []devUser{
	{"admin-1", "admin@showtime.local", middleware.RoleAdmin},
	{"user-1", "ada@showtime.local", middleware.RoleUser},
	{"user-2", "grace@showtime.local", middleware.RoleUser},
}

func main() {
	clean := flag.Bool("clean", true, "truncate tickets, overlays and events before seeding")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed development tokens")
	flag.Parse()

	fmt.Println("Starting showtime database seeder...")

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if !cfg.NeedsPostgres() {
		log.Fatalf("Seeder needs a PostgreSQL backend; AVAILABILITY_BACKEND=%s TICKET_BACKEND=%s",
			cfg.Storage.Availability, cfg.Storage.Tickets)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db, cfg: cfg}
	ctx := context.Background()

	if *clean {
		fmt.Println("\nCleaning database...")
		if err := seeder.CleanDatabase(ctx); err != nil {
			log.Fatalf("Failed to clean database: %v", err)
		}
		fmt.Println("Database cleaned successfully")
	}

	fmt.Println("\nSeeding event catalog...")
	seeded, err := events.NewService(events.NewRepository(db.GetPostgreSQL())).SeedCatalog(ctx)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	fmt.Printf("Seeded %d events\n", seeded)

	fmt.Println("\nDevelopment tokens:")
	for _, user := range devUsers {
		token, err := seeder.IssueToken(user, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", user.email, err)
		}
		fmt.Printf("  %-6s %-22s %s\n", user.role, user.email, token)
	}

	fmt.Println("\nSeeding completed! Database is ready for testing.")
}

// CleanDatabase truncates every table the service owns and drops Redis overlays
func (s *Seeder) CleanDatabase(ctx context.Context) error {
	tables := []string{
		"tickets",
		"availability_overlays",
		"events",
	}

	tx := s.db.GetPostgreSQL().WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	if s.db.Redis != nil {
		if err := s.clearRedis(ctx); err != nil {
			log.Printf("Warning: Failed to clear Redis keys: %v", err)
		}
	}
	return nil
}

// clearRedis removes every key under the service prefix, leaving other tenants alone.
func (s *Seeder) clearRedis(ctx context.Context) error {
	iter := s.db.Redis.Scan(ctx, 0, constants.CACHE_PREFIX+":*", 200).Iterator()
	removed := 0
	for iter.Next(ctx) {
		if err := s.db.Redis.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	fmt.Printf("  Removed %d Redis keys\n", removed)
	return nil
}

// IssueToken signs an access token the API's JWT middleware accepts.
func (s *Seeder) IssueToken(user devUser, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.id,
		"email":   user.email,
		"role":    user.role,
		"type":    "access",
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
}

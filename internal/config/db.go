package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN           string
	ConnectTries  int
	RetryInterval time.Duration
}

// LoadDBConfig builds the Postgres DSN for the state table from DB_* variables
func LoadDBConfig() (*DBConfig, error) {
	var missing []string
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_NAME"} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("STORE_DRIVER=postgres needs %s", strings.Join(missing, ", "))
	}

	cfg := &DBConfig{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), getEnv("DB_SSLMODE", "disable")),
		ConnectTries:  5,
		RetryInterval: 5 * time.Second,
	}
	if n, err := strconv.Atoi(getEnv("DB_CONNECT_RETRIES", "5")); err == nil && n > 0 {
		cfg.ConnectTries = n
	}
	if d, err := time.ParseDuration(getEnv("DB_RETRY_INTERVAL", "5s")); err == nil && d > 0 {
		cfg.RetryInterval = d
	}
	return cfg, nil
}

// ConnectDB opens a pool and pings it, retrying up to cfg.ConnectTries times.
// It gives up early when ctx is done.
func ConnectDB(ctx context.Context, cfg *DBConfig) (*pgxpool.Pool, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectTries; attempt++ {
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				log.Printf("INFO: connected to PostgreSQL state store (attempt %d)", attempt)
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		if attempt == cfg.ConnectTries {
			break
		}
		log.Printf("WARN: PostgreSQL not reachable (attempt %d/%d): %v, retrying in %v", attempt, cfg.ConnectTries, err, cfg.RetryInterval)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up connecting to database: %w", ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", cfg.ConnectTries, lastErr)
}

// AutoMigrate creates the single-row state table if it doesn't exist
func AutoMigrate(ctx context.Context, db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS app_state (
		id SMALLINT PRIMARY KEY CHECK (id = 1),
		document JSONB NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Println("AutoMigrate applied successfully")
	return nil
}

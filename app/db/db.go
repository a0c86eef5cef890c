package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/FACorreiaa/go-trip-planner/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const defaultRetries = 5

type DatabaseConfig struct {
	ConnectionURL string
}

// WaitForDB pings the pool with a short backoff until it answers or the
// retry budget is spent.
func WaitForDB(ctx context.Context, pgpool *pgxpool.Pool, logger *slog.Logger) bool {
	for attempt := 1; attempt <= defaultRetries; attempt++ {
		if err := pgpool.Ping(ctx); err == nil {
			logger.InfoContext(ctx, "Database connection successful")
			return true
		} else {
			wait := time.Duration(attempt) * 200 * time.Millisecond
			logger.WarnContext(ctx, "Database ping failed, retrying...",
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
				slog.String("error", err.Error()),
			)
			if attempt < defaultRetries {
				time.Sleep(wait)
			}
		}
	}
	logger.ErrorContext(ctx, "Database connection failed after multiple retries")
	return false
}

// RunMigrations applies pending migrations from the embedded filesystem.
func RunMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	sourceDriver, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source driver: %w", err)
	}

	if !strings.HasPrefix(databaseURL, "postgres://") && !strings.HasPrefix(databaseURL, "postgresql://") {
		return fmt.Errorf("invalid database URL scheme for migrate, expected postgresql://")
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	switch {
	case verr != nil:
		logger.Warn("Could not determine migration version", slog.Any("error", verr))
	case dirty:
		logger.Error("Database migration state is dirty", slog.Uint64("version", uint64(version)))
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply", slog.Uint64("current_version", uint64(version)))
	default:
		logger.Info("Database migrations applied", slog.Uint64("version", uint64(version)))
	}

	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("Error closing migration source", slog.Any("error", srcErr))
	}
	if dbErr != nil {
		logger.Warn("Error closing migration database connection", slog.Any("error", dbErr))
	}
	return nil
}

// NewDatabaseConfig builds the connection URL from configuration.
func NewDatabaseConfig(cfg *config.Config, logger *slog.Logger) (*DatabaseConfig, error) {
	if cfg == nil || cfg.Repositories.Postgres.Host == "" {
		return nil, fmt.Errorf("postgres configuration is missing or invalid")
	}

	query := url.Values{}
	sslMode := cfg.Repositories.Postgres.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query.Set("sslmode", sslMode)
	query.Set("timezone", "utc")

	connURL := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(cfg.Repositories.Postgres.Username, cfg.Repositories.Postgres.Password),
		Host:     fmt.Sprintf("%s:%s", cfg.Repositories.Postgres.Host, cfg.Repositories.Postgres.Port),
		Path:     cfg.Repositories.Postgres.DB,
		RawQuery: query.Encode(),
	}

	logger.Info("Database connection URL generated",
		slog.String("host", connURL.Host),
		slog.String("database", connURL.Path))

	return &DatabaseConfig{ConnectionURL: connURL.String()}, nil
}

// Init creates the pgxpool with the google/uuid codec registered.
func Init(connectionURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing db config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed creating db pool: %w", err)
	}

	logger.Info("Database connection pool initialized")
	return pool, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"

	"todotracker/internal/adapter/database"
)

type Config struct {
	URL            string
	MigrationsPath string
	LogLevel       string
}

// NewDB opens Postgres through the pgx database/sql driver so the same
// squirrel repositories serve both engines.
func NewDB(config Config) (*database.DB, error) {
	if config.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	if config.MigrationsPath == "" {
		config.MigrationsPath = "db/migrations/postgres"
	}

	connConfig, err := pgx.ParseConfig(config.URL)

	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	if err := RunMigrations(stdlib.OpenDB(*connConfig), config.MigrationsPath); err != nil {
		return nil, err
	}

	tracedDB, err := otelsql.Open("pgx", config.URL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(connConfig.Database),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(config.LogLevel)

	if err != nil || config.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("component", "sql").Logger()
	sqlDB := sqldblogger.OpenDriver(config.URL, tracedDB.Driver(), zerologadapter.New(logger))

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return database.New(sqlDB, database.DialectPostgres), nil
}

func RunMigrations(db *sql.DB, migrationsPath string) error {
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})

	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

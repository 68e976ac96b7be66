package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/rs/zerolog"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"

	"todotracker/internal/adapter/database"
)

type Config struct {
	Path           string
	MigrationsPath string
	LogLevel       string
}

// DSN enables foreign keys on every pooled connection so todo_tags rows
// follow their todo on delete.
func DSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=1&_busy_timeout=5000"
	}

	return path + "?_foreign_keys=1&_busy_timeout=5000"
}

func NewDB(config Config) (*database.DB, error) {
	if config.Path == "" {
		config.Path = "database.db"
	}

	if config.MigrationsPath == "" {
		config.MigrationsPath = "db/migrations/sqlite"
	}

	dsn := DSN(config.Path)

	migrationDB, err := sql.Open("sqlite3", dsn)

	if err != nil {
		return nil, err
	}

	err = RunMigrations(migrationDB, config.MigrationsPath)
	migrationDB.Close()

	if err != nil {
		return nil, err
	}

	tracedDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("todotracker"),
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

	sqlDB := sqldblogger.OpenDriver(dsn, tracedDB.Driver(), zerologadapter.New(logger),
		sqldblogger.WithMinimumLevel(sqlLogLevel(level)),
	)

	// SQLite allows a single writer; a small pool avoids SQLITE_BUSY storms.
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return database.New(sqlDB, database.DialectSQLite), nil
}

func sqlLogLevel(level zerolog.Level) sqldblogger.Level {
	switch {
	case level <= zerolog.TraceLevel:
		return sqldblogger.LevelTrace
	case level == zerolog.DebugLevel:
		return sqldblogger.LevelDebug
	case level == zerolog.InfoLevel:
		return sqldblogger.LevelInfo
	default:
		return sqldblogger.LevelError
	}
}

func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})

	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"sqlite3",
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

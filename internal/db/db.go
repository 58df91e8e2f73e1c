// internal/db/db.go
package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database and checks it is reachable.
func Open(driver, dsn string) (*sqlx.DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if driver == DriverSQLite {
		// single writer
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	return conn, nil
}

// Migrate applies the embedded migrations for the connection's dialect.
func Migrate(conn *sqlx.DB, logger *zap.Logger) error {
	if conn == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	driver := conn.DriverName()
	dir := "migrations/" + driver
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations for %s: %w", driver, err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	var target database.Driver
	switch driver {
	case DriverPostgres:
		target, err = postgres.WithInstance(conn.DB, &postgres.Config{})
	case DriverSQLite:
		target, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migration driver: %w", driver, err)
	}

	// The migrator is not closed: closing it would close conn as well.
	migrator, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no database migrations to apply", zap.String("driver", driver))
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("database migrations applied", zap.String("driver", driver))
	return nil
}

// Close closes the pool and logs the outcome.
func Close(conn *sqlx.DB, logger *zap.Logger) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		logger.Error("error closing database connection", zap.Error(err))
		return
	}
	logger.Info("database connection closed")
}

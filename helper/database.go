package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database bundles an open connection pool with the logger of its owner.
type Database struct {
	Name     string
	Driver   string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens and pings a Postgres connection for the given configuration.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil {
		return nil, NewError("database configuration validation", fmt.Errorf("database configuration is nil"))
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		config.Host,
		config.Port,
		config.Username,
		config.Password,
		config.Database,
		config.SSLMode,
		config.Schema,
	)

	instance, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, NewError("open", err)
	}

	db := &Database{
		Name:     name,
		Driver:   "postgres",
		Instance: instance,
		Logger:   logger,
	}

	err = db.ping(5)
	if err != nil {
		_ = instance.Close()
		return nil, NewError("ping", err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return db, nil
}

// NewSQLiteDatabase opens an embedded SQLite database file with foreign keys enabled.
func NewSQLiteDatabase(name string, path string, logger *slog.Logger) (*Database, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)

	instance, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, NewError("open", err)
	}
	// One writer keeps the cascade delete and chunk batches serialized.
	instance.SetMaxOpenConns(1)

	db := &Database{
		Name:     name,
		Driver:   "sqlite",
		Instance: instance,
		Logger:   logger,
	}

	err = db.ping(1)
	if err != nil {
		_ = instance.Close()
		return nil, NewError("ping", err)
	}

	logger.Info("Opened database", slog.String("name", name), slog.String("path", path))

	return db, nil
}

// NewTestDatabase opens a Postgres connection for tests and panics on failure.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelWarn},
	}))

	db, err := NewDatabase("test", config, logger)
	if err != nil {
		log.Panicf("error connecting to test database: %v", err)
	}
	return db
}

func (d *Database) ping(attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = d.Instance.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
	}
	return err
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/salesdash/internal/config"
)

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

var (
	dbInstance *DB
	once       sync.Once
)

// driverName maps DB_DRIVER to a registered database/sql driver.
func driverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "pq":
		return "postgres", nil
	case "pgx":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func dsn(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// NewDB creates the process-wide read-only connection pool. maxConcurrent
// caps queries in flight across all collection reads.
func NewDB(cfg *config.DatabaseConfig, maxConcurrent int) (*DB, error) {
	var err error
	once.Do(func() {
		var driver string
		driver, err = driverName(cfg.Driver)
		if err != nil {
			return
		}

		var db *sqlx.DB
		db, err = sqlx.Connect(driver, dsn(cfg))
		if err != nil {
			return
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if maxConcurrent <= 0 {
			maxConcurrent = 10
		}
		dbInstance = &DB{
			DB:  db,
			sem: semaphore.NewWeighted(int64(maxConcurrent)),
		}
		log.Info().Str("driver", driver).Str("host", cfg.Host).Str("db", cfg.DBName).Msg("postgres: connected")
	})

	return dbInstance, err
}

// WithReadTx runs fn inside a read-only transaction, holding one semaphore
// slot for its duration.
func (db *DB) WithReadTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

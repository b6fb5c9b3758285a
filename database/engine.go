package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	// Drivers selectable through Config.Driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/resilience"
)

// Engine is a reference-counted database/sql pool. The pool closes when the
// last holder calls Release.
type Engine struct {
	db      *sql.DB
	cfg     Config
	dialect Dialect
	log     *logger.Logger

	mu     sync.Mutex
	refs   int
	closed bool
}

// Open connects with retry and returns an engine holding one reference.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Configuration(err.Error()).WithCause(err)
	}
	log := logger.Get("database").WithFields(logger.Fields("driver", cfg.Driver))

	retry := resilience.ConnectRetryConfig(cfg.MaxRetries)
	retry.RetryIf = IsRetryableError
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("Database connection attempt failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
			"backoff": backoff.String(),
		})
	}

	db, err := resilience.Retry(ctx, retry, func() (*sql.DB, error) {
		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	})
	if err != nil {
		return nil, apperrors.ConnectionFailed(cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if lifetime, parseErr := time.ParseDuration(cfg.ConnMaxLifetime); parseErr == nil {
		db.SetConnMaxLifetime(lifetime)
	}

	log.Info("Database connection established")
	return &Engine{
		db:      db,
		cfg:     cfg,
		dialect: DialectFor(cfg.Driver),
		log:     log,
		refs:    1,
	}, nil
}

// Retain adds a holder and returns the engine.
func (e *Engine) Retain() *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refs++
	return e
}

// Release drops a holder, closing the pool when none remain. Safe to call
// after the engine has closed.
func (e *Engine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}
	e.closed = true
	e.log.Debug("Closing database connection")
	return e.db.Close()
}

// Refs returns the number of current holders.
func (e *Engine) Refs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refs
}

// Closed reports whether the pool has been closed.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// DB returns the underlying pool.
func (e *Engine) DB() *sql.DB { return e.db }

// Driver returns the configured driver name.
func (e *Engine) Driver() string { return e.cfg.Driver }

// Dialect returns the SQL dialect for the driver.
func (e *Engine) Dialect() Dialect { return e.dialect }

// WithTransaction executes fn within a transaction with panic recovery.
func (e *Engine) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			e.log.Error("Transaction rolled back due to panic", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

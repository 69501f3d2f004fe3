// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

const defaultTxTimeout = 30 * time.Second

type txKey struct{}

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	TracingEnabled  bool
}

// txState is the transaction of one WithTx scope. BEGIN is deferred until the
// first statement, so read-nothing scopes never open a transaction. A failed
// BEGIN is sticky: every later statement of the scope fails with it.
type txState struct {
	db     *sql.DB
	tx     TxInterface
	err    error
	cancel context.CancelFunc
	done   bool
}

func (s *txState) begin() (TxInterface, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	if s.err != nil {
		return nil, s.err
	}

	// detached from the request so a client disconnect cannot abort a commit
	ctx, cancel := context.WithTimeout(context.Background(), defaultTxTimeout)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		cancel()
		s.err = fmt.Errorf("failed to begin transaction: %w", err)
		return nil, s.err
	}

	s.tx = tx
	s.cancel = cancel

	return tx, nil
}

func (s *txState) finish(commit bool) error {
	defer func() {
		if s.cancel != nil {
			s.cancel()
		}
	}()

	if s.tx == nil || s.done {
		return nil
	}

	s.done = true

	if commit {
		return s.tx.Commit()
	}

	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

// failedRunner stands in for a transaction that could not be started.
type failedRunner struct {
	err error
}

func (r failedRunner) Exec(string, ...interface{}) (sql.Result, error) {
	return nil, r.err
}

func (r failedRunner) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, r.err
}

func (r failedRunner) Query(string, ...interface{}) (*sql.Rows, error) {
	return nil, r.err
}

func (r failedRunner) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, r.err
}

func (r failedRunner) QueryRow(string, ...interface{}) sq.RowScanner {
	return failedRow{err: r.err}
}

func (r failedRunner) QueryRowContext(context.Context, string, ...interface{}) sq.RowScanner {
	return failedRow{err: r.err}
}

type failedRow struct {
	err error
}

func (r failedRow) Scan(...interface{}) error {
	return r.err
}

func txFromContext(ctx context.Context) *txState {
	s, _ := ctx.Value(txKey{}).(*txState)
	return s
}

type DBClient struct {
	pool *pgxpool.Pool
	db   *sql.DB

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Statement returns a builder bound to the transaction of the enclosing WithTx,
// or to the pool outside of one. Inside a WithTx whose BEGIN failed the
// builder runs nothing and returns that error.
func (d *DBClient) Statement(ctx context.Context) sq.StatementBuilderType {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	state := txFromContext(ctx)
	if state == nil {
		return builder.RunWith(d.db)
	}

	tx, err := state.begin()
	if err != nil {
		d.logger.Errorf("%v", err)
		return builder.RunWith(failedRunner{err: err})
	}

	return builder.RunWith(tx)
}

// WithTx runs fn in a transaction that commits when fn returns nil and rolls
// back otherwise. A nested call joins the outer transaction.
func (d *DBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	state := &txState{db: d.db}

	if err := fn(context.WithValue(ctx, txKey{}, state)); err != nil {
		if rbErr := state.finish(false); rbErr != nil {
			d.logger.Errorf("failed to rollback transaction: %v", rbErr)
		}
		return err
	}

	// fn may have swallowed the statement errors
	if state.err != nil {
		return state.err
	}

	if err := state.finish(true); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ping checks the database is reachable and records its availability.
func (d *DBClient) Ping(ctx context.Context) error {
	ctx, span := d.tracer.Start(ctx, "db.DBClient.Ping")
	defer span.End()

	err := d.db.PingContext(ctx)

	available := 1.0
	if err != nil {
		available = 0
	}

	if mErr := d.monitor.SetDependencyAvailability(map[string]string{"component": "database"}, available); mErr != nil {
		d.logger.Debugf("failed to record database availability: %v", mErr)
	}

	return err
}

func (d *DBClient) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}

	if d.pool != nil {
		d.pool.Close()
	}
}

// NewDBClient opens a pgx pool for cfg and verifies it with a ping.
func NewDBClient(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*DBClient, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("DSN validation failed: %w", err)
	}

	if cfg.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if cfg.TracingEnabled {
		if err := otelpgx.RecordStats(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to start metrics collection for database: %w", err)
		}
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	if err := sqlDB.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	d := new(DBClient)
	d.pool = pool
	d.db = sqlDB

	d.tracer = tracer
	d.monitor = monitor
	d.logger = logger

	return d, nil
}

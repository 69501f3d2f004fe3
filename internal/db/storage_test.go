// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

var errBegin = errors.New("connection refused during BEGIN")

// beginlessConnector yields connections that execute statements but cannot
// start a transaction.
type beginlessConnector struct {
	execs *atomic.Int32
}

func (c beginlessConnector) Connect(context.Context) (driver.Conn, error) {
	return &beginlessConn{execs: c.execs}, nil
}

func (c beginlessConnector) Driver() driver.Driver {
	return beginlessDriver{}
}

type beginlessDriver struct{}

func (beginlessDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open is not supported")
}

type beginlessConn struct {
	execs *atomic.Int32
}

func (c *beginlessConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare is not supported")
}

func (c *beginlessConn) Close() error {
	return nil
}

func (c *beginlessConn) Begin() (driver.Tx, error) {
	return nil, errBegin
}

func (c *beginlessConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return nil, errBegin
}

func (c *beginlessConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	c.execs.Add(1)
	return driver.RowsAffected(1), nil
}

func newBeginlessClient(t *testing.T) (*DBClient, *atomic.Int32) {
	t.Helper()

	execs := new(atomic.Int32)
	sqlDB := sql.OpenDB(beginlessConnector{execs: execs})
	t.Cleanup(func() { _ = sqlDB.Close() })

	d := new(DBClient)
	d.db = sqlDB
	d.tracer = tracing.NewNoopTracer()
	d.monitor = monitoring.NewNoopMonitor("test")
	d.logger = logging.NewNoopLogger()

	return d, execs
}

func TestWithTxBeginFailure(t *testing.T) {
	tests := []struct {
		name string
		fn   func(d *DBClient) func(context.Context) error
	}{
		{
			name: "statement error is returned",
			fn: func(d *DBClient) func(context.Context) error {
				return func(ctx context.Context) error {
					_, err := d.Statement(ctx).Insert("invitations").Columns("id").Values("inv-1").ExecContext(ctx)
					return err
				}
			},
		},
		{
			name: "swallowed statement error still fails the scope",
			fn: func(d *DBClient) func(context.Context) error {
				return func(ctx context.Context) error {
					_, _ = d.Statement(ctx).Insert("invitations").Columns("id").Values("inv-1").ExecContext(ctx)
					_, _ = d.Statement(ctx).Update("invitations").Set("is_used", true).ExecContext(ctx)
					return nil
				}
			},
		},
		{
			name: "row scans fail",
			fn: func(d *DBClient) func(context.Context) error {
				return func(ctx context.Context) error {
					var id string
					return d.Statement(ctx).Select("id").From("invitations").QueryRowContext(ctx).Scan(&id)
				}
			},
		},
		{
			name: "nested scope shares the failure",
			fn: func(d *DBClient) func(context.Context) error {
				return func(ctx context.Context) error {
					return d.WithTx(ctx, func(ctx context.Context) error {
						_, err := d.Statement(ctx).Delete("invitations").ExecContext(ctx)
						return err
					})
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, execs := newBeginlessClient(t)

			err := d.WithTx(context.Background(), tt.fn(d))

			if !errors.Is(err, errBegin) {
				t.Fatalf("expected the begin error, got %v", err)
			}
			if n := execs.Load(); n != 0 {
				t.Errorf("expected nothing to run outside a transaction, got %d statements", n)
			}
		})
	}
}

func TestStatementOutsideTx(t *testing.T) {
	d, execs := newBeginlessClient(t)
	ctx := context.Background()

	if _, err := d.Statement(ctx).Delete("invitations").ExecContext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := execs.Load(); n != 1 {
		t.Errorf("expected one statement, got %d", n)
	}
}

func TestWithTxWithoutStatements(t *testing.T) {
	d, _ := newBeginlessClient(t)

	if err := d.WithTx(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("expected an empty scope to succeed without BEGIN, got %v", err)
	}
}

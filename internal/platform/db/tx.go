package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txContextKey struct{}

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return withTxOptions(ctx, pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, fn)
}

func withTxOptions(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// Transactor runs callbacks inside a transaction carried by the context, so
// every repository resolving its connection through Conn joins it.
type Transactor struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// TransactorOption tunes the transactions a Transactor begins.
type TransactorOption func(*Transactor)

// WithIsoLevel sets the isolation level of transactions begun by InTx.
func WithIsoLevel(level pgx.TxIsoLevel) TransactorOption {
	return func(t *Transactor) {
		t.opts.IsoLevel = level
	}
}

// NewTransactor constructs a Transactor for the pool. Transactions run at
// RepeatableRead unless WithIsoLevel says otherwise.
func NewTransactor(pool *pgxpool.Pool, opts ...TransactorOption) *Transactor {
	t := &Transactor{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.RepeatableRead}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsoLevel reports the isolation level InTx begins transactions with.
func (t *Transactor) IsoLevel() pgx.TxIsoLevel {
	return t.opts.IsoLevel
}

// InTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (t *Transactor) InTx(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return withTxOptions(ctx, t.pool, t.opts, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// Conn returns the transaction stored in ctx, falling back to the pool.
func Conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/streamfusion"
)

// SQLIterable adapts a pgx query into a stream.Iterable: each row
// decodes into a []any of its column values. The iterator that Iterate
// returns implements stream.RefCounted so that a Pipeline's destroy (or
// the Iterator's Close) closes the underlying pgx.Rows exactly once, the same
// acquire/release discipline the core package applies to every source
// handle (spec.md §9).
type SQLIterable struct {
	pool  *pgxpool.Pool
	query string
	args  []any
}

// NewSQLIterable builds a SQLIterable that will run query against pool
// when Iterate is called.
func NewSQLIterable(pool *pgxpool.Pool, query string, args ...any) SQLIterable {
	return SQLIterable{pool: pool, query: query, args: args}
}

// Iterate runs the query and returns a sqlIterator wrapping the
// resulting pgx.Rows.
func (s SQLIterable) Iterate() (stream.HostIterator, error) {
	rows, err := s.pool.Query(context.Background(), s.query, s.args...)
	if err != nil {
		return nil, fmt.Errorf("source: querying: %w", err)
	}
	return &sqlIterator{rows: rows}, nil
}

type sqlIterator struct {
	rows   pgx.Rows
	closed bool
}

// Next advances to the next row and returns its column values as
// []any, matching stream.HostIterator's pull-one contract
// (spec.md §4.3): ErrExhausted once rows.Next() is false and there was
// no query error.
func (it *sqlIterator) Next() (any, error) {
	if it.closed {
		return nil, stream.ErrExhausted
	}
	if !it.rows.Next() {
		it.close()
		if err := it.rows.Err(); err != nil {
			return nil, fmt.Errorf("source: scanning rows: %w", err)
		}
		return nil, stream.ErrExhausted
	}
	values, err := it.rows.Values()
	if err != nil {
		it.close()
		return nil, fmt.Errorf("source: reading row values: %w", err)
	}
	return values, nil
}

// Acquire is a no-op: pgx.Rows has no refcounting of its own, only an
// idempotent Close.
func (it *sqlIterator) Acquire() {}

// Release closes the underlying pgx.Rows early if the pipeline is torn
// down before exhaustion (e.g. Iterator.Close, or a mid-stream error).
func (it *sqlIterator) Release() { it.close() }

func (it *sqlIterator) close() {
	if it.closed {
		return
	}
	it.rows.Close()
	it.closed = true
}

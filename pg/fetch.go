package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FetchAll runs the query and returns every row as a column→value map.
func FetchAll(ctx context.Context, db DB, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

// FetchOne runs the query and returns the first row as a map, or nil
// when the query matched nothing.
func FetchOne(ctx context.Context, db DB, query string, args ...any) (map[string]any, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return row, err
}

// FetchVal runs the query and scans the first column of the first row.
func FetchVal[T any](ctx context.Context, db DB, query string, args ...any) (T, error) {
	var v T
	err := db.QueryRow(ctx, query, args...).Scan(&v)
	return v, err
}

// FetchCount wraps the query in SELECT COUNT(*) and returns the count.
func FetchCount(ctx context.Context, db DB, query string, args ...any) (int64, error) {
	return FetchVal[int64](ctx, db, fmt.Sprintf("SELECT COUNT(*) FROM (%s) t", query), args...)
}

// Exists reports whether the query matches at least one row.
func Exists(ctx context.Context, db DB, query string, args ...any) (bool, error) {
	return FetchVal[bool](ctx, db, fmt.Sprintf("SELECT EXISTS(%s)", query), args...)
}

// IterateOptions tunes Iterate.
type IterateOptions struct {
	// ChunkSize is the number of rows fetched per round trip
	// (default 500).
	ChunkSize int

	// FromOffset skips that many rows before the first chunk.
	FromOffset int
}

const iterateCursor = "tracktolib_iterate"

// Iterate walks a large result set in chunks using a server-side
// cursor. It must run inside a transaction; fn is called once per chunk
// and iteration stops on the first error it returns.
func Iterate(ctx context.Context, tx pgx.Tx, query string, args []any, opts *IterateOptions, fn func(rows []map[string]any) error) error {
	if opts == nil {
		opts = &IterateOptions{}
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 500
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("DECLARE %s CURSOR FOR %s", iterateCursor, query), args...); err != nil {
		return fmt.Errorf("pg: declare cursor: %w", err)
	}
	defer func() {
		_, _ = tx.Exec(ctx, fmt.Sprintf("CLOSE %s", iterateCursor))
	}()

	if opts.FromOffset > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("MOVE FORWARD %d FROM %s", opts.FromOffset, iterateCursor)); err != nil {
			return fmt.Errorf("pg: move cursor: %w", err)
		}
	}

	for {
		chunk, err := FetchAll(ctx, tx, fmt.Sprintf("FETCH FORWARD %d FROM %s", chunkSize, iterateCursor))
		if err != nil {
			return fmt.Errorf("pg: fetch chunk: %w", err)
		}
		if len(chunk) == 0 {
			return nil
		}
		if err := fn(chunk); err != nil {
			return err
		}
		if len(chunk) < chunkSize {
			return nil
		}
	}
}

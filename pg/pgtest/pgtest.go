// Package pgtest provides database fixtures for integration tests:
// listing and truncating tables, dropping databases, loading CSV files
// and realigning sequences after manual inserts.
package pgtest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tracktor/tracktolib/pg"
)

const tablesQuery = `
SELECT CONCAT_WS('.', schemaname, tablename)
FROM pg_catalog.pg_tables
WHERE schemaname = ANY($1)
ORDER BY schemaname, tablename
`

// Tables lists every table of the given schemas as schema.table,
// leaving out the ignored ones.
func Tables(ctx context.Context, db pg.DB, schemas []string, ignoredTables ...string) ([]string, error) {
	if len(schemas) == 0 {
		schemas = []string{"public"}
	}
	rows, err := db.Query(ctx, tablesQuery, schemas)
	if err != nil {
		return nil, err
	}
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return filterIgnored(tables, ignoredTables), nil
}

func filterIgnored(tables, ignoredTables []string) []string {
	if len(ignoredTables) == 0 {
		return tables
	}
	ignored := make(map[string]struct{}, len(ignoredTables))
	for _, table := range ignoredTables {
		ignored[table] = struct{}{}
	}
	kept := tables[:0]
	for _, table := range tables {
		if _, ok := ignored[table]; !ok {
			kept = append(kept, table)
		}
	}
	return kept
}

// CleanTables truncates the given tables and resets their sequences.
func CleanTables(ctx context.Context, db pg.DB, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := db.Exec(ctx, fmt.Sprintf(
		"TRUNCATE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", ")))
	return err
}

// CleanSchemas truncates every table of the given schemas.
func CleanSchemas(ctx context.Context, db pg.DB, schemas ...string) error {
	tables, err := Tables(ctx, db, schemas)
	if err != nil {
		return err
	}
	return CleanTables(ctx, db, tables...)
}

// DropDB drops the named database, disconnecting active sessions first.
// A database that does not exist is not an error.
func DropDB(ctx context.Context, cfg *pg.Config, name string) error {
	admin := *cfg
	admin.Database = "postgres"

	conn, err := pgx.Connect(ctx, admin.URL())
	if err != nil {
		var pgErr *pgconn.PgError
		// invalid_catalog_name: the maintenance db itself is missing,
		// so there is nothing to drop from.
		if errors.As(err, &pgErr) && pgErr.Code == "3D000" {
			return nil
		}
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx,
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
		name)
	if err != nil {
		return err
	}
	_, err = conn.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", name))
	return err
}

// InsertCSV loads a CSV file (with a header row) into schema.table,
// staging through a temp table so existing rows are skipped with
// ON CONFLICT DO NOTHING. excludeColumns are left out of the final
// insert.
func InsertCSV(ctx context.Context, pool *pgxpool.Pool, csvPath, schema, table string, excludeColumns ...string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := csvHeader(f)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	tmp, copySQL := csvCopyQuery(schema, table, header, excludeColumns)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, tmp.Create); err != nil {
		return err
	}
	if _, err := conn.Conn().PgConn().CopyFrom(ctx, f, copySQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, tmp.Insert); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func csvHeader(f *os.File) (string, error) {
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	header := strings.TrimSpace(line)
	if header == "" {
		return "", fmt.Errorf("csv file %s has no header row", f.Name())
	}
	return header, nil
}

// csvCopyQuery builds the staging statements for a CSV whose header
// line lists its columns. The COPY targets every header column; the
// final insert leaves out the excluded ones.
func csvCopyQuery(schema, table, header string, excludeColumns []string) (pg.TmpTable, string) {
	columns := strings.Split(header, ",")
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}
	tmp := pg.TmpTableQuery(schema, table, filterIgnored(slices.Clone(columns), excludeColumns), "")
	copySQL := fmt.Sprintf("COPY %s(%s) FROM STDIN WITH CSV HEADER",
		tmp.Name, strings.Join(columns, ", "))
	return tmp, copySQL
}

// SetSeqMax realigns the serial sequence of table.column with the
// current maximum value. Useful after inserting rows with explicit ids.
func SetSeqMax(ctx context.Context, db pg.DB, table, column string) error {
	query := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 1)) FROM %s",
		table, column, column, table)
	_, err := db.Exec(ctx, query)
	return err
}

// SetSeqMaxAll realigns the sequences of several (table, column) pairs.
func SetSeqMaxAll(ctx context.Context, db pg.DB, columns map[string]string) error {
	for table, column := range columns {
		if err := SetSeqMax(ctx, db, table, column); err != nil {
			return err
		}
	}
	return nil
}

package pg

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Tracktor/tracktolib/logs"
)

// TmpTable describes a temporary staging table mirroring schema.table.
type TmpTable struct {
	// Name of the temporary table.
	Name string

	// Create is the CREATE TEMP TABLE ... ON COMMIT DROP statement.
	Create string

	// Insert moves the staged rows into the target table.
	Insert string
}

// TmpTableQuery builds the staging table statements used for bulk
// upserts. onConflict defaults to ON CONFLICT DO NOTHING; columns, when
// given, restricts the final insert to that column list.
func TmpTableQuery(schema, table string, columns []string, onConflict string) TmpTable {
	if onConflict == "" {
		onConflict = "ON CONFLICT DO NOTHING"
	}
	name := fmt.Sprintf("%s_%s_tmp", schema, table)

	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s.%s INCLUDING DEFAULTS) ON COMMIT DROP",
		name, schema, table)

	var insert string
	if len(columns) > 0 {
		cols := strings.Join(columns, ", ")
		insert = fmt.Sprintf("INSERT INTO %s.%s AS t (%s) SELECT %s FROM %s %s",
			schema, table, cols, cols, name, onConflict)
	} else {
		insert = fmt.Sprintf("INSERT INTO %s.%s SELECT * FROM %s %s",
			schema, table, name, onConflict)
	}

	return TmpTable{Name: name, Create: create, Insert: insert}
}

// ColumnInfo holds the subset of information_schema.columns the CSV
// loader needs to coerce text values.
type ColumnInfo struct {
	DataType  string
	MaxLength *int
}

const tableColumnsQuery = `
SELECT column_name, data_type, character_maximum_length
FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2
`

// TableColumns returns the column types of schema.table.
func TableColumns(ctx context.Context, db DB, schema, table string) (map[string]ColumnInfo, error) {
	rows, err := FetchAll(ctx, db, tableColumnsQuery, schema, table)
	if err != nil {
		return nil, err
	}

	infos := make(map[string]ColumnInfo, len(rows))
	for _, row := range rows {
		name, _ := row["column_name"].(string)
		dataType, _ := row["data_type"].(string)
		info := ColumnInfo{DataType: dataType}
		switch maxLen := row["character_maximum_length"].(type) {
		case int32:
			l := int(maxLen)
			info.MaxLength = &l
		case int64:
			l := int(maxLen)
			info.MaxLength = &l
		}
		infos[name] = info
	}
	return infos, nil
}

// Coerce converts a raw CSV field to the Go value pgx should send for
// this column. Empty strings and "-" map to NULL.
func (c ColumnInfo) Coerce(value string) (any, error) {
	if value == "" || value == "-" {
		return nil, nil
	}

	switch c.DataType {
	case "integer", "bigint", "smallint":
		return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	case "boolean":
		return strconv.ParseBool(strings.TrimSpace(value))
	case "date":
		return time.Parse("2006-01-02", strings.TrimSpace(value))
	case "timestamp without time zone", "timestamp with time zone":
		return parseTimestamp(strings.TrimSpace(value))
	default:
		trimmed := strings.TrimSpace(value)
		if c.MaxLength != nil && len(trimmed) > *c.MaxLength {
			return nil, fmt.Errorf("pg: got size %d but max size is %d for %q", len(trimmed), *c.MaxLength, trimmed)
		}
		return trimmed, nil
	}
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("pg: cannot parse timestamp %q", value)
}

// UpsertCSVOptions tunes UpsertCSV.
type UpsertCSVOptions struct {
	// ChunkSize is the number of rows staged per copy batch
	// (default 5000).
	ChunkSize int

	// OnConflict overrides the final insert's conflict clause.
	OnConflict string

	// Logger reports staging progress (default: silent).
	Logger logs.Logger
}

// UpsertCSV loads a CSV file into schema.table through a temporary
// staging table, coercing values per the live column types and
// resolving conflicts with ON CONFLICT DO NOTHING (or the configured
// clause). The whole load runs in a single transaction.
func UpsertCSV(ctx context.Context, tx pgx.Tx, csvPath, schema, table string, opts *UpsertCSVOptions) error {
	if opts == nil {
		opts = &UpsertCSVOptions{}
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 5000
	}
	logger := opts.Logger
	if logger == nil {
		logger = logs.NewNopLogger()
	}

	infos, err := TableColumns(ctx, tx, schema, table)
	if err != nil {
		return fmt.Errorf("pg: table columns: %w", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("pg: read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(col))
	}

	tmp := TmpTableQuery(schema, table, nil, opts.OnConflict)
	logger.Info("creating tmp table", "table", tmp.Name)
	if _, err := tx.Exec(ctx, tmp.Create); err != nil {
		return fmt.Errorf("pg: create tmp table: %w", err)
	}

	logger.Info("staging csv", "path", csvPath, "table", tmp.Name)
	staged := 0
	for {
		chunk, readErr := readCSVChunk(reader, chunkSize)
		if len(chunk) > 0 {
			rows := make([][]any, len(chunk))
			for i, record := range chunk {
				row, coerceErr := coerceRecord(record, columns, infos)
				if coerceErr != nil {
					return coerceErr
				}
				rows[i] = row
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{tmp.Name}, columns, pgx.CopyFromRows(rows)); err != nil {
				return fmt.Errorf("pg: copy chunk: %w", err)
			}
			staged += len(chunk)
			logger.Debug("staged chunk", "rows", staged)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("pg: read csv: %w", readErr)
		}
	}

	logger.Info("inserting staged rows", "schema", schema, "table", table, "rows", staged)
	if _, err := tx.Exec(ctx, tmp.Insert); err != nil {
		return fmt.Errorf("pg: insert staged rows: %w", err)
	}
	return nil
}

func readCSVChunk(reader *csv.Reader, size int) ([][]string, error) {
	chunk := make([][]string, 0, size)
	for len(chunk) < size {
		record, err := reader.Read()
		if err != nil {
			return chunk, err
		}
		chunk = append(chunk, record)
	}
	return chunk, nil
}

func coerceRecord(record, columns []string, infos map[string]ColumnInfo) ([]any, error) {
	row := make([]any, len(record))
	for i, value := range record {
		if i >= len(columns) {
			return nil, fmt.Errorf("pg: csv row has %d fields but header has %d", len(record), len(columns))
		}
		info, ok := infos[columns[i]]
		if !ok {
			row[i] = value
			continue
		}
		coerced, err := info.Coerce(value)
		if err != nil {
			return nil, fmt.Errorf("pg: column %s: %w", columns[i], err)
		}
		row[i] = coerced
	}
	return row, nil
}

package pg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Tracktor/tracktolib/utils"
)

// Errors returned while building insert queries.
var (
	// ErrNoItems indicates an insert was built without rows.
	ErrNoItems = errors.New("pg: no items to insert")

	// ErrNoConflictTarget indicates a conflict clause without update
	// columns or a constraint name.
	ErrNoConflictTarget = errors.New("pg: update columns or constraint must be set")

	// ErrNoUpdateFields indicates a DO UPDATE clause where every column
	// was excluded.
	ErrNoUpdateFields = errors.New("pg: no fields set for DO UPDATE")

	// ErrReturningMany indicates RETURNING was requested for a
	// multi-row insert.
	ErrReturningMany = errors.New("pg: cannot return values when inserting many rows")
)

// Conflict describes an ON CONFLICT clause. Either Raw is set (used
// verbatim), or Constraint, or Keys. IgnoreKeys are excluded from the
// generated DO UPDATE SET list; MergeKeys are jsonb-merged instead of
// replaced.
type Conflict struct {
	Keys       []string
	IgnoreKeys []string
	MergeKeys  []string
	Constraint string
	Where      string
	Raw        string
}

// DoNothing is a ready-made clause for ON CONFLICT DO NOTHING.
var DoNothing = &Conflict{Raw: "ON CONFLICT DO NOTHING"}

// OnKeys builds a Conflict updating on the given key columns.
func OnKeys(keys ...string) *Conflict {
	return &Conflict{Keys: keys}
}

// Ignoring returns a copy of the clause that leaves the given columns
// untouched on update.
func (c *Conflict) Ignoring(keys ...string) *Conflict {
	out := *c
	out.IgnoreKeys = append(append([]string(nil), c.IgnoreKeys...), keys...)
	return &out
}

// clause renders the ON CONFLICT fragment for the given insert columns.
func (c *Conflict) clause(columns []string) (string, error) {
	if c.Raw != "" {
		if len(c.Keys) > 0 || len(c.IgnoreKeys) > 0 || c.Constraint != "" {
			return "", fmt.Errorf("pg: choose either keys, ignore keys, constraint or a raw clause")
		}
		return c.Raw, nil
	}

	var sb strings.Builder
	switch {
	case c.Constraint != "":
		fmt.Fprintf(&sb, "ON CONFLICT ON CONSTRAINT %s", c.Constraint)
	case len(c.Keys) > 0:
		keys := append([]string(nil), c.Keys...)
		sort.Strings(keys)
		fmt.Fprintf(&sb, "ON CONFLICT (%s)", strings.Join(keys, ", "))
		if c.Where != "" {
			fmt.Fprintf(&sb, " WHERE %s", c.Where)
		}
	default:
		return "", ErrNoConflictTarget
	}

	for _, k := range c.MergeKeys {
		if contains(c.Keys, k) {
			return "", fmt.Errorf("pg: duplicate column %q between merge and update keys", k)
		}
		if contains(c.IgnoreKeys, k) {
			return "", fmt.Errorf("pg: merge column %q cannot be ignored", k)
		}
	}

	excluded := make(map[string]struct{}, len(c.Keys)+len(c.IgnoreKeys)+len(c.MergeKeys))
	for _, k := range c.Keys {
		excluded[k] = struct{}{}
	}
	for _, k := range c.IgnoreKeys {
		excluded[k] = struct{}{}
	}
	for _, k := range c.MergeKeys {
		excluded[k] = struct{}{}
	}

	var fields []string
	for _, col := range columns {
		if _, ok := excluded[col]; ok {
			continue
		}
		fields = append(fields, fmt.Sprintf("%s = COALESCE(EXCLUDED.%s, t.%s)", col, col, col))
	}
	for _, col := range c.MergeKeys {
		fields = append(fields, fmt.Sprintf("%s = COALESCE(t.%s, jsonb_build_object()) || EXCLUDED.%s", col, col, col))
	}
	if len(fields) == 0 {
		return "", ErrNoUpdateFields
	}

	fmt.Fprintf(&sb, " DO UPDATE SET %s", strings.Join(fields, ", "))
	return sb.String(), nil
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// InsertQuery builds an INSERT statement for one or more map rows.
// Column order is the sorted key set of the first item; with Fill set,
// all items are first normalized to the union of their keys.
type InsertQuery struct {
	Table      string
	Items      []map[string]any
	Returning  []string
	OnConflict *Conflict

	// Fill pads every item with the union of all keys so rows with
	// heterogeneous columns can be inserted together.
	Fill bool
}

// Insert starts an InsertQuery for the given rows.
func Insert(table string, items ...map[string]any) *InsertQuery {
	return &InsertQuery{Table: table, Items: items}
}

// WithConflict sets the ON CONFLICT clause.
func (q *InsertQuery) WithConflict(c *Conflict) *InsertQuery {
	q.OnConflict = c
	return q
}

// WithReturning sets the RETURNING columns. Only valid for single-row
// inserts.
func (q *InsertQuery) WithReturning(columns ...string) *InsertQuery {
	q.Returning = columns
	return q
}

// WithFill enables key-set normalization across items.
func (q *InsertQuery) WithFill() *InsertQuery {
	q.Fill = true
	return q
}

// items returns the rows to insert, normalized when Fill is set.
func (q *InsertQuery) items() []map[string]any {
	if q.Fill {
		return utils.FillMaps(q.Items, nil)
	}
	return q.Items
}

// Keys returns the insert columns in their positional order.
func (q *InsertQuery) Keys() []string {
	items := q.items()
	if len(items) == 0 {
		return nil
	}
	return utils.SortedKeys(items[0])
}

// SQL renders the statement with $1..$n placeholders.
func (q *InsertQuery) SQL() (string, error) {
	if len(q.Items) == 0 {
		return "", ErrNoItems
	}

	keys := q.Keys()
	placeholders := make([]string, len(keys))
	for i := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s AS t (%s) VALUES (%s)",
		q.Table, strings.Join(keys, ", "), strings.Join(placeholders, ", "))

	if q.OnConflict != nil {
		clause, err := q.OnConflict.clause(keys)
		if err != nil {
			return "", err
		}
		query = fmt.Sprintf("%s %s", query, clause)
	}

	if len(q.Returning) > 0 {
		if len(q.Items) > 1 {
			return "", ErrReturningMany
		}
		query = fmt.Sprintf("%s RETURNING %s", query, strings.Join(q.Returning, ", "))
	}

	return query, nil
}

// Args returns the positional arguments for the given row.
func (q *InsertQuery) Args(item map[string]any) []any {
	keys := q.Keys()
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = item[k]
	}
	return args
}

// Exec runs the insert. Multi-row inserts are sent as a single batch.
func (q *InsertQuery) Exec(ctx context.Context, db BatchDB) error {
	query, err := q.SQL()
	if err != nil {
		return err
	}

	items := q.items()
	if len(items) == 1 {
		_, err = db.Exec(ctx, query, q.Args(items[0])...)
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, q.Args(item)...)
	}
	return db.SendBatch(ctx, batch).Close()
}

// FetchRow runs the insert and scans the RETURNING row into a map.
func (q *InsertQuery) FetchRow(ctx context.Context, db DB) (map[string]any, error) {
	query, err := q.SQL()
	if err != nil {
		return nil, err
	}
	items := q.items()
	if len(items) != 1 {
		return nil, ErrReturningMany
	}

	rows, err := db.Query(ctx, query, q.Args(items[0])...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToMap)
}

// Exists wraps the insert in SELECT EXISTS(...). Mostly useful with a
// RETURNING clause to probe conflict behavior.
func (q *InsertQuery) Exists(ctx context.Context, db DB) (bool, error) {
	query, err := q.SQL()
	if err != nil {
		return false, err
	}
	items := q.items()
	if len(items) != 1 {
		return false, ErrReturningMany
	}

	var exists bool
	err = db.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(%s)", query), q.Args(items[0])...).Scan(&exists)
	return exists, err
}

// InsertOne inserts a single row.
func InsertOne(ctx context.Context, db BatchDB, table string, item map[string]any, conflict *Conflict) error {
	return Insert(table, item).WithConflict(conflict).Exec(ctx, db)
}

// InsertMany inserts several rows in one batch.
func InsertMany(ctx context.Context, db BatchDB, table string, items []map[string]any, conflict *Conflict) error {
	if len(items) == 0 {
		return nil
	}
	return Insert(table, items...).WithConflict(conflict).Exec(ctx, db)
}

// InsertReturning inserts a single row and returns the requested
// columns as a map.
func InsertReturning(ctx context.Context, db DB, table string, item map[string]any, returning ...string) (map[string]any, error) {
	return Insert(table, item).WithReturning(returning...).FetchRow(ctx, db)
}

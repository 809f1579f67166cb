package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
)

// Filter narrows and orders the rows returned by a query.
type Filter struct {
	// Where is an SQL condition without the WHERE keyword, such as
	// "EndCycle > ?". Its placeholders take Args.
	Where string
	Args  []any

	// OrderBy lists the sort columns without the ORDER BY keywords.
	OrderBy string

	// Limit caps the number of rows returned. Zero returns all rows.
	Limit  int
	Offset int
}

// DataReader reads back the tables written by a DataRecorder.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table decode
	// into. A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the names of the mapped tables, sorted.
	ListTables() []string

	// Query returns the matching rows as pointers to the mapped struct, and
	// the number of rows matching the filter regardless of Limit and Offset.
	Query(ctx context.Context, tableName string, f Filter) (
		rows []any,
		total int,
		err error,
	)

	// Close closes the database.
	Close() error
}

type sqliteReader struct {
	db     *sql.DB
	tables map[string]reflect.Type
}

// OpenReader opens a database file written by a DataRecorder.
func OpenReader(filename string) (DataReader, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+filename+"?mode=ro")
	if err != nil {
		return nil, err
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a DataReader on an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:     db,
		tables: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	t := reflect.TypeOf(sampleEntry)
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("table %s must map to a struct, not %s",
			tableName, t))
	}

	r.tables[tableName] = t
}

func (r *sqliteReader) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	f Filter,
) ([]any, int, error) {
	entryType, ok := r.tables[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var total int

	countSQL := "SELECT COUNT(*) FROM " + tableName + whereClause(f)
	err := r.db.QueryRowContext(ctx, countSQL, f.Args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting %s: %w", tableName, err)
	}

	selectSQL := "SELECT * FROM " + tableName + whereClause(f) + pageClause(f)

	rows, err := r.db.QueryContext(ctx, selectSQL, f.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying %s: %w", tableName, err)
	}
	defer rows.Close()

	entries, err := decodeRows(rows, entryType)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", tableName, err)
	}

	return entries, total, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

func whereClause(f Filter) string {
	if f.Where == "" {
		return ""
	}

	return " WHERE " + f.Where
}

func pageClause(f Filter) string {
	var b strings.Builder

	if f.OrderBy != "" {
		b.WriteString(" ORDER BY " + f.OrderBy)
	}

	switch {
	case f.Limit > 0:
		fmt.Fprintf(&b, " LIMIT %d", f.Limit)
	case f.Offset > 0:
		b.WriteString(" LIMIT -1")
	}

	if f.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", f.Offset)
	}

	return b.String()
}

// decodeRows fills one struct per row, matching columns to fields by name.
// Columns without a field are dropped.
func decodeRows(rows *sql.Rows, entryType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldOf := make([]int, len(columns))
	for i, col := range columns {
		fieldOf[i] = -1

		if f, ok := entryType.FieldByName(col); ok && len(f.Index) == 1 {
			fieldOf[i] = f.Index[0]
		}
	}

	var (
		entries []any
		discard any
	)

	targets := make([]any, len(columns))

	for rows.Next() {
		entry := reflect.New(entryType)

		for i, field := range fieldOf {
			if field < 0 {
				targets[i] = &discard
				continue
			}

			targets[i] = entry.Elem().Field(field).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		entries = append(entries, entry.Interface())
	}

	return entries, rows.Err()
}

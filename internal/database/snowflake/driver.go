package snowflake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sf "github.com/snowflakedb/gosnowflake"

	"snowbeat/internal/database"
	"snowbeat/internal/queries"
)

// Driver implements database.Driver on top of the gosnowflake driver.
type Driver struct {
	db *sql.DB
}

// New creates an unconnected Snowflake driver.
func New() *Driver {
	return &Driver{}
}

// NewWithDB wraps an existing handle. Used by tests.
func NewWithDB(db *sql.DB) *Driver {
	return &Driver{db: db}
}

// Connect opens a keypair-authenticated session to the account. The
// warehouse named in cfg becomes the session default; UseWarehouse makes
// the selection explicit before any query runs.
func (d *Driver) Connect(ctx context.Context, cfg database.ConnConfig) error {
	dsn, err := sf.DSN(&sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Warehouse:     cfg.Warehouse,
		Database:      cfg.Database,
		Authenticator: sf.AuthTypeJwt,
		PrivateKey:    cfg.PrivateKey,
		Application:   "snowbeat",
	})
	if err != nil {
		return fmt.Errorf("build dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	// One invocation runs one query; no pool needed.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("authenticate: %w", err)
	}

	d.db = db
	return nil
}

// Close closes the connection.
func (d *Driver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	if d.db == nil {
		return fmt.Errorf("not connected")
	}
	return d.db.PingContext(ctx)
}

// UseWarehouse selects the active compute warehouse. Identifiers cannot be
// bound, so the name is embedded with strict identifier quoting.
func (d *Driver) UseWarehouse(ctx context.Context, name string) error {
	stmt := "USE WAREHOUSE " + queries.QuoteIdentifier(name)
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("use warehouse: %w", err)
	}
	return nil
}

// ExecuteQuery runs a SQL statement and fetches the complete result set
// along with the column names from the statement descriptor.
func (d *Driver) ExecuteQuery(ctx context.Context, query string, args ...any) (*database.QueryResult, error) {
	start := time.Now()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	var resultRows [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		for i, v := range values {
			values[i] = nativeValue(v, types[i])
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &database.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Duration: time.Since(start),
	}, nil
}

// IsAuthError reports whether err is a credential rejection rather than a
// transport or host-resolution failure.
func IsAuthError(err error) bool {
	var se *sf.SnowflakeError
	if !errors.As(err, &se) {
		return false
	}
	if se.SQLState == "28000" {
		return true
	}
	return se.Number >= 390100 && se.Number < 390200
}

// nativeValue undoes the driver's string encoding of numeric columns. In
// the JSON result format gosnowflake hands FIXED values back as strings;
// the column scale decides whether the value is integral.
func nativeValue(v any, ct *sql.ColumnType) any {
	s, ok := stringValue(v)
	if !ok {
		return v
	}

	if ct.DatabaseTypeName() == "FIXED" {
		if _, scale, ok := ct.DecimalSize(); ok && scale > 0 {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return s
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}

package queries

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a query name has no entry in the registry.
var ErrNotFound = errors.New("query not found in registry")

// Query is a resolved, executable statement together with its bind
// arguments.
type Query struct {
	Name string
	SQL  string
	Args []any
}

// template is a registered statement. warehouseArg marks templates whose
// single bind parameter is the target warehouse name.
type template struct {
	sql          string
	warehouseArg bool
}

// SQL statements for the warehouse probe registry.
const (
	queryWarehouseLoadHistory = `
		SELECT START_TIME, END_TIME, AVG_RUNNING, AVG_QUEUED_LOAD
		FROM table(information_schema.warehouse_load_history(
			DATE_RANGE_START => TIMEADD(minute, -20, CURRENT_TIMESTAMP()),
			WAREHOUSE_NAME => ?))`

	queryCheckVersion = `SELECT CURRENT_VERSION() AS VERSION`

	queryWarehouseUsage = `
		SELECT WAREHOUSE_NAME, START_TIME, END_TIME, CREDITS_USED
		FROM table(information_schema.warehouse_metering_history(
			DATE_RANGE_START => TIMEADD(hour, -24, CURRENT_TIMESTAMP())))
		ORDER BY START_TIME DESC
		LIMIT 100`
)

var registry = map[string]template{
	"sql_warehouse_load_history": {sql: queryWarehouseLoadHistory, warehouseArg: true},
	"sql_check_version":          {sql: queryCheckVersion},
	"sql_warehouse_usage":        {sql: queryWarehouseUsage},
}

// Names returns the registered query names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up a registered statement by name and binds its
// parameters. The warehouse name is never spliced into the SQL text; it is
// passed to the driver as a bind argument.
func Resolve(name, warehouse string) (Query, error) {
	t, ok := registry[name]
	if !ok {
		return Query{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}

	q := Query{Name: name, SQL: t.sql}
	if t.warehouseArg {
		q.Args = append(q.Args, warehouse)
	}
	return q, nil
}

// QuoteIdentifier quotes an object name for statements that cannot take
// bind parameters, such as USE WAREHOUSE. Embedded quotes are doubled.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

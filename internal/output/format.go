package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"snowbeat/internal/database"
)

// timestampFormat is the fixed second-precision layout used for timestamp
// columns and the injected execution_timestamp field.
const timestampFormat = "2006-01-02 15:04:05"

// Record is one JSON-Lines output object.
type Record map[string]any

// CoerceValue maps a column value onto a JSON-safe primitive: fixed-point
// numbers become float64, timestamps become fixed-format strings in their
// own location, byte slices become strings, everything else passes through
// unchanged (nil stays JSON null).
func CoerceValue(v any) any {
	switch t := v.(type) {
	case *big.Float:
		f, _ := t.Float64()
		return f
	case *big.Int:
		if n, ok := intFromBig(t); ok {
			return n
		}
		f, _ := new(big.Float).SetInt(t).Float64()
		return f
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			if f, err := t.Float64(); err == nil {
				return f
			}
		} else if n, err := t.Int64(); err == nil {
			return n
		}
		return t.String()
	case time.Time:
		return t.Format(timestampFormat)
	case []byte:
		return string(t)
	default:
		return v
	}
}

// Format coerces every row into a Record and injects the probe metadata.
// The injected warehouse, account and execution_timestamp fields overwrite
// query columns of the same name. An empty result yields an empty slice.
func Format(result *database.QueryResult, warehouse, account string, now func() time.Time) []Record {
	records := make([]Record, 0, len(result.Rows))
	for _, row := range result.Rows {
		rec := make(Record, len(result.Columns)+3)
		for i, col := range result.Columns {
			rec[col] = CoerceValue(row[i])
		}
		rec["warehouse"] = warehouse
		rec["account"] = account
		rec["execution_timestamp"] = now().UTC().Format(timestampFormat)
		records = append(records, rec)
	}
	return records
}

// Emit writes each record as one compact JSON object per line, preserving
// the original row order.
func Emit(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}

// ErrorEnvelope is the single JSON object written to standard output when
// a run fails. It is never mixed with row records.
type ErrorEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// WriteError emits the failure envelope for a terminal error.
func WriteError(w io.Writer, tag, message string, now time.Time) error {
	return json.NewEncoder(w).Encode(ErrorEnvelope{
		Error:     tag,
		Message:   message,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

func intFromBig(n *big.Int) (int64, bool) {
	if n.IsInt64() {
		return n.Int64(), true
	}
	return 0, false
}

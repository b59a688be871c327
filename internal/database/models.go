package database

import (
	"crypto/rsa"
	"time"
)

// ConnConfig carries everything needed to open an authenticated session.
// The private key is held only for the duration of the connection attempt
// and is never logged.
type ConnConfig struct {
	Account    string
	User       string
	Warehouse  string
	Database   string
	PrivateKey *rsa.PrivateKey
}

// QueryResult holds the complete result of a SQL query execution. Rows
// preserve the order the statement returned them in.
type QueryResult struct {
	Columns  []string
	Rows     [][]any
	RowCount int
	Duration time.Duration
}

package app

import (
	"context"
	"errors"
	"fmt"
)

// Envelope tags for each failure class.
const (
	TagInvalidQuery  = "invalid_query"
	TagFileNotFound  = "file_not_found"
	TagKeyFormat     = "key_format_error"
	TagAuth          = "authentication_error"
	TagConnection    = "connection_error"
	TagQuery         = "query_error"
	TagInterrupted   = "interrupted"
	TagExecutionFail = "execution_failed"
)

// ErrUnknownQuery represents a query name with no registry entry.
type ErrUnknownQuery struct {
	Name      string
	Available []string
}

func (e *ErrUnknownQuery) Error() string {
	return fmt.Sprintf("unknown query %q, available queries: %v", e.Name, e.Available)
}

// ErrKeyFile represents a missing or unreadable private key file.
type ErrKeyFile struct {
	Path  string
	Cause error
}

func (e *ErrKeyFile) Error() string {
	return fmt.Sprintf("private key file %s: %v", e.Path, e.Cause)
}

func (e *ErrKeyFile) Unwrap() error {
	return e.Cause
}

// ErrKeyFormat represents key material that cannot be parsed, including a
// wrong passphrase.
type ErrKeyFormat struct {
	Cause error
}

func (e *ErrKeyFormat) Error() string {
	return fmt.Sprintf("private key: %v", e.Cause)
}

func (e *ErrKeyFormat) Unwrap() error {
	return e.Cause
}

// ErrAuth represents a credential rejection by the warehouse.
type ErrAuth struct {
	Cause error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("authentication rejected: %v", e.Cause)
}

func (e *ErrAuth) Unwrap() error {
	return e.Cause
}

// ErrConnection represents a network or host-resolution failure.
type ErrConnection struct {
	Cause error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// ErrQuery represents a statement rejected or failed during execution.
type ErrQuery struct {
	Query string
	Cause error
}

func (e *ErrQuery) Error() string {
	return fmt.Sprintf("query %s: %v", e.Query, e.Cause)
}

func (e *ErrQuery) Unwrap() error {
	return e.Cause
}

// Tag classifies err into the stdout envelope tag. Interruption wins over
// the stage the cancellation surfaced in.
func Tag(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return TagInterrupted
	}

	var (
		unknownQuery *ErrUnknownQuery
		keyFile      *ErrKeyFile
		keyFormat    *ErrKeyFormat
		authErr      *ErrAuth
		connErr      *ErrConnection
		queryErr     *ErrQuery
	)
	switch {
	case errors.As(err, &unknownQuery):
		return TagInvalidQuery
	case errors.As(err, &keyFile):
		return TagFileNotFound
	case errors.As(err, &keyFormat):
		return TagKeyFormat
	case errors.As(err, &authErr):
		return TagAuth
	case errors.As(err, &connErr):
		return TagConnection
	case errors.As(err, &queryErr):
		return TagQuery
	default:
		return TagExecutionFail
	}
}

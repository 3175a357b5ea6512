// Package pipelineerror defines the error taxonomy of the aggregation
// pipeline. Per-row errors (MapRejectionError, MalformedNumberError) are
// recovered locally and logged in the reconciliation report; per-source
// errors (SourceUnreadableError, SchemaMissingError, DecryptionFailedError)
// skip the source and let the rest of the run continue.
package pipelineerror

import "fmt"

// SourceUnreadableError signals a missing or corrupt source file.
type SourceUnreadableError struct {
	Source string
	Err    error
}

func (e *SourceUnreadableError) Error() string {
	return fmt.Sprintf("source %s is unreadable: %v", e.Source, e.Err)
}

func (e *SourceUnreadableError) Unwrap() error {
	return e.Err
}

// SchemaMissingError signals that an expected table or sheet is absent.
type SchemaMissingError struct {
	Source string
	Schema string
}

func (e *SchemaMissingError) Error() string {
	return fmt.Sprintf("source %s: expected table/sheet %q is missing", e.Source, e.Schema)
}

// DecryptionFailedError signals a wrong passphrase or an unsupported
// encryption scheme on a cashbook workbook.
type DecryptionFailedError struct {
	Source string
	Err    error
}

func (e *DecryptionFailedError) Error() string {
	return fmt.Sprintf("failed to decrypt workbook %s: %v", e.Source, e.Err)
}

func (e *DecryptionFailedError) Unwrap() error {
	return e.Err
}

// MalformedNumberError signals a numeric field that could not be parsed.
// Parsing must fail explicitly rather than coerce to zero.
type MalformedNumberError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedNumberError) Error() string {
	return fmt.Sprintf("malformed number in field %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *MalformedNumberError) Unwrap() error {
	return e.Err
}

// MapRejectionError signals a row missing a required canonical field.
type MapRejectionError struct {
	RowRef       string
	MissingField string
}

func (e *MapRejectionError) Error() string {
	return fmt.Sprintf("row %s rejected: missing required field %s", e.RowRef, e.MissingField)
}

// ConflictError signals disagreeing non-null values during a merge. The
// first-seen value is kept; the conflict is reported, never silently
// resolved.
type ConflictError struct {
	TransactionID string
	Field         string
	Kept          string
	Discarded     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s.%s: kept %q, discarded %q",
		e.TransactionID, e.Field, e.Kept, e.Discarded)
}

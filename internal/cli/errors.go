// Package cli implements the command-line interface.
package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// Query errors
	ErrQueryInvalid = "QUERY_INVALID"
	ErrUnknownField = "UNKNOWN_FIELD"
	ErrInvalidValue = "INVALID_VALUE"
	ErrTypeMismatch = "TYPE_MISMATCH"

	// File errors
	ErrFileNotFound  = "FILE_NOT_FOUND"
	ErrFileReadError = "FILE_READ_ERROR"

	// Document errors
	ErrDocumentNotFound = "DOCUMENT_NOT_FOUND"

	// Database errors
	ErrDatabaseError = "DATABASE_ERROR"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

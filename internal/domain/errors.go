package domain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// ConfigurationError reports a bad adapter reference, a missing or invalid
// descriptor key, or an adapter that violates the reader contract. It is fatal
// for the station or adapter it concerns.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configf builds a ConfigurationError from a format string.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// SchemaViolationError reports a column required by the gridded stage that is
// absent or untyped, or a sensor model without standards.
type SchemaViolationError struct {
	SensorModel string
	Column      string
	Msg         string
}

func (e *SchemaViolationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema violation for sensor %q: %s", e.SensorModel, e.Msg)
	}
	return fmt.Sprintf("schema violation for sensor %q, column %q: %s", e.SensorModel, e.Column, e.Msg)
}

// AlreadyExistsError reports an attempt to overwrite a product without force.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("product %s already exists (use force to overwrite)", e.Path)
}

// PartialDataError is the soft error for raw lines an adapter skipped. It is
// reported, never returned as a station failure.
type PartialDataError struct {
	Station string
	Skipped int
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("station %s: %d malformed raw lines skipped", e.Station, e.Skipped)
}

// Error kinds used in summaries, events and metric labels.
const (
	KindConfiguration   = "configuration"
	KindSchemaViolation = "schema_violation"
	KindAlreadyExists   = "already_exists"
	KindPartialData     = "partial_data"
	KindIO              = "io"
	KindCanceled        = "canceled"
	KindInternal        = "internal"
)

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	var (
		cfgErr     *ConfigurationError
		schemaErr  *SchemaViolationError
		existsErr  *AlreadyExistsError
		partialErr *PartialDataError
		pathErr    *fs.PathError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &schemaErr):
		return KindSchemaViolation
	case errors.As(err, &existsErr):
		return KindAlreadyExists
	case errors.As(err, &partialErr):
		return KindPartialData
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &pathErr):
		return KindIO
	default:
		return KindInternal
	}
}

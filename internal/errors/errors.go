// Package errors consolidates error definitions for the entralog pipeline.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Error wrapping utilities
//
// Transient-vs-permanent download classification lives in the azure
// package (IsTransient), next to the retry loop that consumes it.
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Configuration errors - fatal, reported before any I/O
	ErrMissingConfig = errors.New("missing required configuration value")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidURI    = errors.New("invalid container SAS URI")

	// Date filtering errors
	ErrInvalidDate      = errors.New("invalid date (want YYYYMMDD)")
	ErrInvalidDateRange = errors.New("invalid date range (start after end)")

	// Download errors - recoverable per blob. ErrDownloadFailed is
	// terminal for the blob: the fetcher returns it only once its retry
	// budget is spent.
	ErrDownloadFailed = errors.New("blob download failed")

	// Combine errors
	ErrNoFilesAdmitted = errors.New("no parquet files admitted")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// Join is a convenience wrapper for errors.Join
var Join = errors.Join

// New is a convenience wrapper for errors.New
var New = errors.New

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewMissingConfig creates a missing configuration error naming the value.
func NewMissingConfig(name string) error {
	return fmt.Errorf("%s: %w", name, ErrMissingConfig)
}

// NewInvalidDate creates an invalid date error for a flag or field.
func NewInvalidDate(name, value string) error {
	return fmt.Errorf("%s %q: %w", name, value, ErrInvalidDate)
}

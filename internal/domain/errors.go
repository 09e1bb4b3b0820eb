package domain

import (
	"errors"
)

// Common domain errors
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotDirectory  = errors.New("not a directory")
	ErrGroupTooSmall = errors.New("duplicate group needs at least two files")

	// Extraction errors
	ErrExtraction        = errors.New("signal extraction failed")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoAudio           = errors.New("no decodable audio")

	// Disposition errors
	ErrDisposition     = errors.New("disposition failed")
	ErrNoFreeName      = errors.New("no free destination name")
	ErrKeeperProtected = errors.New("keeper must not be touched")

	// Configuration errors
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// SkippableError represents an error that can be logged and skipped.
// Processing can continue with the next item when this error occurs.
type SkippableError struct {
	Err     error
	Context string
}

// Error returns the error message
func (e *SkippableError) Error() string {
	if e.Context != "" {
		if e.Err != nil {
			return e.Context + ": " + e.Err.Error()
		}
		return e.Context
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "skippable error"
}

// Unwrap returns the underlying error
func (e *SkippableError) Unwrap() error {
	return e.Err
}

// NewSkippableError creates a new skippable error
func NewSkippableError(err error, context string) *SkippableError {
	return &SkippableError{Err: err, Context: context}
}

// IsSkippable returns true if the error can be skipped
func IsSkippable(err error) bool {
	var se *SkippableError
	return errors.As(err, &se)
}

// ExtractionError reports a failed signal for one file.
// It is always skippable: the signal is treated as absent.
type ExtractionError struct {
	Path   string
	Signal string
	Err    error
}

// Error returns the error message
func (e *ExtractionError) Error() string {
	msg := e.Signal + " extraction failed for " + e.Path
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrExtraction) match
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// NewExtractionError wraps a signal failure as a skippable error
func NewExtractionError(path, signal string, err error) error {
	return NewSkippableError(&ExtractionError{Path: path, Signal: signal, Err: err}, "")
}

// Common skippable errors for convenience
var (
	ErrSkipFileNotFound = NewSkippableError(ErrNotFound, "file not found")
	ErrSkipUnsupported  = NewSkippableError(ErrUnsupportedFormat, "unsupported format")
)

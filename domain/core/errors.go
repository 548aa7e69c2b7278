package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrDatasetNotFound  = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrAnalysisNotFound = fmt.Errorf("%w: analysis run", ErrNotFound)
	ErrColumnNotFound   = fmt.Errorf("%w: column", ErrNotFound)

	// Configuration errors - programmer mistakes, fail fast and loud
	ErrUnknownDomain = errors.New("unknown schema domain")

	// Table errors
	ErrEmptyTable     = errors.New("table has no rows")
	ErrNoColumns      = errors.New("table has no columns")
	ErrLengthMismatch = errors.New("column lengths do not match")

	// Analysis errors
	ErrMissingRequiredFields = errors.New("required fields not mapped")
	ErrInsufficientData      = errors.New("insufficient data for analysis")
	ErrDateConversion        = errors.New("date conversion failed")
)

// NewUnknownDomainError reports an unsupported schema domain, enumerating
// the valid names so the caller can correct the request.
func NewUnknownDomainError(got string, valid []string) error {
	return fmt.Errorf("%w: %q (available domains: %v)", ErrUnknownDomain, got, valid)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnknownDomainError(err error) bool {
	return errors.Is(err, ErrUnknownDomain)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

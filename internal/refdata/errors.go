package refdata

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized taxonomy of remote fetch failures.
type ErrorCategory string

const (
	// ErrorTimeout: the source did not answer within the fetch timeout.
	ErrorTimeout ErrorCategory = "timeout"
	// ErrorTransport: connection, DNS or read failure.
	ErrorTransport ErrorCategory = "transport"
	// ErrorStatus: the source answered with a non-2xx status.
	ErrorStatus ErrorCategory = "status"
	// ErrorBadData: the payload did not parse or normalized to nothing.
	ErrorBadData ErrorCategory = "bad_data"
	// ErrorInternal: anything else.
	ErrorInternal ErrorCategory = "internal"
)

// SourceError wraps a remote fetch failure with its category.
type SourceError struct {
	Category   ErrorCategory
	Dataset    string
	Message    string
	StatusCode int
	Underlying error
}

func (e *SourceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("dataset %s [%s]: %s: %v", e.Dataset, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("dataset %s [%s]: %s", e.Dataset, e.Category, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Underlying
}

func NewSourceError(category ErrorCategory, dataset, message string, underlying error) *SourceError {
	return &SourceError{
		Category:   category,
		Dataset:    dataset,
		Message:    message,
		Underlying: underlying,
	}
}

// GetCategory extracts the category from err, defaulting to ErrorInternal.
func GetCategory(err error) ErrorCategory {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Category
	}
	return ErrorInternal
}

// ErrUnknownDataset is returned by the catalog for unregistered names.
var ErrUnknownDataset = errors.New("unknown dataset")

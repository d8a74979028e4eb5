package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeTransport represents network-level fetch failures
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeParseMiss represents a field heuristic that found nothing
	ErrorTypeParseMiss ErrorType = "parse_miss"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents records missing required keys
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypePersistence represents disk or database write failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// AppError is the error type shared by the scraping pipeline
type AppError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTransport:
		return true
	default:
		return false
	}
}

// New creates a new AppError
func New(errType ErrorType, source, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewTransport creates a new transport error
func NewTransport(source, message string, err error) *AppError {
	return New(ErrorTypeTransport, source, message, err)
}

// NewParseMiss creates a new parse miss error
func NewParseMiss(source, field string) *AppError {
	return New(ErrorTypeParseMiss, source, "no match for "+field, nil)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, retryAfter string) *AppError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *AppError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *AppError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *AppError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(source, message string, err error) *AppError {
	return New(ErrorTypePersistence, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *AppError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// IsType reports whether any error in err's chain is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsRetryable reports whether err is an AppError that may be retried
func IsRetryable(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.IsRetryable()
	}
	return false
}

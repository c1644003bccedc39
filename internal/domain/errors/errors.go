// Package errors defines domain-specific error types.
// Using typed errors (instead of strings) allows clients to handle specific cases.
//
// Pattern: Sentinel Errors + Custom Error Types
package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors for domain validation
var (
	// Entity errors
	ErrEntityNotFound      = errors.New("entity not found")
	ErrEntityAlreadyExists = errors.New("entity already exists")

	// Ledger errors - закрытая таксономия ядра.
	// Исполнитель кэширует как failed только доменные ошибки (см. IsDomain).
	ErrInsufficientBalance        = errors.New("insufficient balance")
	ErrSourceWalletNotFound       = errors.New("source wallet not found")
	ErrDestinationWalletNotFound  = errors.New("destination wallet not found")
	ErrConcurrentModificationSrc  = errors.New("concurrent modification of source wallet")
	ErrConcurrentModificationDst  = errors.New("concurrent modification of destination wallet")
	ErrLockUnavailable            = errors.New("wallet lock unavailable")
	ErrRequestAlreadyProcessing   = errors.New("request already processing")
	ErrIdempotencyKeyRequired     = errors.New("idempotency key is required")
	ErrInvalidTransactionType     = errors.New("invalid transaction type")
	ErrAssetTypeNotFound          = errors.New("asset type not found")
	ErrAssetTypeInactive          = errors.New("asset type is inactive")
)

// Code returns the machine-readable error code for a domain sentinel,
// matching the wire-level taxonomy. Unknown errors map to INTERNAL.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return "INSUFFICIENT_BALANCE"
	case errors.Is(err, ErrSourceWalletNotFound):
		return "SOURCE_WALLET_NOT_FOUND"
	case errors.Is(err, ErrDestinationWalletNotFound):
		return "DESTINATION_WALLET_NOT_FOUND"
	case errors.Is(err, ErrConcurrentModificationSrc):
		return "CONCURRENT_MODIFICATION_SOURCE"
	case errors.Is(err, ErrConcurrentModificationDst):
		return "CONCURRENT_MODIFICATION_DESTINATION"
	case errors.Is(err, ErrLockUnavailable):
		return "LOCK_UNAVAILABLE"
	case errors.Is(err, ErrRequestAlreadyProcessing):
		return "REQUEST_ALREADY_PROCESSING"
	case errors.Is(err, ErrIdempotencyKeyRequired):
		return "IDEMPOTENCY_KEY_REQUIRED"
	case errors.Is(err, ErrAssetTypeNotFound):
		return "ASSET_TYPE_NOT_FOUND"
	case errors.Is(err, ErrAssetTypeInactive):
		return "ASSET_TYPE_INACTIVE"
	case errors.Is(err, ErrEntityNotFound):
		return "NOT_FOUND"
	case IsValidation(err):
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL"
	}
}

// DomainError wraps an error with a machine-readable code and context.
type DomainError struct {
	Code    string // Machine-readable error code (e.g., "INSUFFICIENT_BALANCE")
	Message string // Human-readable message
	Err     error  // Underlying error (for error chains)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents validation failures with field-level details.
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // What went wrong
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ConcurrencyError represents errors from concurrent access (optimistic locking).
// Raised when the version CAS on a wallet row updates zero rows.
type ConcurrencyError struct {
	EntityType string // e.g., "Wallet"
	EntityID   string // ID of the entity
	Message    string
}

// Error implements the error interface.
func (e ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency error on %s [%s]: %s", e.EntityType, e.EntityID, e.Message)
}

// NewConcurrencyError creates a new concurrency error.
func NewConcurrencyError(entityType, entityID, message string) *ConcurrencyError {
	return &ConcurrencyError{
		EntityType: entityType,
		EntityID:   entityID,
		Message:    message,
	}
}

// Helper functions for common error checking

// IsNotFound checks if an error is an "entity not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound) ||
		errors.Is(err, ErrSourceWalletNotFound) ||
		errors.Is(err, ErrDestinationWalletNotFound) ||
		errors.Is(err, ErrAssetTypeNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	var valErr ValidationError
	return errors.As(err, &valErr)
}

// IsConcurrencyError checks if an error is a concurrency error.
func IsConcurrencyError(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce) ||
		errors.Is(err, ErrConcurrentModificationSrc) ||
		errors.Is(err, ErrConcurrentModificationDst)
}

// IsDomain reports whether err belongs to the closed domain taxonomy.
// The executor caches only domain failures in the idempotency store;
// infrastructure errors (network, serialization) must stay retryable.
func IsDomain(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrSourceWalletNotFound),
		errors.Is(err, ErrDestinationWalletNotFound),
		errors.Is(err, ErrConcurrentModificationSrc),
		errors.Is(err, ErrConcurrentModificationDst),
		errors.Is(err, ErrIdempotencyKeyRequired),
		errors.Is(err, ErrInvalidTransactionType),
		errors.Is(err, ErrAssetTypeNotFound),
		errors.Is(err, ErrAssetTypeInactive),
		IsValidation(err):
		return true
	default:
		return false
	}
}

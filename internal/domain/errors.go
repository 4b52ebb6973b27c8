package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeUnavailable      = "UNAVAILABLE"
)

// Validation errors
var (
	ErrNoContent           = NewDomainError(ErrCodeValidation, "no content to index")
	ErrEmptyQuestion       = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrInvalidMaterialType = NewDomainError(ErrCodeValidation, "invalid material type")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)

// Operation errors
var (
	ErrNoDocuments = NewDomainError(ErrCodeInvalidOperation, "no documents uploaded")
	ErrNoContext   = NewDomainError(ErrCodeInvalidOperation, "no content available for material generation")
)

// Consistency errors. These indicate a coordination bug between the
// document store and the vector index; callers recover by forcing a
// full rebuild rather than exposing internals.
var (
	ErrIndexInconsistent = NewDomainError(ErrCodeInternalError, "chunk references a missing document")
	ErrSnapshotMismatch  = NewDomainError(ErrCodeInternalError, "persisted snapshot does not match current corpus")
)

// External collaborator errors
var (
	ErrLLMUnavailable = NewDomainError(ErrCodeUnavailable, "language model service not configured")
)

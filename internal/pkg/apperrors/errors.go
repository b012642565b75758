// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a category of application error
type Code string

const (
	CodeOutOfStock               Code = "OUT_OF_STOCK"
	CodeContractInactive         Code = "CONTRACT_INACTIVE"
	CodeInsufficientAvailability Code = "INSUFFICIENT_AVAILABILITY"
	CodeInvalidQuantity          Code = "INVALID_QUANTITY"
	CodeValidationError          Code = "VALIDATION_ERROR"
	CodeCommitFailed             Code = "COMMIT_FAILED"
	CodeNotFound                 Code = "NOT_FOUND"
	CodeInvariantViolation       Code = "INVARIANT_VIOLATION"
)

// ItemIssue describes one offending cart item in a batch validation failure
type ItemIssue struct {
	ItemID     uint   `json:"item_id"`
	ProductID  uint   `json:"product_id"`
	ContractID uint   `json:"contract_id"`
	Reason     string `json:"reason"`
}

// Error is a typed application error. Available carries the contract line's
// current availability when the rejection is quantity-related, so callers can
// offer a corrective action instead of a bare failure message.
type Error struct {
	Code      Code        `json:"code"`
	Message   string      `json:"message"`
	Available *int        `json:"quantidade_disponivel,omitempty"`
	Items     []ItemIssue `json:"items,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a typed error with the given code and message
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a NOT_FOUND error
func NotFound(format string, args ...interface{}) *Error {
	return Newf(CodeNotFound, format, args...)
}

// OutOfStock creates an OUT_OF_STOCK error carrying the current availability
func OutOfStock(available int) *Error {
	e := Newf(CodeOutOfStock, "no quantity available for this contract line")
	e.Available = &available
	return e
}

// ContractInactive creates a CONTRACT_INACTIVE error
func ContractInactive(contractID uint) *Error {
	return Newf(CodeContractInactive, "contract %d is not active", contractID)
}

// InsufficientAvailability creates an INSUFFICIENT_AVAILABILITY error carrying
// the quantity still available on the contract line
func InsufficientAvailability(requested, available int) *Error {
	e := Newf(CodeInsufficientAvailability,
		"requested quantity %d exceeds available %d", requested, available)
	e.Available = &available
	return e
}

// InvalidQuantity creates an INVALID_QUANTITY error
func InvalidQuantity(quantity int) *Error {
	return Newf(CodeInvalidQuantity, "quantity must be greater than zero, got %d", quantity)
}

// Validation creates a VALIDATION_ERROR listing every offending item
func Validation(items []ItemIssue) *Error {
	e := Newf(CodeValidationError, "%d cart item(s) failed validation", len(items))
	e.Items = items
	return e
}

// CommitFailed creates a COMMIT_FAILED error wrapping the underlying cause
func CommitFailed(cause error) *Error {
	return Newf(CodeCommitFailed, "order confirmation could not commit reserved quantities: %v", cause)
}

// InvariantViolation creates an INVARIANT_VIOLATION error. These indicate a
// bug in the reservation protocol, never an expected runtime condition.
func InvariantViolation(format string, args ...interface{}) *Error {
	return Newf(CodeInvariantViolation, format, args...)
}

// As unwraps err into a typed *Error, or returns nil
func As(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether err is a typed error with the given code
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code == code
}

// HTTPStatus maps an error code to the HTTP status the handler layer returns.
// Invariant violations surface as a generic internal failure so internals are
// never exposed to callers.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeOutOfStock, CodeInsufficientAvailability, CodeCommitFailed:
		return http.StatusConflict
	case CodeContractInactive, CodeInvalidQuantity, CodeValidationError:
		return http.StatusBadRequest
	case CodeInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show callers
func (e *Error) PublicMessage() string {
	if e.Code == CodeInvariantViolation {
		return "internal error"
	}
	return e.Message
}
